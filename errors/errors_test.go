package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
	if New(ErrCodeInvalidArgument, "bad", http.StatusBadRequest).Retryable {
		t.Error("INVALID_ARGUMENT should not be retryable")
	}
}

func TestInvalidArgument_SortsKeys(t *testing.T) {
	err := InvalidArgument("verify", "stream", "hooks")
	if err.Code != ErrCodeInvalidArgument {
		t.Errorf("expected INVALID_ARGUMENT, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
	want := []string{"hooks", "stream", "verify"}
	if got := err.Details["keys"]; !reflect.DeepEqual(got, want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}
	if !strings.Contains(err.Message, "hooks, stream, verify") {
		t.Errorf("message should name the keys, got %q", err.Message)
	}
}

func TestInvalidArgument_DoesNotMutateInput(t *testing.T) {
	keys := []string{"b", "a"}
	InvalidArgument(keys...)
	if keys[0] != "b" {
		t.Error("input slice was reordered")
	}
}

func TestNotSupported(t *testing.T) {
	err := NotSupported("ResolveRedirects")
	if err.Code != ErrCodeNotSupported {
		t.Errorf("expected NOT_SUPPORTED, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusNotImplemented {
		t.Errorf("expected 501, got %d", err.HTTPStatus)
	}
	if err.Details["operation"] != "ResolveRedirects" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := Validation("bad value")
	if got := err.Error(); got != "INVALID_INPUT: bad value" {
		t.Errorf("unexpected message %q", got)
	}
	err.WithCause(fmt.Errorf("root"))
	if got := err.Error(); got != "INVALID_INPUT: bad value (cause: root)" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("upstream 500")
	err := ExternalServiceError("billing", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !err.Retryable {
		t.Error("external service errors should be retryable")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := Internal(nil).WithDetail("k", "v")
	if err.Details["k"] != "v" {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
}

func TestIsCode(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NotSupported("Send"))
	if !IsCode(wrapped, ErrCodeNotSupported) {
		t.Error("expected IsCode to see through wrapping")
	}
	if IsCode(wrapped, ErrCodeInvalidArgument) {
		t.Error("unexpected code match")
	}
	if IsCode(fmt.Errorf("plain"), ErrCodeNotSupported) {
		t.Error("plain errors carry no code")
	}
}

func TestConstructors_Table(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"timeout", Timeout("resolve"), ErrCodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", ServiceUnavailable("upstream"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError},
		{"validation", Validation("x"), ErrCodeInvalidInput, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("expected %d, got %d", tt.status, tt.err.HTTPStatus)
			}
		})
	}
}
