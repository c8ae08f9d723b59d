package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
		{409, ErrCodeValidation, false},
		{429, ErrCodeRateLimit, true},
		{500, ErrCodeServer, true},
		{503, ErrCodeServer, true},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			e := ClassifyStatus(tc.status, []byte("body"))
			if e == nil {
				t.Fatal("expected error")
			}
			if e.Code != tc.code || e.Retryable != tc.retryable || e.StatusCode != tc.status {
				t.Errorf("got %+v", e)
			}
			if StatusOf(e) != tc.status {
				t.Errorf("StatusOf = %d", StatusOf(e))
			}
		})
	}
	if ClassifyStatus(302, nil) != nil {
		t.Error("3xx must not be an error")
	}
}

func TestClassifyError(t *testing.T) {
	ctx := context.Background()
	urlErr := func(err error) error {
		return &url.Error{Op: "Get", URL: "http://x", Err: err}
	}

	if e := classifyError(ctx, urlErr(context.DeadlineExceeded)); e.Code != ErrCodeTimeout {
		t.Errorf("deadline: %v", e)
	}
	if e := classifyError(ctx, urlErr(context.Canceled)); e.Code != ErrCodeCanceled {
		t.Errorf("canceled: %v", e)
	}
	if e := classifyError(ctx, urlErr(fmt.Errorf("%w: stopped after 1", errTooManyRedirects))); e.Code != ErrCodeRedirect {
		t.Errorf("redirect: %v", e)
	}
	if e := classifyError(ctx, urlErr(errors.New("connection refused"))); e.Code != ErrCodeConnection || !e.Retryable {
		t.Errorf("connection: %v", e)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if e := classifyError(canceled, errors.New("read: use of closed connection")); e.Code != ErrCodeCanceled {
		t.Errorf("canceled ctx: %v", e)
	}

	orig := NewValidationError("bad")
	if classifyError(ctx, fmt.Errorf("wrap: %w", orig)) != orig {
		t.Error("existing transport errors must pass through")
	}
}

func TestErrorPredicates(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ClassifyStatus(429, nil))
	if !IsRateLimit(err) || !IsRetryable(err) || IsServerError(err) {
		t.Error("predicates must see through wrapping")
	}
	if IsTimeout(errors.New("plain")) || StatusOf(errors.New("plain")) != 0 {
		t.Error("plain errors are not transport errors")
	}
	if ErrCodeRedirect.String() != "too_many_redirects" {
		t.Errorf("unexpected code name %s", ErrCodeRedirect)
	}
}
