package deferred

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/kbukum/deferhttp/errors"
	"github.com/kbukum/deferhttp/transport"
)

// ErrorPolicy translates the failure raised by a response's status check.
// The returned error is what every body accessor reports from then on;
// returning nil suppresses the failure.
type ErrorPolicy func(ctx context.Context, err error, resp *transport.Response) error

// PassThrough reports the transport's status error unchanged.
func PassThrough(_ context.Context, err error, _ *transport.Response) error {
	return err
}

// AppErrorPolicy rewraps status failures as an external service AppError
// naming service, keeping the transport error as the cause.
func AppErrorPolicy(service string) ErrorPolicy {
	return func(_ context.Context, err error, resp *transport.Response) error {
		appErr := apperrors.ExternalServiceError(service, err).WithDetail("status", resp.Status())
		if u := resp.URL(); u != nil {
			appErr = appErr.WithDetail("url", u.String())
		}
		return appErr
	}
}

// ErrorMode selects when failure statuses are reported.
type ErrorMode int

const (
	// OptIn reports failure statuses only once a policy is registered.
	OptIn ErrorMode = iota
	// Always reports failure statuses, through PassThrough when no policy
	// was registered.
	Always
)

// String returns the mode's configuration name.
func (m ErrorMode) String() string {
	switch m {
	case OptIn:
		return "opt_in"
	case Always:
		return "always"
	default:
		return fmt.Sprintf("ErrorMode(%d)", int(m))
	}
}

// ParseErrorMode parses "opt_in" or "always". An empty string is OptIn.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "opt_in", "optin":
		return OptIn, nil
	case "always":
		return Always, nil
	default:
		return OptIn, apperrors.Validation(fmt.Sprintf("unknown error mode %q", s)).
			WithDetail("error_mode", s)
	}
}
