package deferred

import "context"

// StatusCode compares a response's eventual status code. Every method
// forces resolution and returns the transport error, if any. The error
// policy never applies to status comparisons.
type StatusCode struct {
	r *Response
}

// Value returns the status code.
func (s StatusCode) Value(ctx context.Context) (int, error) {
	resp, err := s.r.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	return resp.Status(), nil
}

func (s StatusCode) compare(ctx context.Context, fn func(int) bool) (bool, error) {
	v, err := s.Value(ctx)
	if err != nil {
		return false, err
	}
	return fn(v), nil
}

// Equals reports whether the status equals code.
func (s StatusCode) Equals(ctx context.Context, code int) (bool, error) {
	return s.compare(ctx, func(v int) bool { return v == code })
}

// NotEquals reports whether the status differs from code.
func (s StatusCode) NotEquals(ctx context.Context, code int) (bool, error) {
	return s.compare(ctx, func(v int) bool { return v != code })
}

// LessThan reports whether the status is below code.
func (s StatusCode) LessThan(ctx context.Context, code int) (bool, error) {
	return s.compare(ctx, func(v int) bool { return v < code })
}

// LessOrEqual reports whether the status is at most code.
func (s StatusCode) LessOrEqual(ctx context.Context, code int) (bool, error) {
	return s.compare(ctx, func(v int) bool { return v <= code })
}

// GreaterThan reports whether the status is above code.
func (s StatusCode) GreaterThan(ctx context.Context, code int) (bool, error) {
	return s.compare(ctx, func(v int) bool { return v > code })
}

// GreaterOrEqual reports whether the status is at least code.
func (s StatusCode) GreaterOrEqual(ctx context.Context, code int) (bool, error) {
	return s.compare(ctx, func(v int) bool { return v >= code })
}
