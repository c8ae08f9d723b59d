// Package deferred wraps an in-flight transport exchange behind accessors
// shaped like a blocking response.
//
// A Response resolves its pending exchange at most once, the first time any
// accessor needs it, and memoizes the outcome. Concurrent callers share one
// resolution through a singleflight group. Status comparisons are named
// methods returning (bool, error), since the status is only known after
// resolution:
//
//	resp, err := sess.Get(ctx, "/users/1", nil)
//	ok, err := resp.Status().Equals(ctx, http.StatusOK)
//	text, err := resp.Text(ctx)
//
// Failure statuses are reported according to the ErrorMode. In OptIn mode
// (the default) nothing is raised unless RaiseForStatus registered a policy
// before resolution. In Always mode a failure status is always reported,
// through the registered policy or PassThrough.
package deferred
