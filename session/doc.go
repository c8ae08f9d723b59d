// Package session adapts code written against a blocking HTTP session to
// the asynchronous transport client.
//
// New takes one flat option bag. Keys the transport constructor accepts
// (discovered by reflecting on transport.New, or forced with the
// "transport_" prefix) build the transport client; the rest go to the
// cooperating Base the session is composed with. Request reconciles
// per-call options against the transport's request method the same way,
// rejecting unknown keys before anything is sent, and returns a
// deferred.Response.
//
//	sess, err := session.New(capability.NewOptions(
//	    "base_url", "https://api.example.com",
//	    "timeout", "10s",
//	), session.NoBase)
//	resp, err := sess.Get(ctx, "/users/1", nil)
//	text, err := resp.Text(ctx)
//
// Operations that assume a blocking model (request preparation, redirect
// and auth rebuilding, adapter mounting, context-manager entry and state
// serialization) fail with a NOT_SUPPORTED error.
package session
