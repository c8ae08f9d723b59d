// Package testutil provides test infrastructure for deferhttp: an in-process
// gin server, a spy pending exchange and canned transport responses, plus
// lifecycle helpers for test components.
//
// Components started through T(t).Setup are stopped when the test ends:
//
//	srv := testutil.NewServer()
//	testutil.T(t).Setup(srv)
//	sess, _ := session.New(capability.NewOptions("base_url", srv.URL()), session.NoBase)
//
// A Manager starts several components in order and stops them in reverse.
//
// SpyPending stands in for a transport exchange when a test needs to count
// awaits or control when resolution completes:
//
//	spy := testutil.NewSpyPending(testutil.NewResponse(200, "ok"), nil).Hold()
//	resp := deferred.New(spy)
//	go spy.Release()
package testutil
