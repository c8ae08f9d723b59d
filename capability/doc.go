// Package capability reconciles a flat bag of keyword options against the
// parameters a target operation accepts.
//
// A Descriptor is derived by introspection: Of looks at the struct
// parameters of a function (or a struct value) and collects their
// mapstructure option names, so the accepted set follows the target's
// signature instead of a hand-maintained list.
//
//	d := capability.Of(transport.New)
//	accepted, rejected := capability.Reconcile(opts, d)
//
// Reconcile never fails; deciding whether a non-empty rejected half is an
// error is left to the caller. Router adds an explicit prefix convention on
// top of introspection for keys both sides could claim.
package capability
