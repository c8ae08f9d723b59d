package capability

import "strings"

// DefaultPrefix marks keys routed explicitly to the transport.
const DefaultPrefix = "transport_"

// Reconcile partitions config into the options d accepts and the rest.
// Every key lands in exactly one half and both halves keep input order.
func Reconcile(config *Options, d Descriptor) (accepted, rejected *Options) {
	accepted, rejected = &Options{}, &Options{}
	for k, v := range config.All() {
		if d.Accepts(k) {
			accepted.Set(k, v)
		} else {
			rejected.Set(k, v)
		}
	}
	return accepted, rejected
}

// Router splits a configuration bag like Reconcile, with an explicit
// override: keys carrying Prefix always go to the accepted half with the
// prefix stripped, and an unprefixed key whose name a prefixed key claimed
// goes to the rejected half. With an empty Prefix, Split equals Reconcile.
type Router struct {
	Descriptor Descriptor
	Prefix     string
}

// Split partitions config.
func (r Router) Split(config *Options) (accepted, rejected *Options) {
	if r.Prefix == "" {
		return Reconcile(config, r.Descriptor)
	}

	claimed := make(map[string]bool)
	for k := range config.All() {
		if name, ok := strings.CutPrefix(k, r.Prefix); ok && name != "" {
			claimed[name] = true
		}
	}

	accepted, rejected = &Options{}, &Options{}
	for k, v := range config.All() {
		if name, ok := strings.CutPrefix(k, r.Prefix); ok && name != "" {
			accepted.Set(name, v)
			continue
		}
		if !claimed[k] && r.Descriptor.Accepts(k) {
			accepted.Set(k, v)
		} else {
			rejected.Set(k, v)
		}
	}
	return accepted, rejected
}
