package capability

import (
	"iter"
	"maps"
	"slices"
)

// Options is an ordered set of keyword options. Keys are unique and keep
// their insertion order; setting an existing key keeps its first position.
// A nil *Options reads as empty.
type Options struct {
	keys   []string
	values map[string]any
}

// NewOptions builds Options from alternating key-value pairs. Pairs whose
// key is not a string are skipped.
func NewOptions(kvs ...any) *Options {
	o := &Options{}
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			o.Set(key, kvs[i+1])
		}
	}
	return o
}

// FromMap builds Options from a map, ordering keys lexically.
func FromMap(m map[string]any) *Options {
	o := &Options{}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		o.Set(k, m[k])
	}
	return o
}

// Set stores value under key.
func (o *Options) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Len returns the number of options.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the option names in insertion order.
func (o *Options) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// Get returns the value stored under key.
func (o *Options) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Options) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Map returns a copy of the options as a plain map.
func (o *Options) Map() map[string]any {
	m := make(map[string]any, o.Len())
	for k, v := range o.All() {
		m[k] = v
	}
	return m
}

// All iterates over the options in insertion order.
func (o *Options) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.values[k]) {
				return
			}
		}
	}
}
