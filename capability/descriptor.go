package capability

import (
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"
)

// Descriptor is the set of option names a target operation accepts.
type Descriptor struct {
	target string
	names  map[string]struct{}
}

// Declare builds a Descriptor from an explicit list of names.
func Declare(target string, names ...string) Descriptor {
	d := Descriptor{target: target, names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		d.names[n] = struct{}{}
	}
	return d
}

// Of derives a Descriptor from target.
//
// For a function (including method expressions such as
// (*transport.Client).Request) every struct or pointer-to-struct parameter
// contributes its option names. For a struct value or pointer its own
// fields do. Any other target accepts nothing.
func Of(target any) Descriptor {
	t := reflect.TypeOf(target)
	if t == nil {
		return Declare("<nil>")
	}

	var structs []reflect.Type
	name := t.String()
	if t.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(reflect.ValueOf(target).Pointer()); fn != nil {
			name = fn.Name()
		}
		for i := range t.NumIn() {
			if st, ok := structType(t.In(i)); ok {
				structs = append(structs, st)
			}
		}
	} else if st, ok := structType(t); ok {
		structs = append(structs, st)
	}

	d := Declare(name)
	for _, st := range structs {
		for _, n := range optionNames(st) {
			d.names[n] = struct{}{}
		}
	}
	return d
}

// Accepts reports whether name is an accepted option.
func (d Descriptor) Accepts(name string) bool {
	_, ok := d.names[name]
	return ok
}

// Len returns the number of accepted names.
func (d Descriptor) Len() int {
	return len(d.names)
}

// Names returns the accepted option names, sorted.
func (d Descriptor) Names() []string {
	names := make([]string, 0, len(d.names))
	for n := range d.names {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Target names the operation the Descriptor was derived from.
func (d Descriptor) Target() string {
	return d.target
}

func structType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}

var namesCache sync.Map // reflect.Type -> []string

// optionNames returns the mapstructure option names of a struct type.
func optionNames(t reflect.Type) []string {
	if cached, ok := namesCache.Load(t); ok {
		return cached.([]string)
	}

	var names []string
	for i := range t.NumField() {
		f := t.Field(i)
		tag, flags, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if tag == "-" {
			continue
		}
		if (f.Anonymous && tag == "") || strings.Contains(flags, "squash") {
			if st, ok := structType(f.Type); ok {
				names = append(names, optionNames(st)...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		names = append(names, tag)
	}

	namesCache.Store(t, names)
	return names
}
