package codec

import "strings"

// FieldFilter restricts which fields a decode returns. A nil filter selects
// every field; names in the filter that a record lacks are simply absent from
// the result.
type FieldFilter map[string]struct{}

// NewFieldFilter builds a filter from names. With no names it returns nil,
// which selects all fields.
func NewFieldFilter(names ...string) FieldFilter {
	if len(names) == 0 {
		return nil
	}
	f := make(FieldFilter, len(names))
	for _, name := range names {
		f[name] = struct{}{}
	}
	return f
}

// ParseFieldFilter splits a comma separated list such as "field0,field3".
// Blank entries are ignored.
func ParseFieldFilter(list string) FieldFilter {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return NewFieldFilter(names...)
}

// Contains reports whether name passes the filter.
func (f FieldFilter) Contains(name string) bool {
	if f == nil {
		return true
	}
	_, ok := f[name]
	return ok
}

// Apply returns the subset of r selected by f. The values are shared with r.
func (f FieldFilter) Apply(r Record) Record {
	if f == nil {
		return r
	}
	out := make(Record, len(f))
	for name := range f {
		if value, ok := r[name]; ok {
			out[name] = value
		}
	}
	return out
}
