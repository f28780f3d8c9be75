package query

import "maps"

// ParameterBag holds the parameter values of one query execution. Reading a
// value while building a plan bakes it into the generated SQL; such reads go
// through GetAndDisableCaching, which marks the plan as not reusable with
// other values. The mark is never cleared.
type ParameterBag struct {
	values          map[string]any
	cachingDisabled bool
}

// NewParameterBag returns a bag holding a copy of values.
func NewParameterBag(values map[string]any) *ParameterBag {
	return &ParameterBag{values: maps.Clone(values)}
}

// Get returns the value of the named parameter without affecting caching.
func (b *ParameterBag) Get(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

// GetAndDisableCaching returns the value of the named parameter and marks
// the plan being built as not cacheable.
func (b *ParameterBag) GetAndDisableCaching(name string) (any, bool) {
	b.cachingDisabled = true
	return b.Get(name)
}

// CachingDisabled reports whether a parameter value was inspected.
func (b *ParameterBag) CachingDisabled() bool { return b.cachingDisabled }

// Values returns a copy of the parameter values.
func (b *ParameterBag) Values() map[string]any { return maps.Clone(b.values) }

// Len returns the number of parameters.
func (b *ParameterBag) Len() int { return len(b.values) }
