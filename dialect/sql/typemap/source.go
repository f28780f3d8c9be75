package typemap

import (
	"database/sql/driver"
	"reflect"
	"sync"

	"github.com/syssam/veloxmysql/dialect"
)

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// Source resolves mappings by Go type.
type Source struct {
	noBackslashEscapes bool
	replaceLineBreaks  bool
	strict             bool

	mu       sync.RWMutex
	mappings map[reflect.Type]Mapping
}

// NewSource returns a Source with the built-in mappings configured from
// opts. A nil opts uses the default options.
func NewSource(opts *dialect.Options) *Source {
	if opts == nil {
		opts, _ = dialect.NewOptions()
	}
	s := &Source{
		noBackslashEscapes: opts.NoBackslashEscapes,
		replaceLineBreaks:  opts.ReplaceLineBreaksWithCharFunction,
		strict:             opts.StrictLiterals,
		mappings:           make(map[reflect.Type]Mapping),
	}
	for _, m := range []Mapping{
		s.StringMapping(),
		BoolMapping{},
		DecimalMapping{},
		TimeMapping{},
		DurationMapping{},
		BytesMapping{},
		UUIDMapping{},
		s.JSON(nil),
	} {
		s.mappings[m.GoType()] = m
	}
	return s
}

// StringMapping returns the string mapping configured for the server.
func (s *Source) StringMapping() StringMapping {
	return StringMapping{
		NoBackslashEscapes: s.noBackslashEscapes,
		ReplaceLineBreaks:  s.replaceLineBreaks,
	}
}

// JSON returns the JSON mapping for t. A nil t maps json.RawMessage.
func (s *Source) JSON(t reflect.Type) JSONMapping {
	return JSONMapping{Type: t, NoBackslashEscapes: s.noBackslashEscapes}
}

// NoBackslashEscapes reports whether string literals are rendered for the
// NO_BACKSLASH_ESCAPES SQL mode.
func (s *Source) NoBackslashEscapes() bool { return s.noBackslashEscapes }

// Strict reports whether rendering values without a mapping fails.
func (s *Source) Strict() bool { return s.strict }

// Register adds or replaces the mapping for its Go type.
func (s *Source) Register(m Mapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[m.GoType()] = m
}

// FindMapping returns the mapping for t, or nil if t has none. Pointer types
// resolve to the mapping of their element type. Types without a registered
// mapping fall back to their kind. Structs, maps, slices and arrays map to
// JSON unless they implement driver.Valuer.
func (s *Source) FindMapping(t reflect.Type) Mapping {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.RLock()
	m, ok := s.mappings[t]
	s.mu.RUnlock()
	if ok {
		return m
	}
	switch k := t.Kind(); {
	case k == reflect.Bool:
		return BoolMapping{Type: t}
	case k == reflect.String:
		m := s.StringMapping()
		m.Type = t
		return m
	case isSigned(k) || isUnsigned(k) && k != reflect.Uintptr:
		return IntMapping{Type: t}
	case k == reflect.Float32 || k == reflect.Float64:
		return FloatMapping{Type: t}
	case t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType):
		return nil
	case k == reflect.Struct || k == reflect.Map || k == reflect.Slice || k == reflect.Array:
		return s.JSON(t)
	}
	return nil
}

// MappingFor returns the mapping for the runtime type of v.
func (s *Source) MappingFor(v any) Mapping {
	if v == nil {
		return nil
	}
	return s.FindMapping(reflect.TypeOf(v))
}

// Literal renders v honoring the strict literal option.
func (s *Source) Literal(v any, m Mapping) (string, error) {
	return render(v, m, s, s.strict)
}
