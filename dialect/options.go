package dialect

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/syssam/veloxmysql"
)

// DefaultPlanCacheSize is the number of compiled plans kept by default.
const DefaultPlanCacheSize = 512

// Options configures the MySQL provider.
type Options struct {
	// ServerVersion is the server family and version SQL is generated for.
	ServerVersion ServerVersion
	// NoBackslashEscapes must be set when the server runs with the
	// NO_BACKSLASH_ESCAPES SQL mode. String literals then only escape quotes.
	NoBackslashEscapes bool
	// ReplaceLineBreaksWithCharFunction renders line breaks in string
	// literals as CHAR(10)/CHAR(13) so the generated SQL stays on one line.
	ReplaceLineBreaksWithCharFunction bool
	// IndexOptimizedBooleanColumns rewrites boolean column predicates into
	// comparisons so that indexes on those columns can be used.
	IndexOptimizedBooleanColumns bool
	// PrimitiveCollections enables translating JSON arrays of scalars into
	// JSON_TABLE() queries.
	PrimitiveCollections bool
	// JSONTableParameterSkip refuses JSON_TABLE() over parameters on servers
	// where that construct can crash the engine.
	JSONTableParameterSkip bool
	// StrictLiterals fails literal rendering of values without a type
	// mapping instead of falling back to their default string form.
	StrictLiterals bool
	// PlanCacheSize is the number of compiled plans kept. Zero disables
	// plan caching.
	PlanCacheSize int
	// LogParameterValues makes the debug driver log parameter values.
	LogParameterValues bool
	// Logger receives debug records. Nil means slog.Default().
	Logger *slog.Logger
}

// Option configures Options.
type Option func(*Options) error

// NewOptions returns the default options with the given options applied.
func NewOptions(opts ...Option) (*Options, error) {
	o := &Options{
		ServerVersion:                     MustParseServerVersion(DefaultServerVersion),
		ReplaceLineBreaksWithCharFunction: true,
		PrimitiveCollections:              true,
		PlanCacheSize:                     DefaultPlanCacheSize,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate checks the options for consistency.
func (o *Options) Validate() error {
	if o.ServerVersion.Version == "" {
		return veloxmysql.NewConfigError("ServerVersion", nil, "server version is required")
	}
	if o.ServerVersion.Type != MySQL && o.ServerVersion.Type != MariaDB {
		return veloxmysql.NewConfigError("ServerVersion", o.ServerVersion.Type, "unsupported server type")
	}
	if o.PlanCacheSize < 0 {
		return veloxmysql.NewConfigError("PlanCacheSize", o.PlanCacheSize, "must not be negative")
	}
	return nil
}

// Supports returns the capability matrix of the configured server.
func (o *Options) Supports() Supports {
	return o.ServerVersion.Supports()
}

// Log returns the configured logger.
func (o *Options) Log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// WithServerVersion sets the server version from its string form.
func WithServerVersion(version string) Option {
	return func(o *Options) error {
		sv, err := ParseServerVersion(version)
		if err != nil {
			return err
		}
		o.ServerVersion = sv
		return nil
	}
}

// WithNoBackslashEscapes sets Options.NoBackslashEscapes.
func WithNoBackslashEscapes(enable bool) Option {
	return func(o *Options) error {
		o.NoBackslashEscapes = enable
		return nil
	}
}

// WithReplaceLineBreaksWithCharFunction sets Options.ReplaceLineBreaksWithCharFunction.
func WithReplaceLineBreaksWithCharFunction(enable bool) Option {
	return func(o *Options) error {
		o.ReplaceLineBreaksWithCharFunction = enable
		return nil
	}
}

// WithIndexOptimizedBooleanColumns sets Options.IndexOptimizedBooleanColumns.
func WithIndexOptimizedBooleanColumns(enable bool) Option {
	return func(o *Options) error {
		o.IndexOptimizedBooleanColumns = enable
		return nil
	}
}

// WithPrimitiveCollections sets Options.PrimitiveCollections.
func WithPrimitiveCollections(enable bool) Option {
	return func(o *Options) error {
		o.PrimitiveCollections = enable
		return nil
	}
}

// WithJSONTableParameterSkip sets Options.JSONTableParameterSkip.
func WithJSONTableParameterSkip(enable bool) Option {
	return func(o *Options) error {
		o.JSONTableParameterSkip = enable
		return nil
	}
}

// WithStrictLiterals sets Options.StrictLiterals.
func WithStrictLiterals(enable bool) Option {
	return func(o *Options) error {
		o.StrictLiterals = enable
		return nil
	}
}

// WithPlanCacheSize sets the number of cached plans.
func WithPlanCacheSize(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return veloxmysql.NewConfigError("PlanCacheSize", n, "must not be negative")
		}
		o.PlanCacheSize = n
		return nil
	}
}

// WithLogParameterValues sets Options.LogParameterValues.
func WithLogParameterValues(enable bool) Option {
	return func(o *Options) error {
		o.LogParameterValues = enable
		return nil
	}
}

// WithLogger sets the logger used for debug records.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) error {
		if l == nil {
			return veloxmysql.NewConfigError("Logger", nil, "logger cannot be nil")
		}
		o.Logger = l
		return nil
	}
}

// file is the YAML representation of Options. Pointer fields distinguish
// absent keys from zero values.
type file struct {
	ServerVersion                     string `yaml:"server_version"`
	NoBackslashEscapes                *bool  `yaml:"no_backslash_escapes"`
	ReplaceLineBreaksWithCharFunction *bool  `yaml:"replace_line_breaks_with_char_function"`
	IndexOptimizedBooleanColumns      *bool  `yaml:"index_optimized_boolean_columns"`
	PrimitiveCollections              *bool  `yaml:"primitive_collections"`
	JSONTableParameterSkip            *bool  `yaml:"json_table_parameter_skip"`
	StrictLiterals                    *bool  `yaml:"strict_literals"`
	PlanCacheSize                     *int   `yaml:"plan_cache_size"`
	LogParameterValues                *bool  `yaml:"log_parameter_values"`
}

// LoadOptions reads options from a YAML document. Options passed explicitly
// are applied after the document and take precedence.
func LoadOptions(r io.Reader, opts ...Option) (*Options, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dialect: decode options: %w", err)
	}
	var fromFile []Option
	if f.ServerVersion != "" {
		fromFile = append(fromFile, WithServerVersion(f.ServerVersion))
	}
	for _, b := range []struct {
		v   *bool
		opt func(bool) Option
	}{
		{f.NoBackslashEscapes, WithNoBackslashEscapes},
		{f.ReplaceLineBreaksWithCharFunction, WithReplaceLineBreaksWithCharFunction},
		{f.IndexOptimizedBooleanColumns, WithIndexOptimizedBooleanColumns},
		{f.PrimitiveCollections, WithPrimitiveCollections},
		{f.JSONTableParameterSkip, WithJSONTableParameterSkip},
		{f.StrictLiterals, WithStrictLiterals},
		{f.LogParameterValues, WithLogParameterValues},
	} {
		if b.v != nil {
			fromFile = append(fromFile, b.opt(*b.v))
		}
	}
	if f.PlanCacheSize != nil {
		fromFile = append(fromFile, WithPlanCacheSize(*f.PlanCacheSize))
	}
	return NewOptions(append(fromFile, opts...)...)
}
