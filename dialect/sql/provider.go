package sql

import (
	"context"
	"errors"

	"github.com/syssam/veloxmysql"
	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/query"
	"github.com/syssam/veloxmysql/dialect/sql/sqlcmd"
	"github.com/syssam/veloxmysql/dialect/sql/sqlgen"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// ErrNoDriver is returned when a Provider without a driver is asked to run
// a query.
var ErrNoDriver = errors.New("dialect/sql: provider has no driver")

// Provider compiles query trees into commands for one server configuration
// and runs them on a driver. It is safe for concurrent use.
//
//	drv, _ := sql.Open(dsn, opts)
//	p, _ := sql.NewProvider(drv, opts)
//	rows := &sql.Rows{}
//	err := p.Query(ctx, tree, query.NewParameterBag(values), rows)
type Provider struct {
	opts      *dialect.Options
	types     *typemap.Source
	processor *query.Processor
	generator *sqlgen.Generator
	cache     *query.PlanCache[sqlcmd.Command]
	driver    CommandDriver
	prep      *sqlcmd.Preparer
}

// NewProvider returns a Provider running commands on drv. A nil drv
// returns a Provider that only compiles.
func NewProvider(drv CommandDriver, opts *dialect.Options) (*Provider, error) {
	if opts == nil {
		var err error
		if opts, err = dialect.NewOptions(); err != nil {
			return nil, err
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if drv != nil && drv.Dialect() != opts.ServerVersion.Type {
		return nil, veloxmysql.NewConfigError("ServerVersion", opts.ServerVersion.String(), "driver dialect is "+drv.Dialect())
	}
	cache, err := query.NewPlanCache[sqlcmd.Command](opts.PlanCacheSize)
	if err != nil {
		return nil, err
	}
	src := typemap.NewSource(opts)
	p := &Provider{
		opts:      opts,
		types:     src,
		processor: query.NewProcessor(opts, src),
		generator: sqlgen.New(opts, src),
		cache:     cache,
		driver:    drv,
		prep:      &sqlcmd.Preparer{Types: src, Logger: opts.Log()},
	}
	if drv != nil {
		p.prep = drv.Preparer()
	}
	return p, nil
}

// Options returns the provider options.
func (p *Provider) Options() *dialect.Options { return p.opts }

// Translator returns a new translator for building one query tree.
func (p *Provider) Translator() *query.Translator {
	return query.NewTranslator(p.opts, p.types)
}

// Compile returns the command for n with the values of bag. Plans whose
// generation did not inspect any parameter value are cached under the
// typed printed form of n and reused for later values.
func (p *Provider) Compile(n expr.Node, bag *query.ParameterBag) (sqlcmd.Command, error) {
	if bag == nil {
		bag = query.NewParameterBag(nil)
	}
	key := expr.PrintKey(n)
	if tmpl, ok := p.cache.Get(key); ok {
		return sqlgen.WithValues(tmpl, bag)
	}
	n, err := p.processor.Postprocess(n)
	if err != nil {
		return sqlcmd.Command{}, err
	}
	if n, err = p.processor.ProcessParameters(n, bag); err != nil {
		return sqlcmd.Command{}, err
	}
	tmpl, err := p.generator.Generate(n, nil)
	if err != nil {
		return sqlcmd.Command{}, err
	}
	p.cache.Set(key, tmpl, bag)
	return sqlgen.WithValues(tmpl, bag)
}

// Query compiles n and runs it, scanning the result into rows.
func (p *Provider) Query(ctx context.Context, n expr.Node, bag *query.ParameterBag, rows *Rows) error {
	return p.QueryOn(ctx, p.driver, n, bag, rows)
}

// Exec compiles n and executes it. v is nil or a *sql.Result.
func (p *Provider) Exec(ctx context.Context, n expr.Node, bag *query.ParameterBag, v any) error {
	return p.ExecOn(ctx, p.driver, n, bag, v)
}

// QueryOn is like Query but runs the command on ex, e.g. a transaction.
func (p *Provider) QueryOn(ctx context.Context, ex CommandExecQuerier, n expr.Node, bag *query.ParameterBag, rows *Rows) error {
	if ex == nil {
		return ErrNoDriver
	}
	cmd, err := p.Compile(n, bag)
	if err != nil {
		return err
	}
	return ex.QueryCommand(ctx, cmd, rows)
}

// ExecOn is like Exec but runs the command on ex, e.g. a transaction.
func (p *Provider) ExecOn(ctx context.Context, ex CommandExecQuerier, n expr.Node, bag *query.ParameterBag, v any) error {
	if ex == nil {
		return ErrNoDriver
	}
	cmd, err := p.Compile(n, bag)
	if err != nil {
		return err
	}
	return ex.ExecCommand(ctx, cmd, v)
}

// Debug returns the command for n in its "SET @p = <literal>;" form as
// it would be prepared for execution.
func (p *Provider) Debug(n expr.Node, bag *query.ParameterBag) (string, error) {
	cmd, err := p.Compile(n, bag)
	if err != nil {
		return "", err
	}
	if cmd, err = p.prep.Prepare(cmd); err != nil {
		return "", err
	}
	return p.prep.DebugString(cmd), nil
}

// CacheStats returns the plan cache counters.
func (p *Provider) CacheStats() query.CacheStats { return p.cache.Stats() }

// ClearCache removes all cached plans.
func (p *Provider) ClearCache() { p.cache.Clear() }
