package query

import (
	"log/slog"

	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/expr"
	"github.com/syssam/veloxmysql/dialect/sql/typemap"
)

// Processor runs the MySQL rewrite passes over translated trees.
type Processor struct {
	opts *dialect.Options
	src  *typemap.Source
}

// NewProcessor returns a Processor for the given options.
func NewProcessor(opts *dialect.Options, src *typemap.Source) *Processor {
	if opts == nil {
		opts, _ = dialect.NewOptions()
	}
	if src == nil {
		src = typemap.NewSource(opts)
	}
	return &Processor{opts: opts, src: src}
}

// Postprocess runs the passes that do not depend on parameter values. It
// runs once per translated query, before the plan is cached.
func (p *Processor) Postprocess(n expr.Node) (expr.Node, error) {
	return JSONOrderingPostprocessor{JSON: p.src.JSON(nil)}.Process(n)
}

// ProcessParameters runs the passes that may inspect parameter values:
// zero LIMIT collapsing, boolean column optimization, parameter inlining
// and the compatibility checks, in that order.
func (p *Processor) ProcessParameters(n expr.Node, bag *ParameterBag) (expr.Node, error) {
	var err error
	supports := p.opts.Supports()
	if supports.Limit0Offset0ExistsWorkaround {
		if n, err = (SkipTakeCollapser{}).Process(n, bag); err != nil {
			return nil, err
		}
	}
	if p.opts.IndexOptimizedBooleanColumns {
		if n, err = (BoolOptimizer{}).Process(n); err != nil {
			return nil, err
		}
	}
	inliner := &Inliner{Logger: p.opts.Log()}
	if n, err = inliner.Process(n, bag); err != nil {
		return nil, err
	}
	if err := (CompatibilityChecker{ServerVersion: p.opts.ServerVersion}).Check(n); err != nil {
		return nil, err
	}
	if bag.CachingDisabled() {
		p.logger().Debug("veloxmysql: plan depends on parameter values", "parameters", bag.Len())
	}
	return n, nil
}

func (p *Processor) logger() *slog.Logger { return p.opts.Log() }
