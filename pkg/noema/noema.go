// Package noema ties the reasoning engine, constraint validator and
// constraint compiler into one facade. The three paths share no mutable
// state and may run concurrently.
package noema

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/noema/pkg/noema/codegen"
	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/ontology"
	"github.com/cognicore/noema/pkg/noema/reason"
	"github.com/cognicore/noema/pkg/noema/shacl"
	"github.com/cognicore/noema/pkg/noema/validate"
)

// Options configures a Noema instance.
type Options struct {
	// Config tunes the engine, validator and compiler. The zero value is
	// replaced by config.Default().
	Config config.Config

	// Logger receives engine observations. Nil disables logging.
	Logger *zap.Logger
}

// Noema is the subsystem facade.
type Noema struct {
	cfg    config.Config
	log    *zap.Logger
	engine *reason.Engine
}

// New creates a Noema instance with the given options.
func New(opts Options) *Noema {
	cfg := opts.Config
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Noema{
		cfg:    cfg,
		log:    log,
		engine: reason.New(cfg, log),
	}
}

// Reason runs the eightfold reasoning cycles over the ontology and
// constraint documents. TimeoutSeconds, when set, bounds the whole run.
func (n *Noema) Reason(ctx context.Context, ont *ontology.Ontology, cons *ontology.Constraints) (*reason.Result, error) {
	if n.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(n.cfg.TimeoutSeconds*float64(time.Second)))
		defer cancel()
	}
	return n.engine.Reason(ctx, ont, cons)
}

// Validate extracts the constraint document's rules, evaluates them against
// the ontology, and assembles a report at the configured detail level.
func (n *Noema) Validate(ctx context.Context, ont *ontology.Ontology, cons *ontology.Constraints) (*ValidationReport, error) {
	rules, err := shacl.NewExtractor().Extract(cons)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(n.cfg.TimeoutSeconds * float64(time.Second))
	validator := validate.New(rules, n.cfg.ValidationLevel, timeout, n.log)
	result, err := validator.Validate(ctx, ont)
	if err != nil {
		return nil, err
	}

	var optimized []codegen.OptimizedConstraint
	if n.cfg.ConstraintOptimization {
		optimized = codegen.NewOptimizer(n.cfg, n.log).Optimize(rules.Rules)
	}
	return buildReport(n.cfg.ReportFormat, result, rules, optimized), nil
}

// CompileConstraints extracts and optimizes the constraint document's rules
// and emits the generated compilation unit.
func (n *Noema) CompileConstraints(cons *ontology.Constraints) (string, []codegen.OptimizedConstraint, error) {
	rules, err := shacl.NewExtractor().Extract(cons)
	if err != nil {
		return "", nil, err
	}
	optimized := codegen.NewOptimizer(n.cfg, n.log).Optimize(rules.Rules)
	source := codegen.NewEmitter().Emit(optimized)
	n.log.Debug("constraints compiled",
		zap.Int("rules", len(rules.Rules)),
		zap.Int("optimized", len(optimized)))
	return source, optimized, nil
}
