// Package validate evaluates extracted validation rules against ontology
// nodes, producing a result record instead of raising on business failures.
// Failures local to one rule never abort the pass.
package validate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/internalerr"
	"github.com/cognicore/noema/pkg/noema/ontology"
	"github.com/cognicore/noema/pkg/noema/shacl"
)

// Finding is one classified validation outcome.
type Finding struct {
	RuleID  string `json:"rule_id"`
	Target  string `json:"target"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Result is the outcome of one validation pass. Valid is false exactly when
// Violations is non-empty.
type Result struct {
	Valid      bool           `json:"valid"`
	Violations []Finding      `json:"violations"`
	Warnings   []Finding      `json:"warnings"`
	Info       []Finding      `json:"info"`
	Statistics map[string]int `json:"statistics"`
}

// Validator evaluates a ruleset against ontology nodes. The validation level
// shifts severities: strict promotes warnings to violations, lenient demotes
// violations to warnings.
type Validator struct {
	rules   *shacl.Ruleset
	level   config.ValidationLevel
	timeout time.Duration
	log     *zap.Logger
}

// New creates a validator over an extracted ruleset. A nil logger disables
// logging.
func New(rules *shacl.Ruleset, level config.ValidationLevel, timeout time.Duration, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	if level == "" {
		level = config.LevelNormal
	}
	return &Validator{rules: rules, level: level, timeout: timeout, log: log}
}

// Validate runs every applicable rule against every class node of the
// ontology. Rule-local failures are downgraded to violation records; only a
// structurally invalid document returns an error.
func (v *Validator) Validate(ctx context.Context, ont *ontology.Ontology) (*Result, error) {
	if err := ont.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Valid:      true,
		Violations: []Finding{},
		Warnings:   []Finding{},
		Info:       []Finding{},
		Statistics: map[string]int{"total_rules": len(v.rules.Rules)},
	}

	checked := 0
	for _, class := range ont.Classes {
		for _, rule := range v.rules.ForTarget(class.URI) {
			checked++
			v.check(ctx, rule, class, res)
		}
	}

	res.Statistics["rules_checked"] = checked
	res.Statistics["violations"] = len(res.Violations)
	res.Statistics["warnings"] = len(res.Warnings)
	res.Statistics["info"] = len(res.Info)
	res.Valid = len(res.Violations) == 0

	v.log.Debug("validation pass complete",
		zap.Int("rules_checked", checked),
		zap.Int("violations", len(res.Violations)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// check evaluates one rule against one node. A panicking predicate is caught
// here and recorded as a violation carrying the panic message.
func (v *Validator) check(ctx context.Context, rule shacl.ValidationRule, class ontology.Class, res *Result) {
	defer func() {
		if r := recover(); r != nil {
			v.record(res, rule, class, fmt.Sprintf("%v: %v", internalerr.ErrRuleEvaluation, r), shacl.SeverityViolation)
		}
	}()

	if err := ctx.Err(); err != nil {
		// Coarse cancellation: the rule fails closed, the pass continues.
		v.record(res, rule, class, fmt.Sprintf("rule evaluation cancelled: %v", err), shacl.SeverityViolation)
		return
	}

	ok, detail := v.evaluate(ctx, rule, class)
	if ok {
		if detail != "" {
			res.Info = append(res.Info, Finding{
				RuleID: rule.ID, Target: rule.Target, Path: rule.Path,
				Message: rule.Message, Detail: detail,
			})
		}
		return
	}
	v.record(res, rule, class, detail, rule.Severity)
}

func (v *Validator) record(res *Result, rule shacl.ValidationRule, class ontology.Class, detail string, sev shacl.Severity) {
	switch v.level {
	case config.LevelStrict:
		if sev == shacl.SeverityWarning {
			sev = shacl.SeverityViolation
		}
	case config.LevelLenient:
		if sev == shacl.SeverityViolation {
			sev = shacl.SeverityWarning
		}
	}

	f := Finding{
		RuleID:  rule.ID,
		Target:  class.URI,
		Path:    rule.Path,
		Message: rule.Message,
		Detail:  detail,
	}
	switch sev {
	case shacl.SeverityViolation:
		res.Violations = append(res.Violations, f)
	case shacl.SeverityWarning:
		res.Warnings = append(res.Warnings, f)
	default:
		res.Info = append(res.Info, f)
	}
}
