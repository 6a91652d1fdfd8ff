package shacl

import (
	"fmt"

	"github.com/cognicore/noema/pkg/noema/ontology"
)

// Extractor walks a constraint document and emits validation rules. Rule ids
// are monotonically increasing "rule_N" strings, so re-extracting the same
// document yields identical ids in identical order.
type Extractor struct {
	next int
}

// NewExtractor creates an extractor with its id counter at zero.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract emits one rule per constraint key present on each shape, in
// shape-then-property declaration order, followed by the standalone
// property-pair rules.
func (e *Extractor) Extract(cons *ontology.Constraints) (*Ruleset, error) {
	if err := cons.Validate(); err != nil {
		return nil, err
	}

	rs := &Ruleset{ByTarget: make(map[string][]int)}
	for _, shape := range cons.Shapes {
		for _, pc := range shape.Constraints.Properties {
			e.extractProperty(rs, shape.Target, pc)
		}
		if shape.Constraints.Node != nil {
			declared := make([]string, 0, len(shape.Constraints.Properties))
			for _, pc := range shape.Constraints.Properties {
				declared = append(declared, pc.Path)
			}
			e.extractNode(rs, shape.Target, *shape.Constraints.Node, declared)
		}
	}
	for _, rule := range cons.Rules {
		constraint := map[string]any{
			"property": rule.Property,
			"domain":   rule.Domain,
		}
		if rule.Range != "" {
			constraint["range"] = rule.Range
		}
		e.add(rs, ValidationRule{
			Kind:       KindPropertyPair,
			Target:     rule.Domain,
			Path:       rule.Property,
			Constraint: constraint,
			Severity:   SeverityViolation,
			Message:    fmt.Sprintf("property %s must appear on %s", rule.Property, rule.Domain),
		})
	}
	return rs, nil
}

func (e *Extractor) extractProperty(rs *Ruleset, target string, pc ontology.PropertyConstraint) {
	if pc.MinCount != nil || pc.MaxCount != nil {
		constraint := map[string]any{}
		if pc.MinCount != nil {
			constraint["minCount"] = *pc.MinCount
		}
		if pc.MaxCount != nil {
			constraint["maxCount"] = *pc.MaxCount
		}
		e.add(rs, ValidationRule{
			Kind:       KindCardinality,
			Target:     target,
			Path:       pc.Path,
			Constraint: constraint,
			Severity:   SeverityViolation,
			Message:    cardinalityMessage(pc),
		})
	}
	if pc.Datatype != "" {
		e.add(rs, ValidationRule{
			Kind:       KindDatatype,
			Target:     target,
			Path:       pc.Path,
			Constraint: map[string]any{"datatype": pc.Datatype},
			Severity:   SeverityViolation,
			Message:    fmt.Sprintf("%s must have datatype %s", pc.Path, pc.Datatype),
		})
	}
	if pc.Pattern != "" {
		constraint := map[string]any{"pattern": pc.Pattern}
		if pc.Flags != "" {
			constraint["flags"] = pc.Flags
		}
		e.add(rs, ValidationRule{
			Kind:       KindPattern,
			Target:     target,
			Path:       pc.Path,
			Constraint: constraint,
			Severity:   SeverityViolation,
			Message:    fmt.Sprintf("%s must match pattern %s", pc.Path, pc.Pattern),
		})
	}
	if pc.MinInclusive != nil || pc.MaxInclusive != nil || pc.MinExclusive != nil || pc.MaxExclusive != nil {
		constraint := map[string]any{}
		if pc.MinInclusive != nil {
			constraint["minInclusive"] = *pc.MinInclusive
		}
		if pc.MaxInclusive != nil {
			constraint["maxInclusive"] = *pc.MaxInclusive
		}
		if pc.MinExclusive != nil {
			constraint["minExclusive"] = *pc.MinExclusive
		}
		if pc.MaxExclusive != nil {
			constraint["maxExclusive"] = *pc.MaxExclusive
		}
		e.add(rs, ValidationRule{
			Kind:       KindValueRange,
			Target:     target,
			Path:       pc.Path,
			Constraint: constraint,
			Severity:   SeverityViolation,
			Message:    fmt.Sprintf("%s out of range", pc.Path),
		})
	}
	if pc.NodeKind != "" {
		e.add(rs, ValidationRule{
			Kind:       KindNodeKind,
			Target:     target,
			Path:       pc.Path,
			Constraint: map[string]any{"nodeKind": pc.NodeKind},
			Severity:   SeverityViolation,
			Message:    fmt.Sprintf("%s must be a %s", pc.Path, pc.NodeKind),
		})
	}
}

func (e *Extractor) extractNode(rs *Ruleset, target string, nc ontology.NodeConstraint, declared []string) {
	if nc.Closed != nil {
		constraint := map[string]any{"closed": *nc.Closed}
		if len(nc.IgnoredProperties) > 0 {
			constraint["ignoredProperties"] = append([]string(nil), nc.IgnoredProperties...)
		}
		if len(declared) > 0 {
			constraint["declaredProperties"] = declared
		}
		e.add(rs, ValidationRule{
			Kind:       KindClosed,
			Target:     target,
			Constraint: constraint,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("%s is closed to undeclared properties", target),
		})
	}
	if nc.NodeKind != "" {
		e.add(rs, ValidationRule{
			Kind:       KindNodeKind,
			Target:     target,
			Constraint: map[string]any{"nodeKind": nc.NodeKind},
			Severity:   SeverityViolation,
			Message:    fmt.Sprintf("%s must be a %s", target, nc.NodeKind),
		})
	}
}

func (e *Extractor) add(rs *Ruleset, rule ValidationRule) {
	rule.ID = fmt.Sprintf("rule_%d", e.next)
	e.next++
	rs.ByTarget[rule.Target] = append(rs.ByTarget[rule.Target], len(rs.Rules))
	rs.Rules = append(rs.Rules, rule)
}

func cardinalityMessage(pc ontology.PropertyConstraint) string {
	switch {
	case pc.MinCount != nil && pc.MaxCount != nil:
		return fmt.Sprintf("%s requires between %d and %d values (minCount/maxCount)", pc.Path, *pc.MinCount, *pc.MaxCount)
	case pc.MinCount != nil:
		return fmt.Sprintf("%s requires at least %d values (minCount)", pc.Path, *pc.MinCount)
	default:
		return fmt.Sprintf("%s allows at most %d values (maxCount)", pc.Path, *pc.MaxCount)
	}
}
