// Package shacl turns declarative shape documents into a flat, ordered list
// of typed validation rules and indexes them by target class.
package shacl

// Kind classifies a validation rule by the constraint it enforces.
type Kind string

// Known constraint kinds. LogicalOr, QualifiedValue and Sparql are accepted
// from upstream documents but have no optimizer strategy; they stay on the
// interpretive path.
const (
	KindCardinality    Kind = "cardinality"
	KindDatatype       Kind = "datatype"
	KindPattern        Kind = "pattern"
	KindValueRange     Kind = "value_range"
	KindNodeKind       Kind = "node_kind"
	KindClosed         Kind = "closed"
	KindLogicalOr      Kind = "logical_or"
	KindPropertyPair   Kind = "property_pair"
	KindQualifiedValue Kind = "qualified_value"
	KindSparql         Kind = "sparql"
)

// Severity classifies a failed rule.
type Severity string

// Severity levels, strongest first.
const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
	SeverityInfo      Severity = "info"
)

// ValidationRule is one extracted constraint. Constraint holds the raw
// constraint keys the predicate needs (minCount, pattern, bounds, ...).
type ValidationRule struct {
	ID         string
	Kind       Kind
	Target     string
	Path       string
	Constraint map[string]any
	Severity   Severity
	Message    string
}

// Ruleset is the extraction result: rules in shape-then-property declaration
// order plus a target index into that order.
type Ruleset struct {
	Rules    []ValidationRule
	ByTarget map[string][]int
}

// ForTarget returns the rules targeting the given class, in extraction order.
func (rs *Ruleset) ForTarget(target string) []ValidationRule {
	out := make([]ValidationRule, 0, len(rs.ByTarget[target]))
	for _, i := range rs.ByTarget[target] {
		out = append(out, rs.Rules[i])
	}
	return out
}
