package shacl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/noema/pkg/noema/ontology"
)

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool       { return &v }

func personConstraints() *ontology.Constraints {
	return &ontology.Constraints{
		Shapes: []ontology.Shape{
			{
				Target: "ex:Person",
				Constraints: ontology.ShapeBody{
					Properties: []ontology.PropertyConstraint{
						{
							Path:     "name",
							MinCount: intPtr(1),
							MaxCount: intPtr(1),
							Datatype: "xsd:string",
						},
						{
							Path:    "id",
							Pattern: "^CUST_",
						},
						{
							Path:         "age",
							MinInclusive: floatPtr(0),
							MaxInclusive: floatPtr(150),
						},
						{
							Path:     "homepage",
							NodeKind: "IRI",
						},
					},
					Node: &ontology.NodeConstraint{
						Closed:            boolPtr(true),
						IgnoredProperties: []string{"rdf:type"},
					},
				},
			},
		},
		Rules: []ontology.ConstraintRule{
			{Property: "name", Domain: "ex:Person", Range: "xsd:string"},
		},
	}
}

func TestExtractOneRulePerConstraintKey(t *testing.T) {
	rs, err := NewExtractor().Extract(personConstraints())
	require.NoError(t, err)

	// cardinality, datatype, pattern, value range, node kind, closed,
	// property pair: one rule per present constraint group.
	require.Len(t, rs.Rules, 7)
	kinds := make([]Kind, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []Kind{
		KindCardinality, KindDatatype, KindPattern, KindValueRange,
		KindNodeKind, KindClosed, KindPropertyPair,
	}, kinds)
}

func TestExtractIdsAreMonotonicAndStable(t *testing.T) {
	first, err := NewExtractor().Extract(personConstraints())
	require.NoError(t, err)
	second, err := NewExtractor().Extract(personConstraints())
	require.NoError(t, err)

	require.Equal(t, len(first.Rules), len(second.Rules))
	for i := range first.Rules {
		assert.Equal(t, first.Rules[i].ID, second.Rules[i].ID)
		assert.Equal(t, first.Rules[i].Kind, second.Rules[i].Kind)
	}
	assert.Equal(t, "rule_0", first.Rules[0].ID)
	assert.Equal(t, "rule_6", first.Rules[6].ID)
}

func TestExtractTargetIndex(t *testing.T) {
	rs, err := NewExtractor().Extract(personConstraints())
	require.NoError(t, err)

	forPerson := rs.ForTarget("ex:Person")
	assert.Len(t, forPerson, 7)
	assert.Empty(t, rs.ForTarget("ex:Unknown"))
}

func TestExtractCardinalityConstraintValues(t *testing.T) {
	rs, err := NewExtractor().Extract(personConstraints())
	require.NoError(t, err)

	card := rs.Rules[0]
	assert.Equal(t, KindCardinality, card.Kind)
	assert.Equal(t, 1, card.Constraint["minCount"])
	assert.Equal(t, 1, card.Constraint["maxCount"])
	assert.Equal(t, SeverityViolation, card.Severity)
	assert.Contains(t, card.Message, "minCount")
}

func TestExtractClosedCarriesDeclaredProperties(t *testing.T) {
	rs, err := NewExtractor().Extract(personConstraints())
	require.NoError(t, err)

	var closed *ValidationRule
	for i := range rs.Rules {
		if rs.Rules[i].Kind == KindClosed {
			closed = &rs.Rules[i]
		}
	}
	require.NotNil(t, closed)
	assert.Equal(t, SeverityWarning, closed.Severity)
	assert.ElementsMatch(t, []string{"name", "id", "age", "homepage"},
		closed.Constraint["declaredProperties"])
	assert.ElementsMatch(t, []string{"rdf:type"}, closed.Constraint["ignoredProperties"])
}

func TestExtractPropertyPairFromStandaloneRule(t *testing.T) {
	rs, err := NewExtractor().Extract(&ontology.Constraints{
		Rules: []ontology.ConstraintRule{{Property: "email", Domain: "ex:Contact"}},
	})
	require.NoError(t, err)

	require.Len(t, rs.Rules, 1)
	rule := rs.Rules[0]
	assert.Equal(t, KindPropertyPair, rule.Kind)
	assert.Equal(t, "ex:Contact", rule.Target)
	assert.Equal(t, "email", rule.Path)
}

func TestExtractRejectsMalformedDocument(t *testing.T) {
	_, err := NewExtractor().Extract(&ontology.Constraints{
		Shapes: []ontology.Shape{{Target: ""}},
	})
	require.Error(t, err)
}
