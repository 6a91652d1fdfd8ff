package validate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/ontology"
	"github.com/cognicore/noema/pkg/noema/shacl"
)

func intPtr(v int) *int { return &v }

func nameShape() *ontology.Constraints {
	return &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{
					Path:     "name",
					MinCount: intPtr(1),
					MaxCount: intPtr(1),
					Datatype: "xsd:string",
				}},
			},
		}},
	}
}

func personWith(values map[string]any) *ontology.Ontology {
	return &ontology.Ontology{
		Classes: []ontology.Class{{URI: "ex:Person", Label: "Person", Values: values}},
	}
}

func newValidator(t *testing.T, cons *ontology.Constraints, level config.ValidationLevel) *Validator {
	t.Helper()
	rules, err := shacl.NewExtractor().Extract(cons)
	require.NoError(t, err)
	return New(rules, level, time.Second, nil)
}

func TestValidateConformingNode(t *testing.T) {
	v := newValidator(t, nameShape(), config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"name": "Alice"}))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Violations)
	assert.Equal(t, 2, res.Statistics["rules_checked"])
}

func TestValidateMissingRequiredProperty(t *testing.T) {
	v := newValidator(t, nameShape(), config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(nil))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0].Message, "minCount")
	assert.Equal(t, "ex:Person", res.Violations[0].Target)
}

func TestValidateDatatypeMismatch(t *testing.T) {
	v := newValidator(t, nameShape(), config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"name": 42}))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0].Message, "xsd:string")
}

func TestValidateUnknownDatatypePassesWithNote(t *testing.T) {
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{Path: "when", Datatype: "xsd:dateTime"}},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"when": "2024-01-01"}))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.Len(t, res.Info, 1)
	assert.Contains(t, res.Info[0].Detail, "unknown datatype")
}

func TestValidateMalformedPatternFailsClosed(t *testing.T) {
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{Path: "id", Pattern: "([unclosed"}},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"id": "anything"}))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0].Detail, "pattern compilation failed")
}

func TestValidatePatternFlags(t *testing.T) {
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{Path: "id", Pattern: "^cust_", Flags: "i"}},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"id": "CUST_7"}))
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateValueRangeBounds(t *testing.T) {
	minV, maxV := 0.0, 150.0
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{
					Path:         "age",
					MinInclusive: &minV,
					MaxInclusive: &maxV,
				}},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"age": 30}))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(context.Background(), personWith(map[string]any{"age": 200}))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Violations[0].Detail, "maxInclusive")
}

func TestValidateNodeKind(t *testing.T) {
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{Path: "homepage", NodeKind: "IRI"}},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"homepage": "https://example.org"}))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(context.Background(), personWith(map[string]any{"homepage": "not-a-url"}))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidateNodeKindLiteralRequiresValueField(t *testing.T) {
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Node: &ontology.NodeConstraint{NodeKind: "Literal"},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	// A node without any values carries no "value" field and is not a Literal.
	res, err := v.Validate(context.Background(), personWith(nil))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0].Detail, "Literal")

	res, err = v.Validate(context.Background(), personWith(map[string]any{"name": "Alice"}))
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = v.Validate(context.Background(), personWith(map[string]any{"value": "Alice"}))
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateNodeKindBlankNode(t *testing.T) {
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{Path: "ref", NodeKind: "BlankNode"}},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{"ref": "_:b0"}))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(context.Background(), personWith(map[string]any{"ref": "ex:Other"}))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidateClosedShape(t *testing.T) {
	closed := true
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{Path: "name", MinCount: intPtr(1)}},
				Node:       &ontology.NodeConstraint{Closed: &closed},
			},
		}},
	}
	v := newValidator(t, cons, config.LevelNormal)

	res, err := v.Validate(context.Background(), personWith(map[string]any{
		"name":     "Alice",
		"nickname": "Al",
	}))
	require.NoError(t, err)
	// Closed-shape failures are warnings by default.
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Detail, "nickname")
}

func TestValidationLevelShiftsSeverity(t *testing.T) {
	closed := true
	cons := &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{{Path: "name", MinCount: intPtr(1)}},
				Node:       &ontology.NodeConstraint{Closed: &closed},
			},
		}},
	}
	node := personWith(map[string]any{"nickname": "Al"})

	strict := newValidator(t, cons, config.LevelStrict)
	res, err := strict.Validate(context.Background(), node)
	require.NoError(t, err)
	assert.Len(t, res.Violations, 2) // missing name + closed warning promoted

	lenient := newValidator(t, cons, config.LevelLenient)
	res, err = lenient.Validate(context.Background(), node)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Len(t, res.Warnings, 2) // violation demoted alongside the warning
}

func TestValidateStatisticsAlwaysPresent(t *testing.T) {
	v := newValidator(t, nameShape(), config.LevelNormal)
	res, err := v.Validate(context.Background(), &ontology.Ontology{Classes: []ontology.Class{{URI: "ex:Other"}}})
	require.NoError(t, err)

	for _, key := range []string{"total_rules", "rules_checked", "violations", "warnings", "info"} {
		_, ok := res.Statistics[key]
		assert.True(t, ok, "missing statistic %s", key)
	}
}

func TestValidateRejectsMalformedOntology(t *testing.T) {
	v := newValidator(t, nameShape(), config.LevelNormal)
	_, err := v.Validate(context.Background(), &ontology.Ontology{Classes: []ontology.Class{{URI: ""}}})
	require.Error(t, err)
}
