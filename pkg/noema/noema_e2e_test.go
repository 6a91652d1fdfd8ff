package noema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/ontology"
)

func intPtr(v int) *int { return &v }

func fixtureOntology(values map[string]any) *ontology.Ontology {
	return &ontology.Ontology{
		Classes: []ontology.Class{{
			URI:           "ex:Person",
			Label:         "Person",
			ParentClasses: []string{"ex:Agent"},
			Eightfold:     &ontology.EightfoldMapping{Stage: "right_understanding"},
			Values:        values,
		}},
		Properties: []ontology.Property{{
			URI: "ex:name", Label: "name", Type: "datatype",
			Domain: "ex:Person", Range: "xsd:string",
		}},
		Rules: []ontology.Rule{{
			ID: "r1", Type: "subClassOf",
			Antecedent: []string{"ex:Person"},
			Consequent: "ex:Person subClassOf ex:Agent",
		}},
	}
}

func fixtureConstraints() *ontology.Constraints {
	return &ontology.Constraints{
		Shapes: []ontology.Shape{{
			Target: "ex:Person",
			Constraints: ontology.ShapeBody{
				Properties: []ontology.PropertyConstraint{
					{Path: "name", MinCount: intPtr(1), MaxCount: intPtr(1), Datatype: "xsd:string"},
					{Path: "id", Pattern: "^CUST_"},
				},
			},
		}},
	}
}

// TestEndToEnd walks the full pipeline:
// 1. Reasoning over an ontology with stage-tagged classes
// 2. Constraint extraction and validation
// 3. Constraint optimization and code emission
func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	n := New(Options{})

	// === Phase 1: Reasoning ===

	result, err := n.Reason(ctx, fixtureOntology(nil), fixtureConstraints())
	require.NoError(t, err)
	require.NotEmpty(t, result.Cycles)
	assert.Positive(t, result.TotalFactsDerived)
	assert.NotEmpty(t, result.Proofs)
	for _, cycle := range result.Cycles {
		assert.Len(t, cycle.EightfoldCoverage, 8)
	}

	// === Phase 2: Validation ===

	report, err := n.Validate(ctx, fixtureOntology(map[string]any{
		"name": "Alice",
		"id":   "CUST_12345",
	}), fixtureConstraints())
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Violations)
	assert.Equal(t, 3, report.Constraints.Total)

	report, err = n.Validate(ctx, fixtureOntology(map[string]any{
		"id": "XCUST_1",
	}), fixtureConstraints())
	require.NoError(t, err)
	assert.False(t, report.Valid)
	// Missing name and non-matching id.
	assert.Len(t, report.Violations, 2)

	// === Phase 3: Constraint compilation ===

	source, optimized, err := n.CompileConstraints(fixtureConstraints())
	require.NoError(t, err)
	require.Len(t, optimized, 3)
	for _, oc := range optimized {
		assert.Contains(t, source, "validate_"+oc.Original.ID)
	}
	assert.Contains(t, source, "validation_outcome_t validate_all(const node_t *node)")
}

func TestValidateReportFormats(t *testing.T) {
	ctx := context.Background()
	ont := fixtureOntology(nil) // missing name: one violation

	detailed, err := New(Options{}).Validate(ctx, ont, fixtureConstraints())
	require.NoError(t, err)
	assert.NotEmpty(t, detailed.Violations)
	assert.NotNil(t, detailed.OptimizationSummary)
	assert.Positive(t, detailed.OptimizationSummary.TotalCost)

	summaryCfg := config.Default()
	summaryCfg.ReportFormat = config.ReportSummary
	summary, err := New(Options{Config: summaryCfg}).Validate(ctx, ont, fixtureConstraints())
	require.NoError(t, err)
	assert.False(t, summary.Valid)
	assert.Empty(t, summary.Violations)
	assert.Equal(t, 1, summary.Statistics["violations"])

	minimalCfg := config.Default()
	minimalCfg.ReportFormat = config.ReportMinimal
	minimal, err := New(Options{Config: minimalCfg}).Validate(ctx, ont, fixtureConstraints())
	require.NoError(t, err)
	assert.False(t, minimal.Valid)
	assert.Empty(t, minimal.Violations)
	assert.Equal(t, map[string]int{"violations": 1}, minimal.Statistics)
	assert.False(t, minimal.Timestamp.IsZero())
}

func TestValidateWithoutOptimization(t *testing.T) {
	cfg := config.Default()
	cfg.ConstraintOptimization = false

	report, err := New(Options{Config: cfg}).Validate(context.Background(), fixtureOntology(nil), fixtureConstraints())
	require.NoError(t, err)
	assert.Nil(t, report.OptimizationSummary)
	assert.Equal(t, 0, report.Constraints.Optimized)
}

func TestReasonAndValidateShareNoState(t *testing.T) {
	// The reasoning and validation paths are purely functional over their
	// inputs; interleaving them must not change results.
	ctx := context.Background()
	n := New(Options{})

	first, err := n.Validate(ctx, fixtureOntology(map[string]any{"name": "Alice", "id": "CUST_1"}), fixtureConstraints())
	require.NoError(t, err)

	_, err = n.Reason(ctx, fixtureOntology(nil), fixtureConstraints())
	require.NoError(t, err)

	second, err := n.Validate(ctx, fixtureOntology(map[string]any{"name": "Alice", "id": "CUST_1"}), fixtureConstraints())
	require.NoError(t, err)
	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, first.Constraints, second.Constraints)
}
