package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactIndexing(t *testing.T) {
	k := New()
	k.AddFact(Fact{Kind: "class", URI: "ex:Person", Label: "Person"})
	k.AddFact(Fact{Kind: "class", URI: "ex:Agent", Label: "Agent"})
	k.AddFact(Fact{Kind: "property", URI: "ex:name", Label: "name", Stage: StageSpeech})

	classes, err := k.FactsByKind("class")
	require.NoError(t, err)
	assert.Len(t, classes, 2)

	byURI, err := k.FactsByURI("ex:Person")
	require.NoError(t, err)
	require.Len(t, byURI, 1)
	assert.Equal(t, "Person", byURI[0].Label)

	tagged, err := k.FactsByStage(StageSpeech)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "ex:name", tagged[0].URI)

	none, err := k.FactsByKind("axiom")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRuleIndexing(t *testing.T) {
	k := New()
	k.AddRule(Rule{ID: "r1", Kind: "subClassOf", Stage: StageUnderstanding, Confidence: 0.9})
	k.AddRule(Rule{ID: "r2", Kind: "inference", Stage: StageThought, Confidence: 0.7})

	byStage, err := k.RulesByStage(StageUnderstanding)
	require.NoError(t, err)
	require.Len(t, byStage, 1)
	assert.Equal(t, "r1", byStage[0].ID)

	byKind, err := k.RulesByKind("inference")
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, "r2", byKind[0].ID)
}

func TestAddDerivedBatch(t *testing.T) {
	k := New()
	k.AddFact(Fact{Kind: "class", URI: "ex:Person"})

	k.AddDerived([]Fact{
		{Kind: "subClassOf", URI: "ex:Person#subClassOf#ex:Agent"},
		{Kind: "inferred", URI: "ex:Mortal"},
	})

	assert.Equal(t, 3, k.FactCount())
	derived := k.DerivedFacts()
	require.Len(t, derived, 2)
	for _, f := range derived {
		assert.True(t, f.Derived)
	}

	// Derived facts are indexed like base facts.
	sub, err := k.FactsByKind("subClassOf")
	require.NoError(t, err)
	assert.Len(t, sub, 1)
}

func TestAxioms(t *testing.T) {
	k := New()
	k.AddAxiom(Axiom{Kind: "shape", Target: "ex:Person", Constraints: map[string]any{"closed": true}})
	axioms := k.Axioms()
	require.Len(t, axioms, 1)
	assert.Equal(t, "ex:Person", axioms[0].Target)
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "right_understanding", StageUnderstanding.String())
	assert.Equal(t, "right_concentration", StageConcentration.String())
	assert.Equal(t, StageAction, ParseStage("right_action"))
	assert.Equal(t, StageNone, ParseStage("nonsense"))
	assert.Len(t, Stages, 8)
}
