package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/shacl"
)

func emitFixture(t *testing.T, mutate func(*config.Config)) (string, []OptimizedConstraint) {
	t.Helper()
	rules := []shacl.ValidationRule{
		{
			ID: "rule_0", Kind: shacl.KindCardinality, Target: "ex:Person", Path: "name",
			Constraint: map[string]any{"minCount": 1},
			Severity:   shacl.SeverityViolation, Message: "name is required",
		},
		{
			ID: "rule_1", Kind: shacl.KindPattern, Target: "ex:Person", Path: "id",
			Constraint: map[string]any{"pattern": "^CUST_"},
			Severity:   shacl.SeverityWarning, Message: "id should start with CUST_",
		},
	}
	optimized := newOpt(mutate).Optimize(rules)
	require.Len(t, optimized, 2)
	return NewEmitter().Emit(optimized), optimized
}

func TestEmitFunctionPerConstraint(t *testing.T) {
	source, optimized := emitFixture(t, nil)

	for _, oc := range optimized {
		assert.Contains(t, source, "bool validate_"+oc.Original.ID+"(const node_t *node)")
	}
}

func TestEmitForwardDeclarations(t *testing.T) {
	source, _ := emitFixture(t, nil)

	for _, decl := range []string{
		"bool noema_check_string(const node_t *node, const char *path);",
		"bool noema_node_is_iri(const node_t *node);",
		"void *noema_regex_compile(const char *pattern);",
		"int noema_count_values(const node_t *node, const char *path);",
	} {
		assert.Contains(t, source, decl)
	}
}

func TestEmitMasterDispatcher(t *testing.T) {
	source, _ := emitFixture(t, nil)

	assert.Contains(t, source, "validation_outcome_t validate_all(const node_t *node)")
	assert.Contains(t, source, "if (!validate_rule_0(node))")
	assert.Contains(t, source, "if (!validate_rule_1(node))")
	// Violations flip valid; warnings only count.
	assert.Contains(t, source, "outcome.violation_count++;")
	assert.Contains(t, source, "outcome.warning_count++;")
	assert.Contains(t, source, `outcome.messages[msg++] = "name is required";`)
	assert.Equal(t, 1, strings.Count(source, "outcome.valid = false;"))
}

func TestEmitOutcomeRecordLayout(t *testing.T) {
	source, _ := emitFixture(t, nil)

	for _, field := range []string{"bool valid;", "int violation_count;", "int warning_count;", "const char *messages[MAX_MESSAGES];"} {
		assert.Contains(t, source, field)
	}
}

func TestEmitTypeTableOnlyWhenUsed(t *testing.T) {
	source, _ := emitFixture(t, nil)
	assert.NotContains(t, source, "noema_type_checks[]")

	rules := []shacl.ValidationRule{{
		ID: "rule_0", Kind: shacl.KindDatatype, Target: "ex:Person", Path: "name",
		Constraint: map[string]any{"datatype": "xsd:string"},
	}}
	optimized := newOpt(func(c *config.Config) { c.UseLookupTables = true }).Optimize(rules)
	source = NewEmitter().Emit(optimized)
	assert.Contains(t, source, "static const noema_check_fn noema_type_checks[]")
	assert.Contains(t, source, "NOEMA_TYPE_STRING = 0,")
}

func TestEmitEscapesMessages(t *testing.T) {
	rules := []shacl.ValidationRule{{
		ID: "rule_0", Kind: shacl.KindCardinality, Target: "ex:Person", Path: "name",
		Constraint: map[string]any{"minCount": 1},
		Severity:   shacl.SeverityViolation, Message: `say "hello"`,
	}}
	optimized := newOpt(nil).Optimize(rules)
	source := NewEmitter().Emit(optimized)
	assert.Contains(t, source, `"say \"hello\""`)
}
