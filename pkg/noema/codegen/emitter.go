package codegen

import (
	"fmt"
	"strings"

	"github.com/cognicore/noema/pkg/noema/shacl"
)

// helperDecls are the fixed native routines every compilation unit forward
// declares. Their implementations ship with the runtime support library.
var helperDecls = []string{
	"bool noema_has_value(const node_t *node, const char *path);",
	"int noema_count_values(const node_t *node, const char *path);",
	"const char *noema_value(const node_t *node, const char *path);",
	"double noema_number(const node_t *node, const char *path);",
	"bool noema_check_string(const node_t *node, const char *path);",
	"bool noema_check_integer(const node_t *node, const char *path);",
	"bool noema_check_boolean(const node_t *node, const char *path);",
	"bool noema_check_float(const node_t *node, const char *path);",
	"bool noema_check_double(const node_t *node, const char *path);",
	"bool noema_check_default(const node_t *node, const char *path);",
	"bool noema_node_is_iri(const node_t *node);",
	"bool noema_node_is_blank(const node_t *node);",
	"bool noema_node_is_literal(const node_t *node);",
	"bool noema_str_suffix(const char *value, const char *suffix);",
	"void *noema_regex_compile(const char *pattern);",
	"bool noema_regex_match(void *handle, const char *value);",
}

// Emitter assembles optimized constraints into one compilation unit. It is
// a read-only consumer of the optimizer's output.
type Emitter struct{}

// NewEmitter creates an emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit renders the full compilation unit: prelude and typedefs, helper
// forward declarations, one validate_<rule_id> function per constraint, and
// the validate_all master dispatcher. The naming contract is load-bearing
// for downstream linkage.
func (e *Emitter) Emit(optimized []OptimizedConstraint) string {
	var b strings.Builder

	b.WriteString("/* Generated validation routines. Do not edit. */\n")
	b.WriteString("#include <stdbool.h>\n")
	b.WriteString("#include <stddef.h>\n")
	b.WriteString("#include <string.h>\n\n")

	b.WriteString("#define MAX_MESSAGES 64\n\n")
	b.WriteString("typedef struct node node_t;\n\n")
	b.WriteString("typedef struct {\n")
	b.WriteString("    bool valid;\n")
	b.WriteString("    int violation_count;\n")
	b.WriteString("    int warning_count;\n")
	b.WriteString("    const char *messages[MAX_MESSAGES];\n")
	b.WriteString("} validation_outcome_t;\n\n")

	for _, decl := range helperDecls {
		b.WriteString(decl)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if usesTypeTable(optimized) {
		e.emitTypeTable(&b)
	}

	for _, oc := range optimized {
		b.WriteString(oc.Code)
		b.WriteString("\n")
	}

	e.emitDispatcher(&b, optimized)
	return b.String()
}

// emitTypeTable renders the datatype dispatch table used by lookup-table
// constraints.
func (e *Emitter) emitTypeTable(b *strings.Builder) {
	b.WriteString("typedef bool (*noema_check_fn)(const node_t *, const char *);\n\n")
	b.WriteString("enum {\n")
	b.WriteString("    NOEMA_TYPE_STRING = 0,\n")
	b.WriteString("    NOEMA_TYPE_INTEGER,\n")
	b.WriteString("    NOEMA_TYPE_BOOLEAN,\n")
	b.WriteString("    NOEMA_TYPE_FLOAT,\n")
	b.WriteString("    NOEMA_TYPE_DOUBLE,\n")
	b.WriteString("    NOEMA_TYPE_DEFAULT\n")
	b.WriteString("};\n\n")
	b.WriteString("static const noema_check_fn noema_type_checks[] = {\n")
	b.WriteString("    noema_check_string,\n")
	b.WriteString("    noema_check_integer,\n")
	b.WriteString("    noema_check_boolean,\n")
	b.WriteString("    noema_check_float,\n")
	b.WriteString("    noema_check_double,\n")
	b.WriteString("    noema_check_default\n")
	b.WriteString("};\n\n")
}

// emitDispatcher renders validate_all, which runs every generated routine
// against the same node and accumulates the outcome record.
func (e *Emitter) emitDispatcher(b *strings.Builder, optimized []OptimizedConstraint) {
	b.WriteString("/* Master dispatcher: runs every generated constraint. */\n")
	b.WriteString("validation_outcome_t validate_all(const node_t *node) {\n")
	b.WriteString("    validation_outcome_t outcome = { true, 0, 0, { NULL } };\n")
	b.WriteString("    int msg = 0;\n")

	for _, oc := range optimized {
		counter := "violation_count"
		if oc.Original.Severity == shacl.SeverityWarning {
			counter = "warning_count"
		}
		fmt.Fprintf(b, "    if (!validate_%s(node)) {\n", oc.Original.ID)
		if counter == "violation_count" {
			b.WriteString("        outcome.valid = false;\n")
		}
		fmt.Fprintf(b, "        outcome.%s++;\n", counter)
		fmt.Fprintf(b, "        if (msg < MAX_MESSAGES) {\n")
		fmt.Fprintf(b, "            outcome.messages[msg++] = %s;\n", cQuote(oc.Original.Message))
		b.WriteString("        }\n")
		b.WriteString("    }\n")
	}

	b.WriteString("    return outcome;\n")
	b.WriteString("}\n")
}

func usesTypeTable(optimized []OptimizedConstraint) bool {
	for _, oc := range optimized {
		if oc.Strategy == StrategyLookupTable {
			return true
		}
	}
	return false
}
