package codegen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/internalerr"
	"github.com/cognicore/noema/pkg/noema/shacl"
)

// Strategy names how a constraint is rendered into native code.
type Strategy string

// Generation strategies. Bitmap is reserved for set-membership constraints;
// no current rule kind selects it.
const (
	StrategyInline      Strategy = "inline"
	StrategyFunction    Strategy = "function"
	StrategyLookupTable Strategy = "lookup_table"
	StrategyBitmap      Strategy = "bitmap"
)

// Cost estimates per strategy, in abstract comparison units.
const (
	costCardinalityInline   = 1.0
	costCardinalityFunction = 5.0
	costDatatype            = 2.0
	costDatatypeTable       = 1.5
	costPatternSimple       = 3.0
	costPatternRegex        = 10.0
	costValueRange          = 1.0
	costNodeKind            = 1.0

	regexHandleBytes = 256 // reserved per cached compiled-pattern handle
	typeTableBytes   = 48  // six function pointers
)

// OptimizedConstraint pairs a source rule with its rendered routine and
// resource estimates. The optimizer is the sole producer; the emitter only
// reads.
type OptimizedConstraint struct {
	Original      shacl.ValidationRule
	Strategy      Strategy
	Fn            *Func
	Code          string
	EstimatedCost float64
	MemoryBytes   int
}

// Optimizer selects a generation strategy per rule.
type Optimizer struct {
	inlineSimple    bool
	useLookupTables bool
	log             *zap.Logger
}

// NewOptimizer creates an optimizer honoring the config hints. A nil logger
// disables logging.
func NewOptimizer(cfg config.Config, log *zap.Logger) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Optimizer{
		inlineSimple:    cfg.InlineSimpleConstraints,
		useLookupTables: cfg.UseLookupTables,
		log:             log,
	}
}

// Optimize compiles each supported rule into a validation routine. Rules of
// unsupported kinds are skipped; they remain enforceable through the
// interpretive validator only.
func (o *Optimizer) Optimize(rules []shacl.ValidationRule) []OptimizedConstraint {
	out := make([]OptimizedConstraint, 0, len(rules))
	for _, rule := range rules {
		oc, ok := o.optimizeRule(rule)
		if !ok {
			o.log.Debug("skipping rule",
				zap.String("rule", rule.ID), zap.String("kind", string(rule.Kind)),
				zap.Error(internalerr.ErrUnsupportedConstraint))
			continue
		}
		oc.Code = oc.Fn.Render()
		out = append(out, oc)
	}
	return out
}

func (o *Optimizer) optimizeRule(rule shacl.ValidationRule) (OptimizedConstraint, bool) {
	switch rule.Kind {
	case shacl.KindCardinality:
		return o.optimizeCardinality(rule), true
	case shacl.KindDatatype:
		return o.optimizeDatatype(rule), true
	case shacl.KindPattern:
		return o.optimizePattern(rule), true
	case shacl.KindValueRange:
		return o.optimizeValueRange(rule), true
	case shacl.KindNodeKind:
		return o.optimizeNodeKind(rule), true
	default:
		return OptimizedConstraint{}, false
	}
}

// optimizeCardinality inlines the common minCount=1 presence check and
// renders everything else as an explicit count-then-compare function.
func (o *Optimizer) optimizeCardinality(rule shacl.ValidationRule) OptimizedConstraint {
	min, hasMin := intVal(rule.Constraint, "minCount")
	max, hasMax := intVal(rule.Constraint, "maxCount")

	fn := newValidateFunc(rule)
	if hasMin && min == 1 && !hasMax {
		fn.Body = []Stmt{
			Return{Call{Fn: "noema_has_value", Args: []Expr{Ident("node"), Str(rule.Path)}}},
		}
		return OptimizedConstraint{Original: rule, Strategy: StrategyInline, Fn: fn, EstimatedCost: costCardinalityInline}
	}

	body := []Stmt{
		Decl{Type: "int", Name: "count", Value: Call{Fn: "noema_count_values", Args: []Expr{Ident("node"), Str(rule.Path)}}},
	}
	if hasMin {
		body = append(body, If{Cond: Bin{Op: "<", L: Ident("count"), R: Num(min)}, Then: []Stmt{Return{Ident("false")}}})
	}
	if hasMax {
		body = append(body, If{Cond: Bin{Op: ">", L: Ident("count"), R: Num(max)}, Then: []Stmt{Return{Ident("false")}}})
	}
	body = append(body, Return{Ident("true")})
	fn.Body = body
	return OptimizedConstraint{Original: rule, Strategy: StrategyFunction, Fn: fn, EstimatedCost: costCardinalityFunction}
}

// datatypeRoutines maps XSD datatypes to the fixed native check routines.
var datatypeRoutines = map[string]string{
	"http://www.w3.org/2001/XMLSchema#string":  "noema_check_string",
	"http://www.w3.org/2001/XMLSchema#integer": "noema_check_integer",
	"http://www.w3.org/2001/XMLSchema#boolean": "noema_check_boolean",
	"http://www.w3.org/2001/XMLSchema#float":   "noema_check_float",
	"http://www.w3.org/2001/XMLSchema#double":  "noema_check_double",
	"xsd:string":                               "noema_check_string",
	"xsd:integer":                              "noema_check_integer",
	"xsd:boolean":                              "noema_check_boolean",
	"xsd:float":                                "noema_check_float",
	"xsd:double":                               "noema_check_double",
}

// typeTableIndex maps check routines to their slot in the emitted dispatch
// table, used by the lookup-table strategy.
var typeTableIndex = map[string]string{
	"noema_check_string":  "NOEMA_TYPE_STRING",
	"noema_check_integer": "NOEMA_TYPE_INTEGER",
	"noema_check_boolean": "NOEMA_TYPE_BOOLEAN",
	"noema_check_float":   "NOEMA_TYPE_FLOAT",
	"noema_check_double":  "NOEMA_TYPE_DOUBLE",
	"noema_check_default": "NOEMA_TYPE_DEFAULT",
}

func (o *Optimizer) optimizeDatatype(rule shacl.ValidationRule) OptimizedConstraint {
	datatype, _ := rule.Constraint["datatype"].(string)
	routine, ok := datatypeRoutines[datatype]
	if !ok {
		routine = "noema_check_default"
	}

	fn := newValidateFunc(rule)
	if o.useLookupTables {
		fn.Body = []Stmt{
			Return{Call{
				Fn:   fmt.Sprintf("noema_type_checks[%s]", typeTableIndex[routine]),
				Args: []Expr{Ident("node"), Str(rule.Path)},
			}},
		}
		return OptimizedConstraint{Original: rule, Strategy: StrategyLookupTable, Fn: fn,
			EstimatedCost: costDatatypeTable, MemoryBytes: typeTableBytes}
	}

	fn.Body = []Stmt{
		Return{Call{Fn: routine, Args: []Expr{Ident("node"), Str(rule.Path)}}},
	}
	return OptimizedConstraint{Original: rule, Strategy: StrategyInline, Fn: fn, EstimatedCost: costDatatype}
}

// optimizePattern specializes anchored-prefix, anchored-suffix and bare
// identifier patterns into direct string checks; everything else goes
// through a cached compiled regex.
func (o *Optimizer) optimizePattern(rule shacl.ValidationRule) OptimizedConstraint {
	pattern, _ := rule.Constraint["pattern"].(string)
	flags, _ := rule.Constraint["flags"].(string)

	fn := newValidateFunc(rule)
	value := Call{Fn: "noema_value", Args: []Expr{Ident("node"), Str(rule.Path)}}

	// Flagged patterns are never "simple": case folding and multiline
	// semantics belong to the regex engine.
	if o.inlineSimple && flags == "" {
		if literal, ok := prefixLiteral(pattern); ok {
			fn.Body = []Stmt{
				Return{Bin{Op: "==",
					L: Call{Fn: "strncmp", Args: []Expr{value, Str(literal), Num(len(literal))}},
					R: Num(0)}},
			}
			return OptimizedConstraint{Original: rule, Strategy: StrategyInline, Fn: fn, EstimatedCost: costPatternSimple}
		}
		if literal, ok := suffixLiteral(pattern); ok {
			fn.Body = []Stmt{
				Return{Call{Fn: "noema_str_suffix", Args: []Expr{value, Str(literal)}}},
			}
			return OptimizedConstraint{Original: rule, Strategy: StrategyInline, Fn: fn, EstimatedCost: costPatternSimple}
		}
		if isBareIdentifier(pattern) {
			fn.Body = []Stmt{
				Return{Bin{Op: "!=",
					L: Call{Fn: "strstr", Args: []Expr{value, Str(pattern)}},
					R: Ident("NULL")}},
			}
			return OptimizedConstraint{Original: rule, Strategy: StrategyInline, Fn: fn, EstimatedCost: costPatternSimple}
		}
	}

	handle := "noema_re_" + rule.ID
	compiled := pattern
	if flags != "" {
		compiled = "(?" + flags + ")" + pattern
	}
	fn.Body = []Stmt{
		Raw(fmt.Sprintf("static void *%s = NULL;", handle)),
		If{Cond: Bin{Op: "==", L: Ident(handle), R: Ident("NULL")}, Then: []Stmt{
			Raw(fmt.Sprintf("%s = noema_regex_compile(%s);", handle, cQuote(compiled))),
		}},
		Return{Call{Fn: "noema_regex_match", Args: []Expr{Ident(handle), value}}},
	}
	return OptimizedConstraint{Original: rule, Strategy: StrategyFunction, Fn: fn,
		EstimatedCost: costPatternRegex, MemoryBytes: regexHandleBytes}
}

// optimizeValueRange renders the conjunction of whichever bounds are present.
func (o *Optimizer) optimizeValueRange(rule shacl.ValidationRule) OptimizedConstraint {
	fn := newValidateFunc(rule)
	body := []Stmt{
		Decl{Type: "double", Name: "v", Value: Call{Fn: "noema_number", Args: []Expr{Ident("node"), Str(rule.Path)}}},
	}
	for _, bound := range []struct {
		key string
		op  string
	}{
		{"minInclusive", "<"},
		{"maxInclusive", ">"},
		{"minExclusive", "<="},
		{"maxExclusive", ">="},
	} {
		if val, ok := floatVal(rule.Constraint, bound.key); ok {
			body = append(body, If{
				Cond: Bin{Op: bound.op, L: Ident("v"), R: Num(val)},
				Then: []Stmt{Return{Ident("false")}},
			})
		}
	}
	body = append(body, Return{Ident("true")})
	fn.Body = body
	return OptimizedConstraint{Original: rule, Strategy: StrategyInline, Fn: fn, EstimatedCost: costValueRange}
}

var nodeKindRoutines = map[string]string{
	"IRI":       "noema_node_is_iri",
	"BlankNode": "noema_node_is_blank",
	"Literal":   "noema_node_is_literal",
}

func (o *Optimizer) optimizeNodeKind(rule shacl.ValidationRule) OptimizedConstraint {
	kind, _ := rule.Constraint["nodeKind"].(string)
	routine, ok := nodeKindRoutines[kind]
	if !ok {
		routine = "noema_node_is_literal"
	}

	fn := newValidateFunc(rule)
	fn.Body = []Stmt{
		Return{Call{Fn: routine, Args: []Expr{Ident("node")}}},
	}
	return OptimizedConstraint{Original: rule, Strategy: StrategyInline, Fn: fn, EstimatedCost: costNodeKind}
}

func newValidateFunc(rule shacl.ValidationRule) *Func {
	return &Func{
		Comment: fmt.Sprintf("%s constraint on %s", rule.Kind, rule.Target),
		Ret:     "bool",
		Name:    "validate_" + rule.ID,
		Params:  []Param{{Type: "const node_t", Name: "*node"}},
	}
}

// prefixLiteral reports whether the pattern is an anchored literal prefix
// ("^CUST_") and returns the literal.
func prefixLiteral(pattern string) (string, bool) {
	if !strings.HasPrefix(pattern, "^") {
		return "", false
	}
	literal := pattern[1:]
	if literal == "" || !isRegexLiteral(literal) {
		return "", false
	}
	return literal, true
}

// suffixLiteral reports whether the pattern is an anchored literal suffix
// ("_ID$") and returns the literal.
func suffixLiteral(pattern string) (string, bool) {
	if !strings.HasSuffix(pattern, "$") {
		return "", false
	}
	literal := pattern[:len(pattern)-1]
	if literal == "" || !isRegexLiteral(literal) {
		return "", false
	}
	return literal, true
}

// isBareIdentifier reports whether the pattern is a plain identifier with no
// regex machinery, matched as a substring.
func isBareIdentifier(pattern string) bool {
	if pattern == "" {
		return false
	}
	for _, r := range pattern {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

func isRegexLiteral(s string) bool {
	return !strings.ContainsAny(s, `.*+?()[]{}|\^$`)
}

func intVal(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func floatVal(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
