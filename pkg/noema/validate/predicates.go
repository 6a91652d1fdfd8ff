package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/noema/pkg/noema/internalerr"
	"github.com/cognicore/noema/pkg/noema/ontology"
	"github.com/cognicore/noema/pkg/noema/shacl"
)

// xsdPrimitives maps XSD datatype URIs (and their short forms) to primitive
// checks. Unknown datatypes pass with a recorded note.
var xsdPrimitives = map[string]func(any) bool{
	"http://www.w3.org/2001/XMLSchema#string":  isString,
	"http://www.w3.org/2001/XMLSchema#integer": isInteger,
	"http://www.w3.org/2001/XMLSchema#boolean": isBoolean,
	"http://www.w3.org/2001/XMLSchema#float":   isNumber,
	"http://www.w3.org/2001/XMLSchema#double":  isNumber,
	"xsd:string":                               isString,
	"xsd:integer":                              isInteger,
	"xsd:boolean":                              isBoolean,
	"xsd:float":                                isNumber,
	"xsd:double":                               isNumber,
}

// evaluate dispatches to the predicate for the rule's kind. It returns
// whether the node conforms and, for conforming results, an optional note
// that is surfaced at info level.
func (v *Validator) evaluate(ctx context.Context, rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	switch rule.Kind {
	case shacl.KindCardinality:
		return checkCardinality(rule, class)
	case shacl.KindDatatype:
		return checkDatatype(rule, class)
	case shacl.KindPattern:
		return v.checkPattern(ctx, rule, class)
	case shacl.KindValueRange:
		return checkValueRange(rule, class)
	case shacl.KindNodeKind:
		return checkNodeKind(rule, class)
	case shacl.KindClosed:
		return checkClosed(rule, class)
	case shacl.KindPropertyPair:
		return checkPropertyPair(rule, class)
	default:
		return true, fmt.Sprintf("no interpretive predicate for %s constraints", rule.Kind)
	}
}

func checkCardinality(rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	count := pathCount(class, rule.Path)
	if min, ok := intConstraint(rule.Constraint, "minCount"); ok && count < min {
		return false, fmt.Sprintf("found %d values, minCount is %d", count, min)
	}
	if max, ok := intConstraint(rule.Constraint, "maxCount"); ok && count > max {
		return false, fmt.Sprintf("found %d values, maxCount is %d", count, max)
	}
	return true, ""
}

func checkDatatype(rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	datatype, _ := rule.Constraint["datatype"].(string)
	check, known := xsdPrimitives[datatype]
	if !known {
		return true, fmt.Sprintf("unknown datatype %s, value not checked", datatype)
	}
	for _, val := range pathValues(class, rule.Path) {
		if !check(val) {
			return false, fmt.Sprintf("value %v is not a %s", val, datatype)
		}
	}
	return true, ""
}

// checkPattern compiles the rule's pattern with its flags and matches every
// value at the path. A malformed pattern or an expired budget fails closed.
func (v *Validator) checkPattern(ctx context.Context, rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	pattern, _ := rule.Constraint["pattern"].(string)
	flags, _ := rule.Constraint["flags"].(string)

	re, err := compilePattern(pattern, flags)
	if err != nil {
		v.log.Warn("pattern failed to compile, rule fails closed",
			zap.String("rule", rule.ID), zap.String("pattern", pattern), zap.Error(err))
		return false, fmt.Sprintf("%v: %q: %v", internalerr.ErrPatternCompilation, pattern, err)
	}

	deadline := time.Time{}
	if v.timeout > 0 {
		deadline = time.Now().Add(v.timeout)
	}
	for _, val := range pathValues(class, rule.Path) {
		if err := ctx.Err(); err != nil {
			return false, fmt.Sprintf("pattern evaluation cancelled: %v", err)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false, fmt.Sprintf("pattern evaluation exceeded %s budget", v.timeout)
		}
		if !re.MatchString(fmt.Sprint(val)) {
			return false, fmt.Sprintf("value %v does not match %s", val, pattern)
		}
	}
	return true, ""
}

func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	var prefix string
	if strings.ContainsRune(flags, 'i') {
		prefix += "i"
	}
	if strings.ContainsRune(flags, 'm') {
		prefix += "m"
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}
	return regexp.Compile(pattern)
}

func checkValueRange(rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	for _, val := range pathValues(class, rule.Path) {
		num, ok := toFloat(val)
		if !ok {
			return false, fmt.Sprintf("value %v is not numeric", val)
		}
		if bound, ok := floatConstraint(rule.Constraint, "minInclusive"); ok && num < bound {
			return false, fmt.Sprintf("value %g below minInclusive %g", num, bound)
		}
		if bound, ok := floatConstraint(rule.Constraint, "maxInclusive"); ok && num > bound {
			return false, fmt.Sprintf("value %g above maxInclusive %g", num, bound)
		}
		if bound, ok := floatConstraint(rule.Constraint, "minExclusive"); ok && num <= bound {
			return false, fmt.Sprintf("value %g not above minExclusive %g", num, bound)
		}
		if bound, ok := floatConstraint(rule.Constraint, "maxExclusive"); ok && num >= bound {
			return false, fmt.Sprintf("value %g not below maxExclusive %g", num, bound)
		}
	}
	return true, ""
}

func checkNodeKind(rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	kind, _ := rule.Constraint["nodeKind"].(string)

	// Shape-level rule: the class node itself is the subject.
	if rule.Path == "" {
		if !classNodeKind(kind, class) {
			return false, fmt.Sprintf("%s is not a %s", class.URI, kind)
		}
		return true, ""
	}
	for _, val := range pathValues(class, rule.Path) {
		if !valueNodeKind(kind, fmt.Sprint(val)) {
			return false, fmt.Sprintf("value %v is not a %s", val, kind)
		}
	}
	return true, ""
}

// classNodeKind checks the node itself. A Literal node must carry a "value"
// field; a node without any values is never a Literal.
func classNodeKind(kind string, class ontology.Class) bool {
	switch kind {
	case "IRI":
		return strings.HasPrefix(class.URI, "http")
	case "BlankNode":
		return strings.HasPrefix(class.URI, "_:")
	case "Literal":
		_, ok := class.Values["value"]
		return ok
	default:
		return true
	}
}

// valueNodeKind checks one value at a path.
func valueNodeKind(kind, subject string) bool {
	switch kind {
	case "IRI":
		return strings.HasPrefix(subject, "http")
	case "BlankNode":
		return strings.HasPrefix(subject, "_:")
	case "Literal":
		return subject != ""
	default:
		return true
	}
}

func checkClosed(rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	closed, _ := rule.Constraint["closed"].(bool)
	if !closed {
		return true, ""
	}

	allowed := make(map[string]bool)
	for _, p := range stringsConstraint(rule.Constraint, "declaredProperties") {
		allowed[p] = true
	}
	for _, p := range stringsConstraint(rule.Constraint, "ignoredProperties") {
		allowed[p] = true
	}

	for _, p := range class.Properties {
		if !allowed[p] {
			return false, fmt.Sprintf("undeclared property %s on closed shape", p)
		}
	}
	for p := range class.Values {
		if !allowed[p] {
			return false, fmt.Sprintf("undeclared property %s on closed shape", p)
		}
	}
	return true, ""
}

func checkPropertyPair(rule shacl.ValidationRule, class ontology.Class) (bool, string) {
	if pathCount(class, rule.Path) == 0 {
		return false, fmt.Sprintf("property %s missing from %s", rule.Path, class.URI)
	}
	return true, ""
}

// pathValues collects the instance values stored at a path. A slice counts
// as multiple values, any other non-nil value as one.
func pathValues(class ontology.Class, path string) []any {
	val, ok := class.Values[path]
	if !ok || val == nil {
		return nil
	}
	if list, ok := val.([]any); ok {
		return list
	}
	return []any{val}
}

// pathCount counts occurrences of a path: declared property references plus
// instance values.
func pathCount(class ontology.Class, path string) int {
	count := len(pathValues(class, path))
	for _, p := range class.Properties {
		if p == path {
			count++
		}
	}
	return count
}

func intConstraint(m map[string]any, key string) (int, bool) {
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

func floatConstraint(m map[string]any, key string) (float64, bool) {
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

func stringsConstraint(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBoolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int64:
		return true
	case float64:
		return n == float64(int64(n))
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
