package internalerr

import "errors"

// Sentinel errors for common cases
var (
	// ErrConfiguration marks malformed or missing top-level input: a bad
	// config value, or an ontology/constraint document without its required
	// keys. Fatal to the call that received the input.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrIndexCorruption marks a knowledge-base index position outside the
	// bounds of its backing collection. Defensive only; the append-then-index
	// discipline should make it unreachable.
	ErrIndexCorruption = errors.New("knowledge base index corruption")

	// ErrRuleEvaluation marks a single validation predicate that failed to
	// evaluate. Downgraded to a violation record, never fatal.
	ErrRuleEvaluation = errors.New("rule evaluation failed")

	// ErrPatternCompilation marks a regex that failed to compile. The owning
	// rule fails closed.
	ErrPatternCompilation = errors.New("pattern compilation failed")

	// ErrUnsupportedConstraint marks a constraint kind the optimizer has no
	// strategy for. The rule stays on the interpretive path.
	ErrUnsupportedConstraint = errors.New("unsupported constraint kind")
)
