// Package kb implements the in-memory knowledge base: append-only arenas of
// facts, rules and axioms with side indices for kind, URI and stage lookup.
// A knowledge base lives for one reasoning session and is then discarded.
package kb

import (
	"fmt"
	"sync"

	"github.com/cognicore/noema/pkg/noema/internalerr"
)

// Handle is a stable position into one of the knowledge base arenas.
type Handle int

// Fact is a single assertion. Facts are immutable once added; later cycles
// supersede them by appending derived facts, never by mutation.
type Fact struct {
	Kind       string
	URI        string
	Label      string
	Properties map[string]string
	Stage      Stage // stage hint; StageNone when absent
	Derived    bool
}

// Rule is an inference rule with a confidence in [0,1].
type Rule struct {
	ID         string
	Kind       string
	Antecedent []string
	Consequent string
	Confidence float64
	Stage      Stage
}

// Axiom is a background constraint imported from a shape.
type Axiom struct {
	Kind        string
	Target      string
	Constraints map[string]any
}

// KB is the knowledge base. Writes are serialized; reads may run
// concurrently (the parallel reasoning mode has all eight stage processors
// reading one snapshot).
type KB struct {
	mu sync.RWMutex

	facts   []Fact
	rules   []Rule
	axioms  []Axiom
	derived []Fact

	factsByKind  map[string][]Handle
	factsByURI   map[string][]Handle
	factsByStage map[Stage][]Handle
	rulesByKind  map[string][]Handle
	rulesByStage map[Stage][]Handle
}

// New creates an empty knowledge base.
func New() *KB {
	return &KB{
		factsByKind:  make(map[string][]Handle),
		factsByURI:   make(map[string][]Handle),
		factsByStage: make(map[Stage][]Handle),
		rulesByKind:  make(map[string][]Handle),
		rulesByStage: make(map[Stage][]Handle),
	}
}

// AddFact appends a fact and updates every index before returning, so a
// reader that observes the handle always finds the fact behind it.
func (k *KB) AddFact(f Fact) Handle {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.addFactLocked(f)
}

func (k *KB) addFactLocked(f Fact) Handle {
	h := Handle(len(k.facts))
	k.facts = append(k.facts, f)
	k.factsByKind[f.Kind] = append(k.factsByKind[f.Kind], h)
	if f.URI != "" {
		k.factsByURI[f.URI] = append(k.factsByURI[f.URI], h)
	}
	if f.Stage != StageNone {
		k.factsByStage[f.Stage] = append(k.factsByStage[f.Stage], h)
	}
	return h
}

// AddRule appends a rule and updates the rule indices.
func (k *KB) AddRule(r Rule) Handle {
	k.mu.Lock()
	defer k.mu.Unlock()

	h := Handle(len(k.rules))
	k.rules = append(k.rules, r)
	k.rulesByKind[r.Kind] = append(k.rulesByKind[r.Kind], h)
	if r.Stage != StageNone {
		k.rulesByStage[r.Stage] = append(k.rulesByStage[r.Stage], h)
	}
	return h
}

// AddAxiom appends a background axiom.
func (k *KB) AddAxiom(a Axiom) Handle {
	k.mu.Lock()
	defer k.mu.Unlock()

	h := Handle(len(k.axioms))
	k.axioms = append(k.axioms, a)
	return h
}

// AddDerived appends a batch of derived facts. This is the single batched
// mutation applied at the end of a cycle; derived facts are indexed like
// base facts and also tracked separately.
func (k *KB) AddDerived(facts []Fact) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, f := range facts {
		f.Derived = true
		k.addFactLocked(f)
		k.derived = append(k.derived, f)
	}
}

// FactsByKind returns all facts of the given kind.
func (k *KB) FactsByKind(kind string) ([]Fact, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.resolveFacts(k.factsByKind[kind])
}

// FactsByURI returns all facts recorded under the given URI.
func (k *KB) FactsByURI(uri string) ([]Fact, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.resolveFacts(k.factsByURI[uri])
}

// FactsByStage returns all facts carrying an explicit stage hint.
func (k *KB) FactsByStage(s Stage) ([]Fact, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.resolveFacts(k.factsByStage[s])
}

// RulesByKind returns all rules of the given kind.
func (k *KB) RulesByKind(kind string) ([]Rule, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.resolveRules(k.rulesByKind[kind])
}

// RulesByStage returns all rules tagged with the given stage.
func (k *KB) RulesByStage(s Stage) ([]Rule, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.resolveRules(k.rulesByStage[s])
}

// AllFacts returns a copy of the fact arena, base and derived.
func (k *KB) AllFacts() []Fact {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]Fact, len(k.facts))
	copy(out, k.facts)
	return out
}

// AllRules returns a copy of the rule arena.
func (k *KB) AllRules() []Rule {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]Rule, len(k.rules))
	copy(out, k.rules)
	return out
}

// Axioms returns a copy of the axiom arena.
func (k *KB) Axioms() []Axiom {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]Axiom, len(k.axioms))
	copy(out, k.axioms)
	return out
}

// DerivedFacts returns a copy of the facts derived so far.
func (k *KB) DerivedFacts() []Fact {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]Fact, len(k.derived))
	copy(out, k.derived)
	return out
}

// FactCount returns the number of facts, base plus derived.
func (k *KB) FactCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.facts)
}

// RuleCount returns the number of rules.
func (k *KB) RuleCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.rules)
}

func (k *KB) resolveFacts(handles []Handle) ([]Fact, error) {
	out := make([]Fact, 0, len(handles))
	for _, h := range handles {
		if int(h) < 0 || int(h) >= len(k.facts) {
			return nil, fmt.Errorf("%w: fact handle %d outside arena of %d", internalerr.ErrIndexCorruption, h, len(k.facts))
		}
		out = append(out, k.facts[h])
	}
	return out, nil
}

func (k *KB) resolveRules(handles []Handle) ([]Rule, error) {
	out := make([]Rule, 0, len(handles))
	for _, h := range handles {
		if int(h) < 0 || int(h) >= len(k.rules) {
			return nil, fmt.Errorf("%w: rule handle %d outside arena of %d", internalerr.ErrIndexCorruption, h, len(k.rules))
		}
		out = append(out, k.rules[h])
	}
	return out, nil
}
