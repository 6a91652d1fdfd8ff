package reason

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/kb"
	"github.com/cognicore/noema/pkg/noema/ontology"
)

// Version is stamped into result metadata.
const Version = "0.3.0"

// parallelWorkers bounds the worker pool in parallel mode.
const parallelWorkers = 4

// Engine runs bounded reasoning cycles over a knowledge base built fresh for
// each Reason call.
type Engine struct {
	cfg config.Config
	log *zap.Logger
}

// New creates an engine. A nil logger disables logging.
func New(cfg config.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: log}
}

// Reason builds a knowledge base from the ontology and constraints, runs up
// to MaxCycles eightfold cycles, and returns cycles, proofs and statistics.
// Cancellation is coarse: a cancelled context stops before the next cycle,
// returning what has been derived so far.
func (e *Engine) Reason(ctx context.Context, ont *ontology.Ontology, cons *ontology.Constraints) (*Result, error) {
	if err := ont.Validate(); err != nil {
		return nil, err
	}
	if cons != nil {
		if err := cons.Validate(); err != nil {
			return nil, err
		}
	}

	k := e.buildKB(ont, cons)
	e.log.Debug("knowledge base built",
		zap.Int("facts", k.FactCount()),
		zap.Int("rules", k.RuleCount()),
		zap.Int("axioms", len(k.Axioms())))

	res := &Result{
		Statistics: map[string]int{},
		Metadata: Metadata{
			Engine:    "noema",
			Version:   Version,
			Timestamp: time.Now().UTC(),
			Config:    e.cfg,
		},
	}

	var prevProcessed int
	for i := 0; i < e.cfg.MaxCycles; i++ {
		if ctx.Err() != nil {
			e.log.Warn("reasoning cancelled between cycles", zap.Int("cycle", i))
			break
		}

		cycle, outputs, err := e.runCycle(ctx, k)
		if err != nil {
			return nil, err
		}

		// Converge when this cycle produced nothing, or when production
		// dropped below (1 - threshold) of the previous cycle's.
		if cycle.TotalFactsProcessed == 0 {
			cycle.ConvergenceAchieved = true
		} else if i > 0 && prevProcessed > 0 {
			ratio := float64(cycle.TotalFactsProcessed) / float64(prevProcessed)
			cycle.ConvergenceAchieved = ratio < (1 - e.cfg.ConvergenceThreshold)
		}
		prevProcessed = cycle.TotalFactsProcessed

		res.Cycles = append(res.Cycles, cycle)
		if cycle.Depth > res.Depth {
			res.Depth = cycle.Depth
		}
		if cycle.ConvergenceAchieved {
			res.ConvergenceAchieved = true
			e.log.Debug("convergence achieved", zap.Int("cycle", i))
			break
		}

		k.AddDerived(outputs)
	}

	if e.cfg.ProofGeneration {
		res.Proofs = e.generateProofs(res.Cycles)
	}

	res.TotalFactsDerived = len(k.DerivedFacts())
	totalSteps, totalProcessed, totalRules := 0, 0, 0
	for _, c := range res.Cycles {
		totalSteps += len(c.Steps)
		totalProcessed += c.TotalFactsProcessed
		totalRules += c.TotalRulesApplied
	}
	res.Statistics["cycles"] = len(res.Cycles)
	res.Statistics["total_steps"] = totalSteps
	res.Statistics["total_facts_processed"] = totalProcessed
	res.Statistics["total_rules_applied"] = totalRules
	res.Statistics["proofs_generated"] = len(res.Proofs)
	res.Statistics["facts_in_kb"] = k.FactCount()
	res.Statistics["derived_facts"] = res.TotalFactsDerived
	return res, nil
}

// buildKB flattens the ontology into facts and rules and imports shapes as
// axioms. FactLimit/RuleLimit truncate in declaration order.
func (e *Engine) buildKB(ont *ontology.Ontology, cons *ontology.Constraints) *kb.KB {
	k := kb.New()

	facts := make([]kb.Fact, 0, len(ont.Classes)+len(ont.Properties))
	for _, c := range ont.Classes {
		f := kb.Fact{
			Kind:       "class",
			URI:        c.URI,
			Label:      c.Label,
			Properties: map[string]string{},
		}
		if len(c.ParentClasses) > 0 {
			f.Properties["parents"] = strings.Join(c.ParentClasses, ",")
		}
		if len(c.Properties) > 0 {
			f.Properties["properties"] = strings.Join(c.Properties, ",")
		}
		if c.Eightfold != nil {
			f.Stage = kb.ParseStage(c.Eightfold.Stage)
		}
		facts = append(facts, f)
	}
	for _, p := range ont.Properties {
		f := kb.Fact{
			Kind:       "property",
			URI:        p.URI,
			Label:      p.Label,
			Properties: map[string]string{"type": p.Type},
		}
		if p.Domain != "" {
			f.Properties["domain"] = p.Domain
		}
		if p.Range != "" {
			f.Properties["range"] = p.Range
		}
		facts = append(facts, f)
	}
	if e.cfg.FactLimit > 0 && len(facts) > e.cfg.FactLimit {
		facts = facts[:e.cfg.FactLimit]
	}
	for _, f := range facts {
		k.AddFact(f)
	}

	rules := make([]kb.Rule, 0, len(ont.Rules))
	for _, r := range ont.Rules {
		confidence := 1.0
		if r.Confidence != nil {
			confidence = *r.Confidence
		}
		stage := kb.ParseStage(r.EightfoldStage)
		if stage == kb.StageNone {
			// Untagged rules route by kind: subsumption machinery belongs to
			// understanding, everything else to thought.
			if r.Type == "subClassOf" || r.Type == "subsumption" {
				stage = kb.StageUnderstanding
			} else {
				stage = kb.StageThought
			}
		}
		rules = append(rules, kb.Rule{
			ID:         r.ID,
			Kind:       r.Type,
			Antecedent: append([]string(nil), r.Antecedent...),
			Consequent: r.Consequent,
			Confidence: confidence,
			Stage:      stage,
		})
	}
	if e.cfg.RuleLimit > 0 && len(rules) > e.cfg.RuleLimit {
		rules = rules[:e.cfg.RuleLimit]
	}
	for _, r := range rules {
		k.AddRule(r)
	}

	if cons != nil {
		for _, s := range cons.Shapes {
			k.AddAxiom(kb.Axiom{
				Kind:   "shape",
				Target: s.Target,
				Constraints: map[string]any{
					"properties": s.Constraints.Properties,
					"node":       s.Constraints.Node,
				},
			})
		}
	}
	return k
}

// stageOutcome is one stage processor's result within a cycle.
type stageOutcome struct {
	inputs   []string
	outputs  []kb.Fact
	applied  []string
	duration time.Duration
}

// runCycle executes the eight stages in fixed order against the cycle-start
// state of the knowledge base, then assembles the cycle record. The
// returned outputs are deduplicated and not yet applied to the KB; the
// caller applies them as a single batch.
func (e *Engine) runCycle(ctx context.Context, k *kb.KB) (Cycle, []kb.Fact, error) {
	snapshot := k.AllFacts()
	outcomes := make([]stageOutcome, len(kb.Stages))

	if e.cfg.ParallelReasoning {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parallelWorkers)
		for i, stage := range kb.Stages {
			i, stage := i, stage
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				outcome, err := e.runOneStage(k, stage, snapshot)
				if err != nil {
					return err
				}
				outcomes[i] = outcome
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Cycle{}, nil, err
		}
	} else {
		for i, stage := range kb.Stages {
			outcome, err := e.runOneStage(k, stage, snapshot)
			if err != nil {
				return Cycle{}, nil, err
			}
			outcomes[i] = outcome
		}
	}

	cycle := Cycle{
		ID:                newID(),
		EightfoldCoverage: make(map[string]bool, len(kb.Stages)),
	}

	// Drop facts the KB already holds, and duplicates across stages, so a
	// cycle that rediscovers everything counts as producing nothing.
	seen := make(map[string]bool, len(snapshot))
	derivedURIs := make(map[string]bool)
	for _, f := range snapshot {
		seen[f.Kind+"|"+f.URI] = true
		if f.Derived {
			derivedURIs[f.URI] = true
		}
	}

	var all []kb.Fact
	chains := 0
	for i, stage := range kb.Stages {
		outcome := outcomes[i]
		var fresh []kb.Fact
		for _, f := range outcome.outputs {
			key := f.Kind + "|" + f.URI
			if seen[key] {
				continue
			}
			seen[key] = true
			fresh = append(fresh, f)
			if derivedURIs[f.Properties["source"]] {
				chains++
			}
		}

		cycle.EightfoldCoverage[stage.String()] = false
		if len(fresh) == 0 && len(outcome.applied) == 0 {
			continue // sparse coverage: no step for this stage
		}

		step := Step{
			ID:            newID(),
			Stage:         stage.String(),
			ReasoningType: reasoningTypes[stage],
			InputFacts:    outcome.inputs,
			OutputFacts:   fresh,
			RulesApplied:  outcome.applied,
			Confidence:    stepConfidence(len(fresh), len(outcome.applied)),
			Duration:      outcome.duration,
			PathID:        cycle.ID,
			StepIndex:     len(cycle.Steps),
		}
		cycle.Steps = append(cycle.Steps, step)
		cycle.EightfoldCoverage[stage.String()] = true
		cycle.TotalFactsProcessed += len(fresh)
		cycle.TotalRulesApplied += len(outcome.applied)
		all = append(all, fresh...)
	}

	cycle.Depth = 1 + chains
	cycle.ComplexityScore = complexityScore(len(cycle.Steps), cycle.TotalFactsProcessed, cycle.TotalRulesApplied)
	return cycle, all, nil
}

// runOneStage selects the stage's inputs and rules and runs its processor.
// Inputs are facts explicitly tagged for the stage plus untagged facts
// passing the stage's semantic filter.
func (e *Engine) runOneStage(k *kb.KB, stage kb.Stage, snapshot []kb.Fact) (stageOutcome, error) {
	start := time.Now()

	tagged, err := k.FactsByStage(stage)
	if err != nil {
		return stageOutcome{}, err
	}
	inputs := make([]kb.Fact, 0, len(tagged))
	inputs = append(inputs, tagged...)
	for _, f := range snapshot {
		if f.Stage == kb.StageNone && stageFilter(stage, f) {
			inputs = append(inputs, f)
		}
	}

	rules, err := k.RulesByStage(stage)
	if err != nil {
		return stageOutcome{}, err
	}

	outputs, applied := runStage(stage, inputs, rules)

	uris := make([]string, 0, len(inputs))
	for _, f := range inputs {
		uris = append(uris, f.URI)
	}
	return stageOutcome{
		inputs:   uris,
		outputs:  outputs,
		applied:  applied,
		duration: time.Since(start),
	}, nil
}

// generateProofs emits one proof per rule-backed output fact.
func (e *Engine) generateProofs(cycles []Cycle) []Proof {
	var proofs []Proof
	for _, cycle := range cycles {
		for _, step := range cycle.Steps {
			if len(step.RulesApplied) == 0 {
				continue
			}
			chain := make([]string, 0, len(step.RulesApplied)+1)
			chain = append(chain, step.Stage)
			chain = append(chain, step.RulesApplied...)
			for _, fact := range step.OutputFacts {
				conclusion := fact.Label
				if conclusion == "" {
					conclusion = fact.URI
				}
				proofs = append(proofs, Proof{
					ID:                   newID(),
					Conclusion:           conclusion,
					Premises:             step.InputFacts,
					ReasoningChain:       chain,
					ProofType:            step.ReasoningType,
					Validity:             true,
					Soundness:            step.Confidence > 0.5,
					CompletenessEstimate: step.Confidence,
				})
			}
		}
	}
	return proofs
}

// stepConfidence blends output volume and rule activity, each capped at 1.
func stepConfidence(outputs, rulesApplied int) float64 {
	factPart := capAt1(float64(outputs) / 10)
	rulePart := capAt1(float64(rulesApplied) / 5)
	return (factPart + rulePart) / 2
}

// complexityScore blends step, fact and rule counts, each capped at 1.
func complexityScore(steps, facts, rules int) float64 {
	return (capAt1(float64(steps)/8) + capAt1(float64(facts)/50) + capAt1(float64(rules)/20)) / 3
}

func capAt1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func newID() string {
	return ulid.Make().String()
}
