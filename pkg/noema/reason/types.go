// Package reason implements the eightfold reasoning engine: bounded cycles
// of eight ordered stage processors deriving new facts over a knowledge
// base, with convergence detection and post-hoc proof generation.
package reason

import (
	"time"

	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/kb"
)

// Step records one stage processor execution inside a cycle. Immutable once
// recorded.
type Step struct {
	ID            string        `json:"id"`
	Stage         string        `json:"stage"`
	ReasoningType string        `json:"reasoning_type"`
	InputFacts    []string      `json:"input_facts"`
	OutputFacts   []kb.Fact     `json:"output_facts"`
	RulesApplied  []string      `json:"rules_applied"`
	Confidence    float64       `json:"confidence"`
	Duration      time.Duration `json:"duration"`
	PathID        string        `json:"path_id"`
	StepIndex     int           `json:"step_index"`
}

// Cycle is one full pass over the eight stages. EightfoldCoverage always
// carries exactly eight keys.
type Cycle struct {
	ID                  string          `json:"id"`
	Steps               []Step          `json:"steps"`
	TotalFactsProcessed int             `json:"total_facts_processed"`
	TotalRulesApplied   int             `json:"total_rules_applied"`
	Depth               int             `json:"depth"`
	ComplexityScore     float64         `json:"complexity_score"`
	EightfoldCoverage   map[string]bool `json:"eightfold_coverage"`
	ConvergenceAchieved bool            `json:"convergence_achieved"`
}

// Proof links a derived fact to the rules and premises that produced it.
type Proof struct {
	ID                   string   `json:"id"`
	Conclusion           string   `json:"conclusion"`
	Premises             []string `json:"premises"`
	ReasoningChain       []string `json:"reasoning_chain"`
	ProofType            string   `json:"proof_type"`
	Validity             bool     `json:"validity"`
	Soundness            bool     `json:"soundness"`
	CompletenessEstimate float64  `json:"completeness_estimate"`
}

// Metadata identifies the engine run.
type Metadata struct {
	Engine    string        `json:"engine"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Config    config.Config `json:"config"`
}

// Result aggregates everything a reasoning run produced.
type Result struct {
	Cycles              []Cycle        `json:"cycles"`
	Proofs              []Proof        `json:"proofs"`
	Depth               int            `json:"depth"`
	TotalFactsDerived   int            `json:"total_facts_derived"`
	ConvergenceAchieved bool           `json:"convergence_achieved"`
	Statistics          map[string]int `json:"statistics"`
	Metadata            Metadata       `json:"metadata"`
}

// reasoningTypes names the mode of inference each stage performs.
var reasoningTypes = map[kb.Stage]string{
	kb.StageUnderstanding: "deductive",
	kb.StageThought:       "inferential",
	kb.StageSpeech:        "descriptive",
	kb.StageAction:        "procedural",
	kb.StageLivelihood:    "structural",
	kb.StageEffort:        "iterative",
	kb.StageMindfulness:   "reflective",
	kb.StageConcentration: "synthetic",
}
