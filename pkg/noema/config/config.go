package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/noema/pkg/noema/internalerr"
)

// ValidationLevel controls how strictly the validator classifies findings.
type ValidationLevel string

// Recognized validation levels.
const (
	LevelStrict  ValidationLevel = "strict"
	LevelNormal  ValidationLevel = "normal"
	LevelLenient ValidationLevel = "lenient"
)

// ReportFormat controls the detail level of validation reports.
type ReportFormat string

// Recognized report formats.
const (
	ReportDetailed ReportFormat = "detailed"
	ReportSummary  ReportFormat = "summary"
	ReportMinimal  ReportFormat = "minimal"
)

// Config holds every tunable recognized by the engine, validator and
// constraint compiler.
type Config struct {
	MaxCycles            int     `yaml:"max_cycles"`
	ParallelReasoning    bool    `yaml:"parallel_reasoning"`
	ProofGeneration      bool    `yaml:"proof_generation"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	FactLimit            int     `yaml:"fact_limit"`
	RuleLimit            int     `yaml:"rule_limit"`
	TimeoutSeconds       float64 `yaml:"timeout_seconds"`

	ValidationLevel        ValidationLevel `yaml:"validation_level"`
	ConstraintOptimization bool            `yaml:"constraint_optimization"`
	ReportFormat           ReportFormat    `yaml:"report_format"`

	// Optimizer hints
	InlineSimpleConstraints bool `yaml:"inline_simple_constraints"`
	UseLookupTables         bool `yaml:"use_lookup_tables"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		MaxCycles:               8,
		ProofGeneration:         true,
		ConvergenceThreshold:    0.95,
		TimeoutSeconds:          30,
		ValidationLevel:         LevelNormal,
		ConstraintOptimization:  true,
		ReportFormat:            ReportDetailed,
		InlineSimpleConstraints: true,
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges. Zero values that Default fills are allowed.
func (c Config) Validate() error {
	if c.MaxCycles < 1 {
		return fmt.Errorf("%w: max_cycles must be >= 1, got %d", internalerr.ErrConfiguration, c.MaxCycles)
	}
	if c.ConvergenceThreshold < 0 || c.ConvergenceThreshold > 1 {
		return fmt.Errorf("%w: convergence_threshold must be in [0,1], got %g", internalerr.ErrConfiguration, c.ConvergenceThreshold)
	}
	if c.FactLimit < 0 || c.RuleLimit < 0 {
		return fmt.Errorf("%w: fact_limit/rule_limit must be >= 0", internalerr.ErrConfiguration)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: timeout_seconds must be >= 0", internalerr.ErrConfiguration)
	}
	switch c.ValidationLevel {
	case LevelStrict, LevelNormal, LevelLenient, "":
	default:
		return fmt.Errorf("%w: unknown validation_level %q", internalerr.ErrConfiguration, c.ValidationLevel)
	}
	switch c.ReportFormat {
	case ReportDetailed, ReportSummary, ReportMinimal, "":
	default:
		return fmt.Errorf("%w: unknown report_format %q", internalerr.ErrConfiguration, c.ReportFormat)
	}
	return nil
}
