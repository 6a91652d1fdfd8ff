package noema

import (
	"time"

	"github.com/cognicore/noema/pkg/noema/codegen"
	"github.com/cognicore/noema/pkg/noema/config"
	"github.com/cognicore/noema/pkg/noema/shacl"
	"github.com/cognicore/noema/pkg/noema/validate"
)

// ConstraintSummary counts extracted and optimized constraints.
type ConstraintSummary struct {
	Total     int            `json:"total"`
	Optimized int            `json:"optimized"`
	ByType    map[string]int `json:"by_type"`
}

// OptimizationSummary aggregates the optimizer's estimates.
type OptimizationSummary struct {
	ByStrategy  map[string]int `json:"by_strategy"`
	TotalCost   float64        `json:"total_cost"`
	MemoryBytes int            `json:"memory_bytes"`
}

// ValidationReport is the user-facing validation record. Finding lists are
// present only at the detailed report level.
type ValidationReport struct {
	Valid               bool                 `json:"valid"`
	Timestamp           time.Time            `json:"timestamp"`
	Statistics          map[string]int       `json:"statistics,omitempty"`
	Constraints         ConstraintSummary    `json:"constraints"`
	Violations          []validate.Finding   `json:"violations,omitempty"`
	Warnings            []validate.Finding   `json:"warnings,omitempty"`
	Info                []validate.Finding   `json:"info,omitempty"`
	OptimizationSummary *OptimizationSummary `json:"optimization_summary,omitempty"`
}

// buildReport shapes a validation result at the requested detail level.
func buildReport(format config.ReportFormat, result *validate.Result, rules *shacl.Ruleset, optimized []codegen.OptimizedConstraint) *ValidationReport {
	byType := make(map[string]int)
	for _, r := range rules.Rules {
		byType[string(r.Kind)]++
	}

	report := &ValidationReport{
		Valid:     result.Valid,
		Timestamp: time.Now().UTC(),
		Constraints: ConstraintSummary{
			Total:     len(rules.Rules),
			Optimized: len(optimized),
			ByType:    byType,
		},
	}

	switch format {
	case config.ReportMinimal:
		report.Statistics = map[string]int{"violations": len(result.Violations)}
		return report
	case config.ReportSummary:
		report.Statistics = result.Statistics
		return report
	default:
		report.Statistics = result.Statistics
		report.Violations = result.Violations
		report.Warnings = result.Warnings
		report.Info = result.Info
	}

	if len(optimized) > 0 {
		summary := &OptimizationSummary{ByStrategy: make(map[string]int)}
		for _, oc := range optimized {
			summary.ByStrategy[string(oc.Strategy)]++
			summary.TotalCost += oc.EstimatedCost
			summary.MemoryBytes += oc.MemoryBytes
		}
		report.OptimizationSummary = summary
	}
	return report
}
