package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/noema/pkg/noema/internalerr"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8, cfg.MaxCycles)
	assert.Equal(t, 0.95, cfg.ConvergenceThreshold)
	assert.True(t, cfg.ProofGeneration)
	assert.True(t, cfg.ConstraintOptimization)
	assert.True(t, cfg.InlineSimpleConstraints)
	assert.Equal(t, LevelNormal, cfg.ValidationLevel)
	assert.Equal(t, ReportDetailed, cfg.ReportFormat)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.MaxCycles = 0 },
		func(c *Config) { c.ConvergenceThreshold = 1.5 },
		func(c *Config) { c.FactLimit = -1 },
		func(c *Config) { c.TimeoutSeconds = -2 },
		func(c *Config) { c.ValidationLevel = "paranoid" },
		func(c *Config) { c.ReportFormat = "verbose" },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		err := cfg.Validate()
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.Is(err, internalerr.ErrConfiguration), "case %d", i)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"max_cycles: 3\nparallel_reasoning: true\nreport_format: summary\nconvergence_threshold: 0.8\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxCycles)
	assert.True(t, cfg.ParallelReasoning)
	assert.Equal(t, ReportSummary, cfg.ReportFormat)
	assert.Equal(t, 0.8, cfg.ConvergenceThreshold)
	// Untouched keys keep their defaults.
	assert.True(t, cfg.ProofGeneration)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_cycles: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrConfiguration))
}
