package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/search"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, search.Unlimited, c.MaxSequences)
	assert.Equal(t, 100, c.LengthHint)
	assert.Equal(t, pipeline.DefaultReportE, c.Reporting.EValue)
	assert.Equal(t, pipeline.DefaultInclE, c.Inclusion.EValue)
	assert.Equal(t, pipeline.DefaultF2, c.Filters.F2)
	assert.Equal(t, "hmmsearch.db", c.DBPath)
	assert.Equal(t, DefaultCacheSize, c.CacheSize)
	assert.False(t, c.Max)

	opts := c.PipelineOptions()
	assert.Equal(t, pipeline.CutoffNone, opts.Cutoff)
	assert.Equal(t, 0.0, opts.Z)
	_, err = pipeline.New(opts)
	assert.NoError(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GOHMMER_MAX_SEQUENCES", "25")
	t.Setenv("GOHMMER_REPORTING_DOM_EVALUE", "0.5")
	t.Setenv("GOHMMER_DB_PATH", "/tmp/runs.db")
	t.Setenv("GOHMMER_MAX", "true")

	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, 25, c.MaxSequences)
	assert.Equal(t, 0.5, c.Reporting.DomEValue)
	assert.Equal(t, "/tmp/runs.db", c.DBPath)
	assert.True(t, c.Max)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	yaml := `
z: 1000
cutoff: ga
filters:
  f1: 0.05
inclusion:
  evalue: 0.001
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	v := New()
	require.NoError(t, ReadFile(v, path))
	c, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, c.Z)
	assert.Equal(t, 0.05, c.Filters.F1)
	assert.Equal(t, pipeline.DefaultF3, c.Filters.F3, "unset keys keep defaults")
	assert.Equal(t, 0.001, c.Inclusion.EValue)

	opts := c.PipelineOptions()
	assert.Equal(t, pipeline.CutoffGA, opts.Cutoff)
	assert.Equal(t, 1000.0, opts.Z)
}

func TestReadFile_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, ReadFile(New(), ""), "default file is optional")
	assert.Error(t, ReadFile(New(), "/nonexistent/settings.yaml"))
}

func TestFlagsOverride(t *testing.T) {
	t.Setenv("GOHMMER_WORKERS", "2")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int("workers", 0, "")
	cmd.Flags().Float64("E", 0, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--workers", "6", "--E", "0.1"}))

	v := New()
	require.NoError(t, v.BindPFlag("workers", cmd.Flags().Lookup("workers")))
	require.NoError(t, v.BindPFlag("reporting.evalue", cmd.Flags().Lookup("E")))

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Workers)
	assert.Equal(t, 0.1, c.Reporting.EValue)

	rc := c.RunConfig("targets.fa")
	assert.Equal(t, "targets.fa", rc.SeqPath)
	assert.Equal(t, 6, rc.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"max sequences", func(c *Config) { c.MaxSequences = -2 }},
		{"length hint", func(c *Config) { c.LengthHint = -1 }},
		{"zero length hint", func(c *Config) { c.LengthHint = 0 }},
		{"zero evalue", func(c *Config) { c.Reporting.EValue = 0 }},
		{"negative inclusion dom evalue", func(c *Config) { c.Inclusion.DomEValue = -1 }},
		{"negative score", func(c *Config) { c.Reporting.Score = -3 }},
		{"zero filter", func(c *Config) { c.Filters.F2 = 0 }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"z", func(c *Config) { c.Z = -5 }},
		{"cache size", func(c *Config) { c.CacheSize = 0 }},
		{"cutoff", func(c *Config) { c.Cutoff = "xx" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(New())
			require.NoError(t, err)
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_ZeroLengthHint(t *testing.T) {
	v := New()
	v.Set("length-hint", 0)
	_, err := Load(v)
	assert.ErrorContains(t, err, "length-hint must be > 0")
}

func TestValidate_MaxIgnoresFilters(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)
	c.Max = true
	c.Filters = Filters{}
	assert.NoError(t, c.Validate())
}

func TestParseCutoff(t *testing.T) {
	for in, want := range map[string]pipeline.CutoffMode{
		"":     pipeline.CutoffNone,
		"none": pipeline.CutoffNone,
		"GA":   pipeline.CutoffGA,
		"tc":   pipeline.CutoffTC,
		" nc ": pipeline.CutoffNC,
	} {
		got, err := ParseCutoff(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestSearchOptions(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)
	assert.Len(t, c.SearchOptions(nil), 3)
}
