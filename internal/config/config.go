// Package config holds search settings unmarshalled from viper. Values come
// from defaults, an optional hmmsearch.yaml, GOHMMER_* environment variables
// and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"

	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/profile"
	"github.com/dshills/gohmmer/internal/search"
)

// EnvPrefix is the prefix of environment overrides, GOHMMER_DB_PATH and so on
const EnvPrefix = "GOHMMER"

// DefaultCacheSize is the number of parsed model files kept by the MCP server
const DefaultCacheSize = 32

// Thresholds are E-value and bit score cutoffs for hits and domains. A bit
// score above zero replaces the E-value cutoff.
type Thresholds struct {
	EValue    float64 `mapstructure:"evalue"`
	DomEValue float64 `mapstructure:"dom-evalue"`
	Score     float64 `mapstructure:"score"`
	DomScore  float64 `mapstructure:"dom-score"`
}

// Filters are the P-value thresholds of the acceleration filters
type Filters struct {
	F1 float64 `mapstructure:"f1"`
	F2 float64 `mapstructure:"f2"`
	F3 float64 `mapstructure:"f3"`
}

// Config is the root-level settings struct
type Config struct {
	// stop after this many target sequences; -1 reads everything
	MaxSequences int `mapstructure:"max-sequences"`
	// target length the profile is configured for before the first target
	LengthHint int `mapstructure:"length-hint"`
	// models searched in parallel; 0 uses GOMAXPROCS
	Workers int `mapstructure:"workers"`

	Reporting Thresholds `mapstructure:"reporting"`
	Inclusion Thresholds `mapstructure:"inclusion"`

	// fixed search space sizes; 0 derives them from the search
	Z    float64 `mapstructure:"z"`
	DomZ float64 `mapstructure:"dom-z"`

	// turn all filters off
	Max     bool    `mapstructure:"max"`
	Filters Filters `mapstructure:"filters"`
	// model cutoffs: none, ga, tc or nc
	Cutoff string `mapstructure:"cutoff"`

	// path of the run database
	DBPath string `mapstructure:"db-path"`
	// parsed model files kept in memory by the MCP server
	CacheSize int `mapstructure:"cache-size"`

	Verbose bool `mapstructure:"verbose"`
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("max-sequences", search.Unlimited)
	v.SetDefault("length-hint", profile.DefaultLengthHint)
	v.SetDefault("workers", 0)
	v.SetDefault("reporting.evalue", pipeline.DefaultReportE)
	v.SetDefault("reporting.dom-evalue", pipeline.DefaultDomReportE)
	v.SetDefault("reporting.score", 0.0)
	v.SetDefault("reporting.dom-score", 0.0)
	v.SetDefault("inclusion.evalue", pipeline.DefaultInclE)
	v.SetDefault("inclusion.dom-evalue", pipeline.DefaultDomInclE)
	v.SetDefault("inclusion.score", 0.0)
	v.SetDefault("inclusion.dom-score", 0.0)
	v.SetDefault("z", 0.0)
	v.SetDefault("dom-z", 0.0)
	v.SetDefault("max", false)
	v.SetDefault("filters.f1", pipeline.DefaultF1)
	v.SetDefault("filters.f2", pipeline.DefaultF2)
	v.SetDefault("filters.f3", pipeline.DefaultF3)
	v.SetDefault("cutoff", "none")
	v.SetDefault("db-path", "hmmsearch.db")
	v.SetDefault("cache-size", DefaultCacheSize)
	v.SetDefault("verbose", false)
}

// New returns a viper instance with defaults and environment overrides set
// up. Nested keys map to variables with dots and dashes replaced by
// underscores: reporting.dom-evalue is GOHMMER_REPORTING_DOM_EVALUE.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges settings from path, or from hmmsearch.yaml in the working
// directory when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hmmsearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	log.Printf("using config file %s", v.ConfigFileUsed())
	return nil
}

// Load unmarshals and validates the settings held by v
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that every setting is in range
func (c Config) Validate() error {
	if c.MaxSequences < search.Unlimited {
		return fmt.Errorf("max-sequences must be >= %d, got %d", search.Unlimited, c.MaxSequences)
	}
	if c.LengthHint <= 0 {
		return fmt.Errorf("length-hint must be > 0, got %d", c.LengthHint)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Z < 0 || c.DomZ < 0 {
		return errors.New("z and dom-z must be >= 0")
	}
	for name, t := range map[string]Thresholds{"reporting": c.Reporting, "inclusion": c.Inclusion} {
		if err := t.validate(name); err != nil {
			return err
		}
	}
	if !c.Max && (c.Filters.F1 <= 0 || c.Filters.F2 <= 0 || c.Filters.F3 <= 0) {
		return errors.New("filter thresholds f1, f2 and f3 must be > 0")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache-size must be > 0, got %d", c.CacheSize)
	}
	if _, err := ParseCutoff(c.Cutoff); err != nil {
		return err
	}
	return nil
}

// validate rejects E-value cutoffs that are not positive. Bit scores may be
// zero, which leaves the E-value cutoff in effect.
func (t Thresholds) validate(name string) error {
	if t.EValue <= 0 || t.DomEValue <= 0 {
		return fmt.Errorf("%s E-value thresholds must be > 0, got %g and %g", name, t.EValue, t.DomEValue)
	}
	if t.Score < 0 || t.DomScore < 0 {
		return fmt.Errorf("%s score thresholds must be >= 0, got %g and %g", name, t.Score, t.DomScore)
	}
	return nil
}

// ParseCutoff maps a cutoff name to its mode
func ParseCutoff(s string) (pipeline.CutoffMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return pipeline.CutoffNone, nil
	case "ga":
		return pipeline.CutoffGA, nil
	case "tc":
		return pipeline.CutoffTC, nil
	case "nc":
		return pipeline.CutoffNC, nil
	default:
		return pipeline.CutoffNone, fmt.Errorf("unknown cutoff %q (want none, ga, tc or nc)", s)
	}
}

// PipelineOptions converts the settings to pipeline options
func (c Config) PipelineOptions() pipeline.Options {
	cut, _ := ParseCutoff(c.Cutoff)
	return pipeline.Options{
		ReportE:    c.Reporting.EValue,
		DomReportE: c.Reporting.DomEValue,
		ReportT:    c.Reporting.Score,
		DomReportT: c.Reporting.DomScore,
		InclE:      c.Inclusion.EValue,
		DomInclE:   c.Inclusion.DomEValue,
		InclT:      c.Inclusion.Score,
		DomInclT:   c.Inclusion.DomScore,
		Z:          c.Z,
		DomZ:       c.DomZ,
		F1:         c.Filters.F1,
		F2:         c.Filters.F2,
		F3:         c.Filters.F3,
		Max:        c.Max,
		Cutoff:     cut,
	}
}

// SearchOptions returns executor options for these settings. logger may be nil.
func (c Config) SearchOptions(logger *log.Logger) []search.Option {
	return []search.Option{
		search.WithPipeline(c.PipelineOptions()),
		search.WithLengthHint(c.LengthHint),
		search.WithLogger(logger),
	}
}

// RunConfig returns the multi-model run settings for seqPath
func (c Config) RunConfig(seqPath string) search.RunConfig {
	return search.RunConfig{
		SeqPath:      seqPath,
		MaxSequences: c.MaxSequences,
		Workers:      c.Workers,
	}
}
