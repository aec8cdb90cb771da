package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/digimosa/gdpr-scan/internal/enrich"
	"github.com/digimosa/gdpr-scan/internal/extractor"
	"github.com/digimosa/gdpr-scan/internal/scoring"
	"github.com/digimosa/gdpr-scan/internal/validators"
)

const EnvPrefix = "GDPRSCAN"

type Config struct {
	RootPath         string        `mapstructure:"root_path"`
	Workers          int           `mapstructure:"workers"`
	ArtifactTimeout  time.Duration `mapstructure:"artifact_timeout"`
	MaxArtifactBytes int64         `mapstructure:"max_artifact_bytes"`
	ContextWindow    int           `mapstructure:"context_window"`
	MinConfidence    float64       `mapstructure:"min_confidence"`
	Region           string        `mapstructure:"region"`
	// Redact masks matched values in findings and reports.
	Redact  bool `mapstructure:"redact"`
	Verbose bool `mapstructure:"verbose"`

	Rules RulesConfig `mapstructure:"rules"`

	IgnoreFile string `mapstructure:"ignore_file"`
	// WhitelistPath is the path to the file containing allowlisted values
	WhitelistPath string `mapstructure:"whitelist_path"`
	BaselineFile  string `mapstructure:"baseline_file"`

	Scoring ScoringConfig `mapstructure:"scoring"`
	Retry   RetryConfig   `mapstructure:"retry"`

	DBPath string `mapstructure:"db_path"`
	// Blame attaches git commit info to findings when the root is a work tree.
	Blame bool `mapstructure:"blame"`
}

type RulesConfig struct {
	Files    []string `mapstructure:"files"`
	Literals []string `mapstructure:"literals"`
	Gitleaks bool     `mapstructure:"gitleaks"`
	// GitleaksConfig is an optional gitleaks TOML file; empty means the
	// bundled gitleaks rules.
	GitleaksConfig string `mapstructure:"gitleaks_config"`
}

type ScoringConfig struct {
	scoring.ScoringConfig `mapstructure:",squash"`
	StorageLimitDays      int `mapstructure:"storage_limit_days"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		RootPath:         ".",
		Workers:          runtime.NumCPU(),
		ArtifactTimeout:  20 * time.Second,
		MaxArtifactBytes: extractor.DefaultMaxBytes,
		ContextWindow:    extractor.DefaultContextWindow,
		MinConfidence:    validators.DefaultMinConfidence,
		Region:           enrich.DefaultRegion,
		Redact:           true,
		WhitelistPath:    "whitelist.txt",
		Scoring: ScoringConfig{
			ScoringConfig:    scoring.DefaultScoringConfig(),
			StorageLimitDays: enrich.DefaultStorageLimitDays,
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 100 * time.Millisecond,
		},
		DBPath: "gdpr-scan.db",
	}
}

// Load reads configuration from path (yaml, json or toml by extension) on
// top of the defaults, then applies GDPRSCAN_* environment overrides. An
// empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("root_path", d.RootPath)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("artifact_timeout", d.ArtifactTimeout)
	v.SetDefault("max_artifact_bytes", d.MaxArtifactBytes)
	v.SetDefault("context_window", d.ContextWindow)
	v.SetDefault("min_confidence", d.MinConfidence)
	v.SetDefault("region", d.Region)
	v.SetDefault("redact", d.Redact)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("rules.files", append([]string{}, d.Rules.Files...))
	v.SetDefault("rules.literals", append([]string{}, d.Rules.Literals...))
	v.SetDefault("rules.gitleaks", d.Rules.Gitleaks)
	v.SetDefault("rules.gitleaks_config", d.Rules.GitleaksConfig)
	v.SetDefault("ignore_file", d.IgnoreFile)
	v.SetDefault("whitelist_path", d.WhitelistPath)
	v.SetDefault("baseline_file", d.BaselineFile)
	v.SetDefault("scoring.high", d.Scoring.High)
	v.SetDefault("scoring.medium", d.Scoring.Medium)
	v.SetDefault("scoring.low", d.Scoring.Low)
	v.SetDefault("scoring.storage_limit_days", d.Scoring.StorageLimitDays)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initial_interval", d.Retry.InitialInterval)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("blame", d.Blame)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.ArtifactTimeout <= 0 {
		errs = append(errs, fmt.Errorf("artifact_timeout must be positive, got %s", c.ArtifactTimeout))
	}
	if c.MaxArtifactBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_artifact_bytes must be positive, got %d", c.MaxArtifactBytes))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("min_confidence must be within [0,1], got %v", c.MinConfidence))
	}
	if c.Scoring.High < 0 || c.Scoring.Medium < 0 || c.Scoring.Low < 0 {
		errs = append(errs, errors.New("scoring weights must not be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	return errors.Join(errs...)
}
