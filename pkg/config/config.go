// Package config provides configuration for the parqscan benchmark harness.
//
// Configuration is resolved in order of precedence: explicit flags (set by
// the CLI), environment variables (FILE, NEEDLE, ...), an optional YAML file,
// then defaults. The sample file path deliberately comes from the FILE
// environment variable so runs can be pointed at different corpora without
// editing anything.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/querylab/parqscan/pkg/errors"
)

// Config holds all settings for a benchmark run.
type Config struct {
	// File is the path of the Parquet file under test
	File string `mapstructure:"file" yaml:"file"`
	// Table is the name the file is bound to in the query engine
	Table string `mapstructure:"table" yaml:"table"`
	// Needle is the literal substring searched for
	Needle string `mapstructure:"needle" yaml:"needle"`
	// BatchSizes are the decoded-batch sizes exercised by the batch scanner
	BatchSizes []int `mapstructure:"batch_sizes" yaml:"batch_sizes"`
	// Iterations is the number of timed trials per strategy
	Iterations int `mapstructure:"iterations" yaml:"iterations"`
	// Output is the directory benchmark reports are written to
	Output string `mapstructure:"output" yaml:"output"`
	// Compression selects the report compression algorithm (none, gzip, snappy, s2, zstd, lz4)
	Compression string `mapstructure:"compression" yaml:"compression"`
	// LogLevel sets the harness log level
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// EnableMetrics turns on Prometheus metric recording
	EnableMetrics bool `mapstructure:"enable_metrics" yaml:"enable_metrics"`
	// EnableTracing turns on OpenTelemetry span export for each strategy
	EnableTracing bool `mapstructure:"enable_tracing" yaml:"enable_tracing"`
}

// Default returns the default harness configuration.
func Default() *Config {
	return &Config{
		Table:       "tbl",
		Needle:      "k8s",
		BatchSizes:  []int{1024, 4096, 8192},
		Iterations:  3,
		Output:      "benchmark-results",
		Compression: "zstd",
		LogLevel:    "info",
	}
}

// Load resolves the configuration from the environment and an optional YAML
// file. An empty configPath skips the file step.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("table", def.Table)
	v.SetDefault("needle", def.Needle)
	v.SetDefault("batch_sizes", def.BatchSizes)
	v.SetDefault("iterations", def.Iterations)
	v.SetDefault("output", def.Output)
	v.SetDefault("compression", def.Compression)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The sample file and needle are conventionally passed as bare env vars.
	_ = v.BindEnv("file", "FILE")
	_ = v.BindEnv("needle", "NEEDLE")

	// The file step goes through the ${VAR} substituting loader; env vars
	// still take precedence over file values inside viper.
	if configPath != "" {
		fileCfg := map[string]interface{}{}
		if err := LoadYAML(configPath, &fileCfg); err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(fileCfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to merge config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to unmarshal config")
	}

	return cfg, nil
}

// Validate checks the configuration for a benchmark run.
func (c *Config) Validate() error {
	if c.File == "" {
		return errors.New(errors.ErrorTypeConfig, "no input file: set FILE or --file")
	}
	if c.Needle == "" {
		return errors.New(errors.ErrorTypeConfig, "needle must not be empty")
	}
	if c.Table == "" {
		return errors.New(errors.ErrorTypeConfig, "table name must not be empty")
	}
	if c.Iterations < 1 {
		return errors.Newf(errors.ErrorTypeConfig, "iterations must be >= 1, got %d", c.Iterations)
	}
	if len(c.BatchSizes) == 0 {
		return errors.New(errors.ErrorTypeConfig, "at least one batch size is required")
	}
	for _, bs := range c.BatchSizes {
		if bs < 1 {
			return errors.Newf(errors.ErrorTypeConfig, "batch size must be >= 1, got %d", bs)
		}
	}
	return nil
}
