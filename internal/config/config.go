package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "nickeltools.yaml"

// Config represents the nickeltools configuration file.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Bench    BenchConfig    `yaml:"bench"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`
	Package  PackageConfig  `yaml:"package"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// BenchConfig holds the benchmark runner's tuning knobs.
type BenchConfig struct {
	Timeout             int     `yaml:"timeout"` // seconds per measured build
	MaxEstimateSeconds  float64 `yaml:"max_estimate_seconds"`
	EstimateRepetitions int     `yaml:"estimate_repetitions"`
	MinRepetitions      int     `yaml:"min_repetitions"`
	MaxRepetitions      int     `yaml:"max_repetitions"`
	BaselineRepetitions int     `yaml:"baseline_repetitions"`
	BaselineSamples     int     `yaml:"baseline_samples"`
	Store               string  `yaml:"store"` // "file" or "sqlite"
	ResultsFile         string  `yaml:"results_file,omitempty"`
	MetricsFile         string  `yaml:"metrics_file,omitempty"`
}

// NotifyConfig enables publishing finished result sets to NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Enabled reports whether a NATS server was configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// ScheduleConfig describes periodic benchmark runs.
type ScheduleConfig struct {
	Interval string     `yaml:"interval,omitempty"` // Go duration, e.g. "24h"
	Cron     string     `yaml:"cron,omitempty"`
	Jobs     []BenchJob `yaml:"jobs,omitempty"`
}

// BenchJob mirrors the flags of `bench run`.
type BenchJob struct {
	Bench          string `yaml:"bench"`
	Which          string `yaml:"which"`
	BenchFile      string `yaml:"bench_file"`
	Ns             []int  `yaml:"ns"`
	CMake          string `yaml:"cmake,omitempty"`
	CMakeBinaryDir string `yaml:"cmake_binary_dir"`
	WorkingDir     string `yaml:"working_dir"`
	GeneratedFile  string `yaml:"generated_file"`
	BuildTarget    string `yaml:"build_target"`
	CleanTarget    string `yaml:"clean_target"`
}

// PackageConfig holds Conan recipe metadata that is not derived from CMakeLists.txt.
type PackageConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	License    string `yaml:"license"`
	UploadURL  string `yaml:"upload_url"`
	TestFolder string `yaml:"test_folder"`
}

// Load loads configuration from the specified file. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", configPath).Build()
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
				Fatal().WithContext("path", configPath).Build()
		}
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Default()
	example.Notify = NotifyConfig{NATSURL: "nats://127.0.0.1:4222", Subject: "nickel.bench.results"}
	example.Schedule = ScheduleConfig{
		Interval: "24h",
		Jobs: []BenchJob{{
			Bench:          "kwargs",
			Which:          "nickel",
			BenchFile:      "benchmarks/kwargs.bench",
			Ns:             []int{1, 2, 4, 8, 16},
			CMakeBinaryDir: "build",
			WorkingDir:     "build/benchmarks/buildbench",
			GeneratedFile:  "build/benchmarks/bench.cpp",
			BuildTarget:    "bench-compile",
			CleanTarget:    "bench-clean",
		}},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file").WithCause(err).
			WithContext("path", configPath).Build()
	}
	return nil
}
