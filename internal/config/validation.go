package config

import (
	"fmt"
	"time"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// Validate checks value ranges after defaults were applied.
func (c *Config) Validate() error {
	b := c.Bench
	switch {
	case b.Timeout < 0:
		return invalid("bench.timeout must be positive")
	case b.MaxEstimateSeconds < 0:
		return invalid("bench.max_estimate_seconds must be positive")
	case b.MinRepetitions < 1:
		return invalid("bench.min_repetitions must be at least 1")
	case b.MaxRepetitions < b.MinRepetitions:
		return invalid(fmt.Sprintf("bench.max_repetitions (%d) is below bench.min_repetitions (%d)", b.MaxRepetitions, b.MinRepetitions))
	case b.EstimateRepetitions < 1 || b.BaselineRepetitions < 1 || b.BaselineSamples < 1:
		return invalid("bench repetition counts must be at least 1")
	}
	if b.Store != "file" && b.Store != "sqlite" {
		return invalid(fmt.Sprintf("bench.store must be \"file\" or \"sqlite\", got %q", b.Store))
	}

	s := c.Schedule
	if s.Interval != "" && s.Cron != "" {
		return invalid("schedule.interval and schedule.cron are mutually exclusive")
	}
	if s.Interval != "" {
		d, err := time.ParseDuration(s.Interval)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid schedule.interval").Fatal().Build()
		}
		if d <= 0 {
			return invalid("schedule.interval must be positive")
		}
	}
	for i, job := range s.Jobs {
		if job.Bench == "" || job.Which == "" || job.BenchFile == "" {
			return invalid(fmt.Sprintf("schedule.jobs[%d] needs bench, which and bench_file", i))
		}
		if len(job.Ns) == 0 {
			return invalid(fmt.Sprintf("schedule.jobs[%d] has no ns", i))
		}
	}
	return nil
}

func invalid(msg string) error {
	return ferrors.ConfigError(msg).Build()
}
