// Package schedule runs configured benchmark jobs periodically.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/quincunx271/nickeltools/internal/config"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to create scheduler").Fatal().Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval, first immediately. Runs never
// overlap; a tick that arrives while task is still running is skipped.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", ferrors.ValidationError("interval must be positive").WithContext("interval", interval.String()).Build()
	}
	return s.schedule(name, gocron.DurationJob(interval), task, gocron.WithStartAt(gocron.WithStartImmediately()))
}

// ScheduleCron runs task on a five-field cron expression.
func (s *Scheduler) ScheduleCron(name, expr string, task func()) (string, error) {
	return s.schedule(name, gocron.CronJob(expr, false), task)
}

func (s *Scheduler) schedule(name string, def gocron.JobDefinition, task func(), extra ...gocron.JobOption) (string, error) {
	options := append([]gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, extra...)
	job, err := s.scheduler.NewJob(def, gocron.NewTask(task), options...)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "failed to schedule job").
			WithContext("job", name).Build()
	}
	return job.ID().String(), nil
}

// JobFunc runs one configured benchmark job.
type JobFunc func(ctx context.Context, job config.BenchJob) error

// RunJobs runs jobs one after another. A failing job is logged and the rest
// still run.
func RunJobs(ctx context.Context, jobs []config.BenchJob, run JobFunc) (failed int) {
	for _, job := range jobs {
		if ctx.Err() != nil {
			return failed
		}
		log := slog.With(logfields.Benchmark(job.Bench), logfields.Which(job.Which))
		start := time.Now()
		if err := run(ctx, job); err != nil {
			failed++
			log.Error("Scheduled benchmark failed", logfields.Error(err))
			continue
		}
		log.Info("Scheduled benchmark finished", logfields.Duration(time.Since(start)))
	}
	return failed
}

// Install schedules every job of cfg as a single sequential task.
func (s *Scheduler) Install(ctx context.Context, cfg config.ScheduleConfig, run JobFunc) (string, error) {
	if len(cfg.Jobs) == 0 {
		return "", ferrors.ConfigError("no scheduled benchmark jobs configured").Build()
	}
	task := func() { RunJobs(ctx, cfg.Jobs, run) }
	if cfg.Cron != "" {
		return s.ScheduleCron("bench", cfg.Cron, task)
	}
	if cfg.Interval == "" {
		return "", ferrors.ConfigError("schedule needs an interval or a cron expression").Build()
	}
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "invalid schedule interval").Build()
	}
	return s.ScheduleEvery("bench", interval, task)
}
