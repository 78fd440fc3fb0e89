package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quincunx271/nickeltools/internal/config"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

func TestScheduler_ScheduleCron(t *testing.T) {
	t.Run("returns job id for valid cron", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleCron("nightly", "0 3 * * *", func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects invalid cron", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleCron("nightly", "this is not a cron", func() {})
		require.Error(t, err)
	})
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	_, err = s.ScheduleEvery("bench", 0, func() {})
	require.Error(t, err)

	var runs atomic.Int32
	id, err := s.ScheduleEvery("bench", time.Hour, func() { runs.Add(1) })
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRunJobsContinuesAfterFailure(t *testing.T) {
	jobs := []config.BenchJob{{Bench: "a", Which: "x"}, {Bench: "b", Which: "x"}, {Bench: "c", Which: "x"}}
	var ran []string
	failed := RunJobs(context.Background(), jobs, func(_ context.Context, j config.BenchJob) error {
		ran = append(ran, j.Bench)
		if j.Bench == "b" {
			return errors.New("boom")
		}
		return nil
	})
	require.Equal(t, 1, failed)
	require.Equal(t, []string{"a", "b", "c"}, ran)
}

func TestInstall(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	noop := func(context.Context, config.BenchJob) error { return nil }
	jobs := []config.BenchJob{{Bench: "a", Which: "x"}}

	_, err = s.Install(context.Background(), config.ScheduleConfig{Interval: "24h"}, noop)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = s.Install(context.Background(), config.ScheduleConfig{Jobs: jobs}, noop)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	id, err := s.Install(context.Background(), config.ScheduleConfig{Cron: "0 3 * * *", Jobs: jobs}, noop)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	id, err = s.Install(context.Background(), config.ScheduleConfig{Interval: "24h", Jobs: jobs}, noop)
	require.NoError(t, err)
	require.NotEmpty(t, id)
}
