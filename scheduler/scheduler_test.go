package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casa_subastas/config"
	"casa_subastas/models"
	"casa_subastas/syncer"
)

type fakeRunner struct {
	calls atomic.Int32
	err   error
}

func (r *fakeRunner) RunDaily(ctx context.Context) (models.SyncResult, error) {
	r.calls.Add(1)
	return models.SyncResult{Added: 2, TotalProcessed: 2}, r.err
}

func TestCronScheduleStatus(t *testing.T) {
	s := New(config.SchedulerConfig{Cron: "0 2 * * *"}, &fakeRunner{})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	jobs := s.Status()
	require.Len(t, jobs, 1)
	assert.Equal(t, DailySyncJob, jobs[0].Name)
	assert.Equal(t, "0 2 * * *", jobs[0].Schedule)
	assert.True(t, jobs[0].Enabled)
	require.NotNil(t, jobs[0].NextRun)
	assert.Equal(t, 2, jobs[0].NextRun.Hour())
	assert.Equal(t, 0, jobs[0].NextRun.Minute())
}

func TestInvalidCron(t *testing.T) {
	s := New(config.SchedulerConfig{Cron: "not a cron"}, &fakeRunner{})
	assert.Error(t, s.Start(context.Background()))
}

func TestDisableAndEnable(t *testing.T) {
	s := New(config.SchedulerConfig{Cron: "0 2 * * *"}, &fakeRunner{})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	assert.True(t, s.DisableJob(DailySyncJob))
	jobs := s.Status()
	assert.False(t, jobs[0].Enabled)
	assert.Nil(t, jobs[0].NextRun)

	found, err := s.EnableJob(DailySyncJob)
	require.NoError(t, err)
	assert.True(t, found)
	jobs = s.Status()
	assert.True(t, jobs[0].Enabled)
	assert.NotNil(t, jobs[0].NextRun)

	assert.False(t, s.DisableJob("unknown"))
	found, err = s.EnableJob("unknown")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestIntervalSchedule(t *testing.T) {
	runner := &fakeRunner{}
	s := New(config.SchedulerConfig{Interval: 10 * time.Millisecond}, runner)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	require.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	jobs := s.Status()
	assert.Equal(t, "@every 10ms", jobs[0].Schedule)
	require.NotNil(t, jobs[0].LastRun)
	require.NotNil(t, jobs[0].LastResult)
	assert.Equal(t, 2, jobs[0].LastResult.Added)
}

func TestIntervalDisabledDoesNotRun(t *testing.T) {
	runner := &fakeRunner{}
	s := New(config.SchedulerConfig{Interval: 10 * time.Millisecond}, runner)
	s.DisableJob(DailySyncJob)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runner.calls.Load())
}

func TestNoSchedule(t *testing.T) {
	s := New(config.SchedulerConfig{}, &fakeRunner{})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	jobs := s.Status()
	assert.False(t, jobs[0].Enabled)
	_, err := s.EnableJob(DailySyncJob)
	assert.Error(t, err)
}

func TestTriggerNow(t *testing.T) {
	runner := &fakeRunner{}
	s := New(config.SchedulerConfig{}, runner)

	result, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, int32(1), runner.calls.Load())
	assert.NotNil(t, s.Status()[0].LastRun)
}

func TestTriggerNow_InProgressNotRecorded(t *testing.T) {
	runner := &fakeRunner{err: syncer.ErrSyncInProgress}
	s := New(config.SchedulerConfig{}, runner)

	_, err := s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, syncer.ErrSyncInProgress)
	assert.Nil(t, s.Status()[0].LastRun)
}
