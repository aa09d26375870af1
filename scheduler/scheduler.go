package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"casa_subastas/config"
	"casa_subastas/models"
	"casa_subastas/syncer"
)

const DailySyncJob = "daily_property_sync"

// DailyRunner runs the scheduled sync. syncer.Syncer implements it.
type DailyRunner interface {
	RunDaily(ctx context.Context) (models.SyncResult, error)
}

type JobStatus struct {
	Name       string             `json:"name"`
	Schedule   string             `json:"schedule"`
	Enabled    bool               `json:"enabled"`
	NextRun    *time.Time         `json:"nextRun,omitempty"`
	LastRun    *time.Time         `json:"lastRun,omitempty"`
	LastError  string             `json:"lastError,omitempty"`
	LastResult *models.SyncResult `json:"lastResult,omitempty"`
}

// Scheduler fires the daily sync from a cron expression, or from a fixed
// interval when no expression is configured.
type Scheduler struct {
	cfg    config.SchedulerConfig
	runner DailyRunner
	cron   *cron.Cron
	stopCh chan struct{}

	mu       sync.Mutex
	ctx      context.Context
	entryID  cron.EntryID
	enabled  bool
	started  bool
	ticker   *time.Ticker
	lastTick time.Time

	lastRun    *time.Time
	lastErr    error
	lastResult *models.SyncResult
}

func New(cfg config.SchedulerConfig, runner DailyRunner) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		runner:  runner,
		cron:    cron.New(),
		stopCh:  make(chan struct{}),
		enabled: true,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = ctx
	s.started = true

	if s.cfg.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Cron)
		if _, err := cron.ParseStandard(s.cfg.Cron); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		if s.enabled {
			if err := s.addCronJob(); err != nil {
				return err
			}
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		s.lastTick = time.Now()
		go s.runTicker(ctx)
	} else {
		s.enabled = false
		log.Println("No schedule configured, syncs only run when triggered")
	}

	return nil
}

func (s *Scheduler) addCronJob() error {
	id, err := s.cron.AddFunc(s.cfg.Cron, s.runJob)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.entryID = id
	return nil
}

func (s *Scheduler) runTicker(ctx context.Context) {
	for {
		select {
		case t := <-s.ticker.C:
			s.mu.Lock()
			s.lastTick = t
			enabled := s.enabled
			s.mu.Unlock()
			if enabled {
				s.runJob()
			}
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the schedule and waits for a running cron job to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()

	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.mu.Unlock()

	<-done.Done()
}

func (s *Scheduler) runJob() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Println("Starting scheduled daily property sync...")
	if _, err := s.run(ctx); err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			log.Println("Scheduled sync skipped: a sync is already running")
			return
		}
		log.Printf("Cron job %s failed: %v", DailySyncJob, err)
	}
}

func (s *Scheduler) run(ctx context.Context) (models.SyncResult, error) {
	result, err := s.runner.RunDaily(ctx)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		return result, err
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.lastErr = err
	s.lastResult = &result
	s.mu.Unlock()
	return result, err
}

// TriggerNow runs the daily job synchronously, outside the schedule.
func (s *Scheduler) TriggerNow(ctx context.Context) (models.SyncResult, error) {
	return s.run(ctx)
}

// EnableJob turns the named job back on. It reports whether the job exists.
func (s *Scheduler) EnableJob(name string) (bool, error) {
	if name != DailySyncJob {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled {
		return true, nil
	}
	if s.cfg.Cron == "" && s.cfg.Interval <= 0 {
		return true, fmt.Errorf("no schedule configured for %s", name)
	}
	if s.cfg.Cron != "" {
		if err := s.addCronJob(); err != nil {
			return true, err
		}
	}
	s.enabled = true
	log.Printf("Job %s enabled", name)
	return true, nil
}

// DisableJob stops the named job from firing. It reports whether the job exists.
func (s *Scheduler) DisableJob(name string) bool {
	if name != DailySyncJob {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return true
	}
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	s.enabled = false
	log.Printf("Job %s disabled", name)
	return true
}

// Status lists the scheduled jobs.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := JobStatus{
		Name:       DailySyncJob,
		Schedule:   s.cfg.Cron,
		Enabled:    s.enabled,
		LastRun:    s.lastRun,
		LastResult: s.lastResult,
	}
	if st.Schedule == "" && s.cfg.Interval > 0 {
		st.Schedule = "@every " + s.cfg.Interval.String()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}

	if s.enabled && s.started {
		switch {
		case s.entryID != 0:
			e := s.cron.Entry(s.entryID)
			next := e.Next
			if next.IsZero() && e.Schedule != nil {
				next = e.Schedule.Next(time.Now())
			}
			if !next.IsZero() {
				st.NextRun = &next
			}
		case s.ticker != nil:
			next := s.lastTick.Add(s.cfg.Interval)
			st.NextRun = &next
		}
	}
	return []JobStatus{st}
}
