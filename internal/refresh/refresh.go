// Package refresh keeps the latest calendar snapshot current on a cron
// schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dayboard/internal/ics"
	appLog "dayboard/internal/log"
	"dayboard/internal/metrics"
)

// ErrAllSourcesFailed is returned when every configured source failed.
var ErrAllSourcesFailed = errors.New("refresh: every calendar source failed")

// Config wires a Service.
type Config struct {
	Fetcher  *ics.Fetcher
	Sources  []ics.Source
	Window   ics.Window
	Location *time.Location
	// Schedule is a 5-field cron expression. Empty disables scheduling.
	Schedule string
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Service owns the current snapshot. Readers never see a partially built
// snapshot, and a failed refresh keeps the previous one.
type Service struct {
	cfg Config

	mu      sync.RWMutex
	snap    ics.Snapshot
	have    bool
	lastErr error
	lastRun time.Time

	runMu sync.Mutex
	cron  *cron.Cron
}

func New(cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{cfg: cfg}
}

// Status describes the last refresh attempt.
type Status struct {
	HasSnapshot bool      `json:"has_snapshot"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
	LastRun     time.Time `json:"last_run,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Events      int       `json:"events"`
}

// Snapshot returns the latest successful snapshot and whether one exists.
func (s *Service) Snapshot() (ics.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.have
}

func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		HasSnapshot: s.have,
		FetchedAt:   s.snap.FetchedAt,
		LastRun:     s.lastRun,
		Events:      len(s.snap.Events),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Refresh fetches every source and swaps in the new snapshot. Concurrent
// calls are serialized.
func (s *Service) Refresh(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := time.Now()
	now := s.cfg.Now().In(s.cfg.Location)

	snap, err := ics.Load(ctx, s.cfg.Fetcher, s.cfg.Sources, now, s.cfg.Window)
	if err == nil && len(s.cfg.Sources) > 0 && len(snap.Errors) >= len(s.cfg.Sources) {
		err = ErrAllSourcesFailed
	}
	s.cfg.Metrics.ObserveRefresh(time.Since(started), len(snap.Events), len(snap.Errors), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = now
	s.lastErr = err
	if err != nil {
		appLog.Error("refresh failed, keeping previous snapshot", err, "sources", len(s.cfg.Sources))
		return fmt.Errorf("refresh: %w", err)
	}
	s.snap = snap
	s.have = true

	appLog.Info("refresh done",
		"events", len(snap.Events),
		"source_errors", len(snap.Errors),
		"truncated", len(snap.Truncated),
		"took", time.Since(started).Round(time.Millisecond).String(),
	)
	return nil
}

// Start runs an initial refresh and then schedules refreshes. Stop must be
// called to release the scheduler.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}
	if s.cfg.Schedule == "" {
		return nil
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
		cron.WithLocation(s.cfg.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		_ = s.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("refresh: schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.cron = c
	appLog.Info("refresh scheduled", "cron", s.cfg.Schedule)
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// cronLogger routes scheduler logs through the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
