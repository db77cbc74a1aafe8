// Package scheduler runs scrape cycles on a fixed interval, independent of request traffic.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// State is the scheduler lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

const (
	DefaultInterval     = 5 * time.Minute
	DefaultCycleTimeout = 2 * time.Minute
)

// ScrapeFunc performs one scrape cycle.
type ScrapeFunc func(ctx context.Context) error

// Status is a point-in-time view of the scheduler.
type Status struct {
	State     State     `json:"state"`
	Interval  string    `json:"interval"`
	LastRun   time.Time `json:"lastRun,omitempty"`
	NextRun   time.Time `json:"nextRun,omitempty"`
	Runs      int64     `json:"runs"`
	LastError string    `json:"lastError,omitempty"`
}

// Scheduler is Idle until Start registers the recurring job, and Idle again after Stop.
type Scheduler struct {
	scrape       ScrapeFunc
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	state   State
	cron    *cron.Cron
	entryID cron.EntryID
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	statsMu sync.Mutex
	lastRun time.Time
	lastErr string
	runs    int64
}

type Option func(*Scheduler)

func WithLogger(l *zap.Logger) Option { return func(s *Scheduler) { s.logger = l } }

func WithCycleTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.cycleTimeout = d
		}
	}
}

func New(scrape ScrapeFunc, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		scrape:       scrape,
		interval:     interval,
		cycleTimeout: DefaultCycleTimeout,
		logger:       zap.NewNop(),
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs one scrape immediately and registers the recurring job. It is a no-op
// returning false when the scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		s.logger.Debug("scheduler already running")
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.entryID = c.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.run(runCtx, "schedule")
	}))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(runCtx, "startup")
	}()

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.state = StateRunning
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return true
}

// Stop removes the recurring job, cancels in-flight cycles and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.state = StateIdle
	s.mu.Unlock()

	stopped := c.Stop()
	cancel()
	<-stopped.Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RefreshNow runs a scrape in the caller's goroutine without touching the recurring
// schedule. It works in either state.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	return s.run(ctx, "manual")
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := Status{State: s.state, Interval: s.interval.String()}
	if s.cron != nil {
		st.NextRun = s.cron.Entry(s.entryID).Next
	}
	s.mu.Unlock()

	s.statsMu.Lock()
	st.LastRun, st.Runs, st.LastError = s.lastRun, s.runs, s.lastErr
	s.statsMu.Unlock()
	return st
}

func (s *Scheduler) run(ctx context.Context, trigger string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scrape panic: %v", r)
		}

		s.statsMu.Lock()
		s.lastRun = started
		s.runs++
		s.lastErr = ""
		if err != nil {
			s.lastErr = err.Error()
		}
		s.statsMu.Unlock()

		if err != nil {
			s.logger.Error("scrape cycle failed", zap.String("trigger", trigger), zap.Error(err))
			return
		}
		s.logger.Info("scrape cycle finished", zap.String("trigger", trigger), zap.Duration("duration", time.Since(started)))
	}()

	return s.scrape(ctx)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
