package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/metrics"
	"collection-sync/core/reconcile"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	// ErrInProgress is returned when a cycle for the kind is already running.
	ErrInProgress = errors.New("cycle already in progress")
	// ErrUnknownKind is returned for kinds without a registered provider.
	ErrUnknownKind = errors.New("no provider registered for kind")
	// ErrStopped is returned once Stop was called.
	ErrStopped = errors.New("scheduler stopped")
)

// Runner runs one fetch cycle. *reconcile.Reconciler implements it.
type Runner interface {
	RunCycle(ctx context.Context, adapter reconcile.Adapter) (*reconcile.CycleReport, error)
}

// JobStatus describes the last cycle of one provider.
type JobStatus struct {
	Kind       catalog.Kind    `json:"kind"`
	Interval   string          `json:"interval"`
	Running    bool            `json:"running"`
	LastRun    time.Time       `json:"lastRun,omitempty"`
	LastError  string          `json:"lastError,omitempty"`
	LastStats  reconcile.Stats `json:"lastStats"`
	SkipsTotal int64           `json:"skipsTotal"`
}

type job struct {
	adapter  reconcile.Adapter
	interval time.Duration
	running  atomic.Bool
	skips    atomic.Int64

	mu     sync.Mutex
	status JobStatus
}

// Scheduler runs one independent periodic cycle per provider. A tick is
// skipped while the previous cycle of the same provider is still running.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	logger *zap.Logger

	jobs map[catalog.Kind]*job

	// ctx is cancelled by Stop; cycles check it before each page and item.
	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
	inflight sync.WaitGroup
}

// New creates a Scheduler. Providers are added with Add before Start.
func New(runner Runner, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner: runner,
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		logger: logger,
		jobs:   make(map[catalog.Kind]*job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a provider to run every interval.
func (s *Scheduler) Add(adapter reconcile.Adapter, interval time.Duration) error {
	kind := adapter.Kind()
	if _, ok := s.jobs[kind]; ok {
		return fmt.Errorf("provider for %s already registered", kind)
	}
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for %s", interval, kind)
	}
	j := &job{adapter: adapter, interval: interval}
	j.status = JobStatus{Kind: kind, Interval: interval.String()}
	s.jobs[kind] = j

	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.tick(kind)
	}))
	return nil
}

// Start starts the timers. With runOnStart every provider also runs once
// immediately.
func (s *Scheduler) Start(runOnStart bool) {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("providers", len(s.jobs)))
	if !runOnStart {
		return
	}
	for _, kind := range s.Kinds() {
		if err := s.Trigger(kind); err != nil {
			s.logger.Warn("Failed to trigger initial cycle", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
}

// Kinds returns the registered kinds in a stable order.
func (s *Scheduler) Kinds() []catalog.Kind {
	kinds := make([]catalog.Kind, 0, len(s.jobs))
	for k := range s.jobs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (s *Scheduler) tick(kind catalog.Kind) {
	if s.stopping.Load() {
		s.logger.Info("Preventing refresh, shutting down", zap.String("kind", string(kind)))
		return
	}
	_, err := s.run(s.ctx, kind)
	if errors.Is(err, ErrInProgress) {
		s.logger.Info("Skipping refresh, still processing previous one", zap.String("kind", string(kind)))
	}
}

// Trigger starts a cycle for kind in the background. It fails fast when a
// cycle for kind is already running.
func (s *Scheduler) Trigger(kind catalog.Kind) error {
	j, ok := s.jobs[kind]
	if !ok {
		return fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	if s.stopping.Load() {
		return ErrStopped
	}
	if j.running.Load() {
		return fmt.Errorf("%s: %w", kind, ErrInProgress)
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.tick(kind)
	}()
	return nil
}

// RunNow runs a cycle for kind in the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, kind catalog.Kind) (*reconcile.CycleReport, error) {
	if s.stopping.Load() {
		return nil, ErrStopped
	}
	s.inflight.Add(1)
	defer s.inflight.Done()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	return s.run(ctx, kind)
}

func (s *Scheduler) run(ctx context.Context, kind catalog.Kind) (*reconcile.CycleReport, error) {
	j, ok := s.jobs[kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	if !j.running.CompareAndSwap(false, true) {
		j.skips.Add(1)
		metrics.SyncSkippedTicks.WithLabelValues(string(kind)).Inc()
		return nil, fmt.Errorf("%s: %w", kind, ErrInProgress)
	}
	defer j.running.Store(false)

	logger := s.logger.With(zap.String("kind", string(kind)))
	logger.Debug("Cycle started")

	report, err := s.runner.RunCycle(ctx, j.adapter)

	j.mu.Lock()
	j.status.LastRun = time.Now()
	j.status.LastError = ""
	if err != nil {
		j.status.LastError = err.Error()
	}
	if report != nil {
		j.status.LastStats = report.Stats()
	}
	j.mu.Unlock()

	switch {
	case err == nil:
		logger.Debug("Cycle finished")
	case errors.Is(err, reconcile.ErrShutdown):
		logger.Info("Cycle interrupted by shutdown")
	case errors.Is(err, reconcile.ErrAccessPending):
		logger.Warn("Cycle aborted, provider access pending", zap.Error(err))
	default:
		logger.Error("Cycle failed", zap.Error(err))
	}
	return report, err
}

// Status returns the state of every provider.
func (s *Scheduler) Status() []JobStatus {
	out := make([]JobStatus, 0, len(s.jobs))
	for _, kind := range s.Kinds() {
		j := s.jobs[kind]
		j.mu.Lock()
		st := j.status
		j.mu.Unlock()
		st.Running = j.running.Load()
		st.SkipsTotal = j.skips.Load()
		out = append(out, st)
	}
	return out
}

// Stop sets the shutdown flag, stops the timers and waits for running cycles
// until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.stopping.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info("Stopping scheduler")
	s.cancel()

	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop scheduler: %w", ctx.Err())
	}
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
