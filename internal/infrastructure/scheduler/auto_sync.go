package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SyncJob is the work the trigger runs on schedule. The workflow service
// implements it.
type SyncJob interface {
	AutoSync(ctx context.Context) error
}

// AutoSyncConfig holds configuration for the automatic sync trigger
type AutoSyncConfig struct {
	// TickInterval is how often the loop wakes up to check the schedule
	TickInterval time.Duration
	// JobTimeout is the per-run ceiling for one full catalog sync
	JobTimeout time.Duration
	// StartupDelay postpones the first check after boot
	StartupDelay time.Duration
}

// DefaultAutoSyncConfig returns the default trigger configuration
func DefaultAutoSyncConfig() AutoSyncConfig {
	return AutoSyncConfig{
		TickInterval: time.Minute,
		JobTimeout:   10 * time.Minute,
		StartupDelay: 30 * time.Second,
	}
}

// AutoSyncTrigger runs the periodic catalog sync. The interval and the
// active flag come from the stored session schedule and can change at
// runtime through ScheduleChanged; the trigger re-reads them on every tick
// instead of resetting the ticker.
type AutoSyncTrigger struct {
	config AutoSyncConfig
	job    SyncJob
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	interval  time.Duration
	active    bool
	lastRun   time.Time
}

// NewAutoSyncTrigger creates a new trigger. It stays dormant until a
// schedule arrives via ScheduleChanged with active=true.
func NewAutoSyncTrigger(config AutoSyncConfig, job SyncJob, logger *zap.Logger) *AutoSyncTrigger {
	return &AutoSyncTrigger{
		config:   config,
		job:      job,
		logger:   logger,
		interval: time.Hour,
	}
}

// SetJob installs the work to run. Needed because the trigger is created
// before the workflow service that feeds it.
func (t *AutoSyncTrigger) SetJob(job SyncJob) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job = job
}

// ScheduleChanged updates the sync schedule. Implements the application
// layer's schedule listener.
func (t *AutoSyncTrigger) ScheduleChanged(interval time.Duration, active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = interval
	t.active = active
	t.logger.Info("sync schedule applied",
		zap.Duration("interval", interval),
		zap.Bool("active", active))
}

// Start starts the trigger loop
func (t *AutoSyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("auto sync trigger started",
		zap.Duration("tick_interval", t.config.TickInterval),
		zap.Duration("job_timeout", t.config.JobTimeout))
	return nil
}

// Stop stops the trigger and waits for an in-flight run to finish
func (t *AutoSyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("auto sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *AutoSyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.config.StartupDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.config.StartupDelay):
		}
	}

	ticker := time.NewTicker(t.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndRun(ctx)
		}
	}
}

func (t *AutoSyncTrigger) checkAndRun(ctx context.Context) {
	t.mu.Lock()
	job := t.job
	due := job != nil && t.active && time.Since(t.lastRun) >= t.interval
	if due {
		t.lastRun = time.Now()
	}
	t.mu.Unlock()

	if !due {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, t.config.JobTimeout)
	defer cancel()

	if err := job.AutoSync(runCtx); err != nil {
		// The next due tick retries; errors never kill the loop
		t.logger.Error("scheduled sync run failed", zap.Error(err))
		return
	}
	t.logger.Info("scheduled sync run completed")
}
