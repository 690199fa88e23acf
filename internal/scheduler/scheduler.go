package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.uber.org/zap"

	"github.com/spec-kit/supportdesk/internal/observability"
)

// Sweep is one periodic unit of background work. A sweep returns the number
// of records it affected; errors are logged and isolated so one failing
// sweep never starves the others.
type Sweep func(ctx context.Context, now time.Time) (int, error)

// Scheduler drives all periodic work off a single tick source. Sweeps never
// own timers of their own; testing runs the scheduler against a mock clock
// and advances it manually.
type Scheduler struct {
	interval     time.Duration
	startupDelay time.Duration
	clock        clock.Clock
	logger       *zap.Logger
	metrics      *observability.Metrics

	mu      sync.Mutex
	sweeps  []namedSweep
	started bool

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type namedSweep struct {
	name string
	fn   Sweep
}

// New constructs a scheduler. A nil clock defaults to the wall clock.
func New(interval, startupDelay time.Duration, clk clock.Clock, logger *zap.Logger, metrics *observability.Metrics) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{
		interval:     interval,
		startupDelay: startupDelay,
		clock:        clk,
		logger:       logger,
		metrics:      metrics,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Register adds a named sweep. Must be called before Start.
func (s *Scheduler) Register(name string, fn Sweep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps = append(s.sweeps, namedSweep{name: name, fn: fn})
}

// Start launches the tick loop: one run after the startup delay, then one
// per interval. Returns immediately. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()
	// Arm the startup timer before returning so a test can advance a mock
	// clock immediately after Start without racing the loop goroutine.
	delay := s.clock.Timer(s.startupDelay)
	go s.run(ctx, delay)
}

func (s *Scheduler) run(ctx context.Context, delay *clock.Timer) {
	defer close(s.done)

	select {
	case <-delay.C:
	case <-s.stop:
		delay.Stop()
		return
	case <-ctx.Done():
		delay.Stop()
		return
	}
	s.RunAll(ctx)

	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RunAll(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunAll executes every registered sweep once with a shared observation
// time. Exported so tests and admin endpoints can force a run.
func (s *Scheduler) RunAll(ctx context.Context) {
	s.mu.Lock()
	sweeps := append([]namedSweep{}, s.sweeps...)
	s.mu.Unlock()

	now := s.clock.Now()
	for _, sweep := range sweeps {
		affected, err := sweep.fn(ctx, now)
		if err != nil {
			s.metrics.RecordSweepError(sweep.name)
			s.logger.Error("sweep failed",
				zap.String("sweep", sweep.name),
				zap.Error(err))
			continue
		}
		s.metrics.RecordSweep(sweep.name)
		if affected > 0 {
			s.logger.Info("sweep completed",
				zap.String("sweep", sweep.name),
				zap.Int("affected", affected))
		}
	}
}

// Stop halts the tick loop and waits for the current run to finish. Safe to
// call whether or not Start ever ran, and safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	<-s.done
}
