package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	perrors "github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
	"github.com/ajitpratap0/spawnpool/pkg/metrics"
	"github.com/ajitpratap0/spawnpool/pkg/observability"
)

// State is the warm-up state of a Scheduler
type State int32

const (
	// Idle means no warm step has been taken yet
	Idle State = iota
	// WarmingUp means construction is in progress
	WarmingUp
	// Complete means every registered pool met its target
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case WarmingUp:
		return "warming_up"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Yielder gives control back between asynchronous warm steps. It returns
// ctx.Err() when the run should stop.
type Yielder func(ctx context.Context) error

// Gosched yields the processor for one scheduling round
func Gosched(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// IntervalYield sleeps d between steps, reusing one timer. The returned
// Yielder must not be shared between concurrent runs.
func IntervalYield(d time.Duration) Yielder {
	var timer *time.Timer
	return func(ctx context.Context) error {
		if timer == nil {
			timer = time.NewTimer(d)
		} else {
			timer.Reset(d)
		}
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithYielder sets the yield strategy used by Run. Defaults to Gosched.
func WithYielder(y Yielder) SchedulerOption {
	return func(s *Scheduler) {
		if y != nil {
			s.yield = y
		}
	}
}

// WithSchedulerLogger sets the scheduler logger
func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// Scheduler spreads pool construction over time so no single frame pays for
// the whole warm-up. Each step constructs at most one instance, visiting
// registered kinds round robin.
//
// Tick loops call Tick once per simulation tick. Alternatively Start runs the
// same steps on a background goroutine, yielding between each one.
type Scheduler struct {
	src   WarmSource
	log   *zap.Logger
	yield Yielder

	mu     sync.Mutex
	state  State
	cursor int
	steps  uint64
	timer  *metrics.Timer

	running atomic.Bool
	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	wg      sync.WaitGroup
}

// NewScheduler creates an idle scheduler for src
func NewScheduler(src WarmSource, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		src:   src,
		log:   logger.Get(),
		yield: Gosched,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("registry", src.Name()))
	return s
}

// Step performs one warm step and reports whether an instance was built.
// It returns false once Complete, when there is nothing registered, and after
// the source is torn down.
func (s *Scheduler) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Complete || !s.src.Alive() {
		return false
	}
	warmers := s.src.Warmers()
	if len(warmers) == 0 {
		return false
	}
	if s.state == Idle {
		s.state = WarmingUp
		s.timer = metrics.NewTimer("warmup." + s.src.Name())
		s.log.Debug("warm-up started", zap.Int("kinds", len(warmers)))
	}

	n := len(warmers)
	for i := 0; i < n; i++ {
		idx := (s.cursor + i) % n
		if warmers[idx].WarmStep() {
			s.cursor = (idx + 1) % n
			s.steps++
			if s.src.IsWarmupComplete() {
				s.finish()
			}
			return true
		}
	}

	// full pass without progress
	if s.src.IsWarmupComplete() {
		s.finish()
	}
	return false
}

// finish must be called with s.mu held
func (s *Scheduler) finish() {
	s.state = Complete
	elapsed := s.timer.Stop()
	metrics.WarmupDuration.WithLabelValues(s.src.Name()).Observe(elapsed.Seconds())
	s.log.Info("warm-up scheduler finished",
		zap.String("timer", s.timer.Name()),
		zap.Uint64("steps", s.steps),
		zap.Duration("elapsed", elapsed))
}

// Tick is the synchronous strategy: one step per simulation tick
func (s *Scheduler) Tick() bool {
	return s.Step()
}

// Run is the asynchronous strategy. It steps until warm-up completes,
// yielding between steps, and returns a cancelled error when ctx is done or
// the source is torn down first. Run returns nil immediately when nothing is
// registered.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, "warmup.run", s.src.Name())
	defer func() {
		span.SetAttributes(
			attribute.Int64("spawnpool.steps", int64(s.Steps())),
			attribute.String("spawnpool.state", s.State().String()),
		)
		observability.EndSpan(span, err)
	}()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return s.abort(perrors.Wrap(cerr, perrors.ErrorTypeCancelled, "warm-up aborted"))
		}
		if !s.src.Alive() {
			return s.abort(perrors.New(perrors.ErrorTypeCancelled, "warm-up aborted: registry torn down"))
		}

		if !s.Step() {
			switch s.State() {
			case Complete:
				return nil
			case Idle:
				s.log.Debug("nothing registered, warm-up run ends")
				return nil
			}
			// constructions in flight elsewhere; try again after yielding
		}

		if yerr := s.yield(ctx); yerr != nil {
			return s.abort(perrors.Wrap(yerr, perrors.ErrorTypeCancelled, "warm-up aborted"))
		}
	}
}

func (s *Scheduler) abort(err *perrors.Error) error {
	s.log.Info("warm-up aborted",
		zap.Uint64("steps", s.Steps()),
		zap.Stringer("state", s.State()),
		zap.Error(err))
	return err
}

// Start runs Run on a background goroutine. It is a no-op while a run is
// already in progress.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.runMu.Lock()
	s.cancel = cancel
	s.done = done
	s.err = nil
	s.runMu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.Run(ctx)
		cancel()

		s.runMu.Lock()
		s.err = err
		s.runMu.Unlock()

		s.running.Store(false)
		close(done)
	}()
}

// Stop cancels a background run and waits for it to exit. Safe to call
// repeatedly and without Start.
func (s *Scheduler) Stop() {
	s.runMu.Lock()
	cancel := s.cancel
	s.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Done is closed when the background run exits. Before any Start it is
// already closed.
func (s *Scheduler) Done() <-chan struct{} {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}

// Err returns the result of the last background run
func (s *Scheduler) Err() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.err
}

// Reset re-arms the scheduler and its source so kinds registered after
// completion get warmed
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.state = Idle
	s.cursor = 0
	s.steps = 0
	s.timer = nil
	s.mu.Unlock()

	s.src.ResetWarmup()
}

// State returns the current state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Steps returns the number of instances constructed since the last Reset
func (s *Scheduler) Steps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}
