package pool

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/testutil"
)

func newTestScheduler(t *testing.T, r *Registry[string, *widget], opts ...SchedulerOption) *Scheduler {
	t.Helper()
	opts = append([]SchedulerOption{WithSchedulerLogger(testutil.TestLogger(t))}, opts...)
	return NewScheduler(r, opts...)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{WarmingUp, "warming_up"},
		{Complete, "complete"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestScheduler_Convergence(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	targets := map[string]int{"Grunt": 3, "Spark": 2, "Voice": 4}
	r.Register("Grunt", targets["Grunt"])
	r.Register("Spark", targets["Spark"])
	r.Register("Voice", targets["Voice"])
	sum := 9

	s := newTestScheduler(t, r)
	assert.Equal(t, Idle, s.State())

	for i := 1; i <= sum; i++ {
		require.False(t, r.IsWarmupComplete(), "complete before step %d", i)
		require.True(t, s.Step(), "step %d", i)
	}
	assert.True(t, r.IsWarmupComplete())
	assert.Equal(t, Complete, s.State())
	assert.Equal(t, uint64(sum), s.Steps())

	for kind, target := range targets {
		assert.Equal(t, target, r.Pool(kind).Free(), kind)
	}

	assert.False(t, s.Step(), "no work after completion")
	assert.False(t, s.Tick())
	assert.Equal(t, uint64(sum), s.Steps())
}

func TestScheduler_RoundRobin(t *testing.T) {
	r, lc, _ := newTestRegistry(t)
	r.Register("Grunt", 3)
	r.Register("Spark", 2)

	s := newTestScheduler(t, r)
	for s.Tick() {
	}

	var kinds []string
	for _, w := range lc.constructed {
		kinds = append(kinds, w.kind)
	}
	assert.Equal(t, []string{"Grunt", "Spark", "Grunt", "Spark", "Grunt"}, kinds)
}

func TestScheduler_IdleWithoutKinds(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	s := newTestScheduler(t, r)

	assert.False(t, s.Step())
	assert.Equal(t, Idle, s.State())
	assert.NoError(t, s.Run(context.Background()))
	assert.Equal(t, Idle, s.State())
}

func TestScheduler_AlreadyWarm(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	r.Register("Grunt", 2)
	r.Pool("Grunt").WarmAll()

	s := newTestScheduler(t, r)
	assert.False(t, s.Step())
	assert.Equal(t, Complete, s.State())
}

func TestScheduler_Run(t *testing.T) {
	r, lc, _ := newTestRegistry(t)
	r.Register("Grunt", 3)
	r.Register("Spark", 3)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	s := newTestScheduler(t, r)
	require.NoError(t, s.Run(ctx))
	assert.Equal(t, Complete, s.State())
	assert.True(t, r.IsWarmupComplete())
	assert.Equal(t, 6, lc.constructedCount())
}

func TestScheduler_RunCancelled(t *testing.T) {
	r, lc, _ := newTestRegistry(t)
	r.Register("Grunt", 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScheduler(t, r)
	err := s.Run(ctx)
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.ErrorTypeCancelled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, lc.constructedCount())
}

func TestScheduler_RunStopsOnTeardown(t *testing.T) {
	r, lc, _ := newTestRegistry(t)
	r.Register("Grunt", 5)
	r.Register("Spark", 5)

	yields := 0
	tearDownAfterTwo := func(ctx context.Context) error {
		yields++
		if yields == 2 {
			r.Teardown(ctx)
		}
		return ctx.Err()
	}

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	s := newTestScheduler(t, r, WithYielder(tearDownAfterTwo))
	err := s.Run(ctx)

	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.ErrorTypeCancelled))
	assert.Equal(t, 2, lc.constructedCount(), "no construction after teardown")
	assert.Equal(t, 2, lc.destroyedCount())
	assert.False(t, s.Step())
}

func TestScheduler_StartStop(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	r.Register("Grunt", 5)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	s := newTestScheduler(t, r, WithYielder(IntervalYield(time.Hour)))
	s.Start(ctx)
	s.Start(ctx) // no-op while running

	testutil.AssertEventually(t, func() bool { return s.Steps() == 1 }, 5*time.Second, "first step")
	s.Stop()

	select {
	case <-s.Done():
	default:
		t.Fatal("runner still alive after Stop")
	}
	assert.True(t, perrors.IsType(s.Err(), perrors.ErrorTypeCancelled))
	assert.Equal(t, WarmingUp, s.State())
	assert.Equal(t, 1, r.Pool("Grunt").Free())

	s.Stop()
}

func TestScheduler_StartCompletes(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	r.Register("Grunt", 4)
	r.Register("Spark", 4)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	s := newTestScheduler(t, r)
	s.Start(ctx)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		s.Stop()
		t.Fatal("warm-up did not finish")
	}
	assert.NoError(t, s.Err())
	assert.Equal(t, Complete, s.State())
	assert.True(t, r.IsWarmupComplete())
}

func TestScheduler_ConcurrentConsumers(t *testing.T) {
	lc := &fakeLifecycle{}
	r := NewRegistry[string, *widget](lc, WithRegistryName(t.Name()), WithLogger(nop))
	kinds := []string{"Grunt", "Spark"}
	for _, k := range kinds {
		require.True(t, r.Register(k, 16))
	}

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	s := NewScheduler(r, WithSchedulerLogger(nop))
	s.Start(ctx)
	defer s.Stop()

	const workers, ops = 8, 500
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			var held []*widget
			for n := 0; n < ops; n++ {
				switch rng.Intn(4) {
				case 0, 1:
					held = append(held, r.Acquire(kinds[rng.Intn(len(kinds))]))
				case 2:
					if len(held) == 0 {
						continue
					}
					h := held[len(held)-1]
					held = held[:len(held)-1]
					if rng.Intn(2) == 0 {
						r.Release(h.kind, h)
					} else {
						h.complete()
					}
					if rng.Intn(4) == 0 {
						// stray second release, possibly of an instance
						// another worker has acquired since
						r.Release(h.kind, h)
					}
				default:
					_ = r.IsWarmupComplete()
					_ = r.Progress()
				}
			}
			for _, h := range held {
				r.Release(h.kind, h)
			}
		}(int64(i))
	}
	wg.Wait()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("warm-up did not finish")
	}
	require.NoError(t, s.Err())
	assert.True(t, r.IsWarmupComplete())

	for _, st := range r.Stats() {
		assert.Equal(t, st.Free+st.Active, st.Live, st.Kind)
		assert.Zero(t, st.Active, st.Kind)
		assert.GreaterOrEqual(t, st.Live, 16, st.Kind)
	}

	// every free slot holds a distinct instance
	for _, k := range kinds {
		p := r.Pool(k)
		n := p.Free()
		seen := make(map[*widget]struct{}, n)
		for i := 0; i < n; i++ {
			seen[p.Acquire()] = struct{}{}
		}
		assert.Len(t, seen, n, k)
		assert.Equal(t, n, p.Live(), "drained without constructing")
	}
}

func TestScheduler_DoneBeforeStart(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	s := newTestScheduler(t, r)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed before Start")
	}
	s.Stop()
}

func TestScheduler_Reset(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	r.Register("Grunt", 1)

	s := newTestScheduler(t, r)
	for s.Tick() {
	}
	require.Equal(t, Complete, s.State())

	r.Register("Spark", 2)
	assert.False(t, s.Tick(), "late kinds wait for Reset")

	s.Reset()
	assert.Equal(t, Idle, s.State())
	assert.False(t, r.IsWarmupComplete())

	for s.Tick() {
	}
	assert.Equal(t, Complete, s.State())
	assert.Equal(t, uint64(2), s.Steps())
	assert.Equal(t, 2, r.Pool("Spark").Free())
}

func TestIntervalYield(t *testing.T) {
	y := IntervalYield(time.Millisecond)
	require.NoError(t, y(context.Background()))
	require.NoError(t, y(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, IntervalYield(time.Hour)(ctx), context.Canceled)
}
