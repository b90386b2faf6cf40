package pool

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	perrors "github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/metrics"
	"github.com/ajitpratap0/spawnpool/pkg/observability"
)

// Warmer is one unit of incremental construction, implemented by *Pool
type Warmer interface {
	WarmStep() bool
	Complete() bool
	Label() string
}

// WarmSource is what a Scheduler warms, implemented by *Registry
type WarmSource interface {
	Name() string
	Alive() bool
	Warmers() []Warmer
	IsWarmupComplete() bool
	ResetWarmup()
}

// KindProgress is the warm-up progress of one kind
type KindProgress struct {
	Kind   string `json:"kind"`
	Ready  int    `json:"ready"`
	Target int    `json:"target"`
}

// Progress aggregates warm-up progress across a registry
type Progress struct {
	Ready  int            `json:"ready"`
	Target int            `json:"target"`
	Kinds  []KindProgress `json:"kinds"`
}

// Ratio returns Ready/Target, or 1 when there is nothing to warm
func (p Progress) Ratio() float64 {
	if p.Target == 0 {
		return 1
	}
	return float64(p.Ready) / float64(p.Target)
}

// Registry routes acquire and release calls to one Pool per kind.
//
// Kinds registered through Register form an ordered worklist that a
// Scheduler warms round robin. A kind that was never registered is still
// served: the first Acquire logs an error and creates an unconfigured pool,
// which constructs on demand. Consumers receive the registry by injection.
type Registry[K comparable, T comparable] struct {
	name string
	lc   Lifecycle[K, T]
	log  *zap.Logger
	opts []Option

	mu      sync.RWMutex
	pools   map[K]*Pool[K, T]
	order   []*Pool[K, T]
	warmers []Warmer // copy-on-write snapshot of order

	warmed atomic.Bool
	closed atomic.Bool
}

// NewRegistry creates an empty registry whose pools share lc
func NewRegistry[K comparable, T comparable](lc Lifecycle[K, T], opts ...Option) *Registry[K, T] {
	o := newOptions(opts)
	r := &Registry[K, T]{
		name:  o.registry,
		lc:    lc,
		log:   o.logger.With(zap.String("registry", o.registry)),
		opts:  []Option{WithRegistryName(o.registry), WithLogger(o.logger)},
		pools: make(map[K]*Pool[K, T]),
	}
	metrics.WarmupComplete.WithLabelValues(r.name).Set(0)
	return r
}

// Register configures kind with targetSize and appends it to the warm-up
// worklist. Registering a kind twice, or with a non-positive target, is
// logged and ignored. A kind first created lazily by Acquire can still be
// registered once.
func (r *Registry[K, T]) Register(kind K, targetSize int) bool {
	if r.closed.Load() {
		r.report(kind, zapcore.WarnLevel, perrors.New(perrors.ErrorTypeTornDown, "register after teardown ignored"))
		return false
	}

	r.mu.Lock()
	p, exists := r.pools[kind]
	if exists && p.Configured() {
		r.mu.Unlock()
		r.report(kind, zapcore.WarnLevel, perrors.New(perrors.ErrorTypeConfig, "kind already registered, ignoring").
			WithDetail("target_size", p.Target()).
			WithDetail("requested", targetSize))
		return false
	}
	if targetSize <= 0 {
		r.mu.Unlock()
		r.report(kind, zapcore.ErrorLevel, perrors.New(perrors.ErrorTypeConfig, "target size must be positive, kind not registered").
			WithDetail("requested", targetSize))
		return false
	}
	if !exists {
		p = NewPool(kind, 0, r.lc, r.opts...)
		r.pools[kind] = p
	}
	p.Configure(targetSize)

	r.order = append(r.order, p)
	warmers := make([]Warmer, len(r.order))
	for i, op := range r.order {
		warmers[i] = op
	}
	r.warmers = warmers
	r.mu.Unlock()

	if r.warmed.Load() {
		r.log.Warn("kind registered after warm-up completed; it is not warmed until ResetWarmup",
			zap.String("kind", p.Label()), zap.Int("target_size", targetSize))
	} else {
		r.log.Debug("kind registered", zap.String("kind", p.Label()), zap.Int("target_size", targetSize))
	}
	return true
}

// Acquire returns an instance of kind. Unknown kinds get a lazily created
// pool with no target, so callers always receive a usable instance.
func (r *Registry[K, T]) Acquire(kind K) T {
	if p := r.Pool(kind); p != nil {
		return p.Acquire()
	}

	if r.closed.Load() {
		r.report(kind, zapcore.WarnLevel, perrors.New(perrors.ErrorTypeTornDown, "acquire of unknown kind after teardown, handing out untracked instance"))
		h := r.lc.Construct(kind)
		r.lc.Wire(h, func() {
			if r.lc.Valid(h) {
				r.lc.Destroy(h)
			}
		})
		return h
	}

	return r.lazyPool(kind).Acquire()
}

// lazyPool returns the pool for kind, creating an unconfigured one
func (r *Registry[K, T]) lazyPool(kind K) *Pool[K, T] {
	r.mu.Lock()
	p, ok := r.pools[kind]
	if !ok {
		p = NewPool(kind, 0, r.lc, r.opts...)
		r.pools[kind] = p
	}
	r.mu.Unlock()

	if !ok {
		r.report(kind, zapcore.ErrorLevel, perrors.New(perrors.ErrorTypeUnknownKind, "acquire for unregistered kind, creating pool without target"))
	}
	return p
}

// Release returns h to the pool of kind. An instance of an unknown kind has
// nowhere to go and is destroyed.
func (r *Registry[K, T]) Release(kind K, h T) {
	if p := r.Pool(kind); p != nil {
		p.Release(h)
		return
	}

	r.report(kind, zapcore.ErrorLevel, perrors.New(perrors.ErrorTypeUnknownKind, "release for unregistered kind, destroying instance"))
	if r.lc.Valid(h) {
		r.lc.Destroy(h)
	}
}

// IsWarmupComplete reports whether every registered pool has met its target.
// It is recomputed on each call until it first holds and stays true after
// that, until ResetWarmup. The latch also masks a pool that later drops below
// its target because released instances were found destroyed; Progress and
// Pool.Complete still show the live figures.
//
// A registry with nothing registered is not complete, although "every pool"
// holds vacuously there: a loading screen must not report ready before any
// kind was registered.
func (r *Registry[K, T]) IsWarmupComplete() bool {
	if r.warmed.Load() {
		return true
	}

	r.mu.RLock()
	order := r.order
	r.mu.RUnlock()

	if len(order) == 0 {
		return false
	}
	for _, p := range order {
		if !p.Complete() {
			return false
		}
	}

	if r.warmed.CompareAndSwap(false, true) {
		metrics.WarmupComplete.WithLabelValues(r.name).Set(1)
		r.log.Info("warm-up complete", zap.Int("kinds", len(order)))
	}
	return true
}

// ResetWarmup re-arms warm-up tracking so newly registered kinds can be warmed
func (r *Registry[K, T]) ResetWarmup() {
	r.warmed.Store(false)
	metrics.WarmupComplete.WithLabelValues(r.name).Set(0)
}

// Progress aggregates warm-up progress over the registered kinds
func (r *Registry[K, T]) Progress() Progress {
	r.mu.RLock()
	order := r.order
	r.mu.RUnlock()

	prog := Progress{Kinds: make([]KindProgress, 0, len(order))}
	for _, p := range order {
		ready, target := p.readiness()
		prog.Ready += ready
		prog.Target += target
		prog.Kinds = append(prog.Kinds, KindProgress{Kind: p.Label(), Ready: ready, Target: target})
	}
	return prog
}

// ReclaimAllActive returns every active instance of every kind to its free
// list, for scene or level teardown. Returns the number reclaimed.
func (r *Registry[K, T]) ReclaimAllActive() int {
	n := 0
	for _, p := range r.allPools() {
		n += p.ReclaimAllActive()
	}
	if n > 0 {
		r.log.Info("reclaimed active instances", zap.Int("count", n))
	}
	return n
}

// Teardown destroys every pooled instance and stops warm-up. The registry
// keeps serving acquires with untracked instances so late callers do not fail.
func (r *Registry[K, T]) Teardown(ctx context.Context) {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	_, span := observability.StartSpan(ctx, "registry.teardown", r.name)
	destroyed := 0
	pools := r.allPools()
	for _, p := range pools {
		destroyed += p.Teardown()
	}
	span.SetAttributes(
		attribute.Int("spawnpool.pools", len(pools)),
		attribute.Int("spawnpool.destroyed", destroyed),
	)
	observability.EndSpan(span, nil)

	r.log.Info("registry torn down", zap.Int("pools", len(pools)), zap.Int("destroyed", destroyed))
}

// Alive reports whether the registry has not been torn down
func (r *Registry[K, T]) Alive() bool {
	return !r.closed.Load()
}

// Name returns the registry name
func (r *Registry[K, T]) Name() string {
	return r.name
}

// Warmers returns the worklist in registration order
func (r *Registry[K, T]) Warmers() []Warmer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.warmers
}

// Pool returns the pool for kind, or nil
func (r *Registry[K, T]) Pool(kind K) *Pool[K, T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pools[kind]
}

// Kinds returns the registered kinds in registration order
func (r *Registry[K, T]) Kinds() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]K, len(r.order))
	for i, p := range r.order {
		kinds[i] = p.Kind()
	}
	return kinds
}

// Stats returns a snapshot of every pool: registered kinds in order, then
// lazily created ones sorted by label
func (r *Registry[K, T]) Stats() []Stats {
	pools := r.allPools()
	out := make([]Stats, len(pools))
	for i, p := range pools {
		out[i] = p.Stats()
	}
	return out
}

// allPools returns registered pools in order followed by lazy pools by label
func (r *Registry[K, T]) allPools() []*Pool[K, T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pools := make([]*Pool[K, T], 0, len(r.pools))
	pools = append(pools, r.order...)

	lazy := make([]*Pool[K, T], 0, len(r.pools)-len(r.order))
	for _, p := range r.pools {
		if !slices.Contains(r.order, p) {
			lazy = append(lazy, p)
		}
	}
	slices.SortFunc(lazy, func(a, b *Pool[K, T]) int {
		return strings.Compare(a.Label(), b.Label())
	})
	return append(pools, lazy...)
}

func (r *Registry[K, T]) report(kind K, level zapcore.Level, err *perrors.Error) {
	label := labelOf(kind)
	reportFault(r.log.With(zap.String("kind", label)), r.name, label, level, err)
}
