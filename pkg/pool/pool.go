package pool

import (
	"fmt"
	"sync"

	"github.com/eapache/queue"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	perrors "github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/metrics"
)

// slot records who owns a tracked handle
type slot uint8

const (
	slotFree slot = iota + 1
	slotActive
	slotReleasing
)

func (s slot) String() string {
	switch s {
	case slotFree:
		return "free"
	case slotActive:
		return "active"
	case slotReleasing:
		return "releasing"
	default:
		return "untracked"
	}
}

// Pool is a homogeneous collection of reusable instances for one kind.
//
// Instances are handed out by Acquire and come back through Release or
// through the completion signal wired at construction. The free list is FIFO,
// so the oldest returned instance is reused first. Acquire never fails: an
// invalid free head is replaced, and an empty free list falls back to
// constructing a new instance, which then stays tracked by the pool.
//
// A Pool is safe for concurrent use. Lifecycle callbacks other than Valid run
// without the pool lock held, so a completion signal fired from inside Reset
// or Destroy cannot deadlock.
type Pool[K comparable, T comparable] struct {
	mu       sync.Mutex
	kind     K
	label    string
	registry string
	lc       Lifecycle[K, T]
	log      *zap.Logger

	free       *queue.Queue
	slots      map[T]slot
	active     int // active + releasing
	pending    int // warm constructions in flight
	target     int
	configured bool
	closed     bool
	stats      counters

	gauges       metrics.KindGauges
	acquireHit   prometheus.Counter
	acquireHeal  prometheus.Counter
	acquireSynth prometheus.Counter
	releaseOK    prometheus.Counter
	releaseBad   prometheus.Counter
	releaseDup   prometheus.Counter
	releaseDead  prometheus.Counter
	warmSteps    prometheus.Counter
}

type counters struct {
	hits        uint64
	healed      uint64
	synthesized uint64
	discarded   uint64
	released    uint64
	duplicates  uint64
	constructed uint64
}

// Stats is a point-in-time snapshot of a pool
type Stats struct {
	Kind        string `json:"kind"`
	Target      int    `json:"target"`
	Free        int    `json:"free"`
	Active      int    `json:"active"`
	Live        int    `json:"live"`
	Hits        uint64 `json:"hits"`
	Healed      uint64 `json:"healed"`
	Synthesized uint64 `json:"synthesized"`
	Discarded   uint64 `json:"discarded"`
	Released    uint64 `json:"released"`
	Duplicates  uint64 `json:"duplicates"`
	Constructed uint64 `json:"constructed"`
	Configured  bool   `json:"configured"`
	Closed      bool   `json:"closed"`
}

// NewPool creates a pool for kind. A positive targetSize configures the pool
// immediately; zero leaves it unconfigured so it only constructs on demand.
func NewPool[K comparable, T comparable](kind K, targetSize int, lc Lifecycle[K, T], opts ...Option) *Pool[K, T] {
	o := newOptions(opts)
	label := labelOf(kind)

	p := &Pool[K, T]{
		kind:     kind,
		label:    label,
		registry: o.registry,
		lc:       lc,
		log:      o.logger.With(zap.String("registry", o.registry), zap.String("kind", label)),
		free:     queue.New(),
		slots:    make(map[T]slot),
		gauges:   metrics.ForKind(o.registry, label),

		acquireHit:   metrics.Acquires.WithLabelValues(o.registry, label, metrics.ResultHit),
		acquireHeal:  metrics.Acquires.WithLabelValues(o.registry, label, metrics.ResultHeal),
		acquireSynth: metrics.Acquires.WithLabelValues(o.registry, label, metrics.ResultSynth),
		releaseOK:    metrics.Releases.WithLabelValues(o.registry, label, metrics.ResultReleased),
		releaseBad:   metrics.Releases.WithLabelValues(o.registry, label, metrics.ResultInvalid),
		releaseDup:   metrics.Releases.WithLabelValues(o.registry, label, metrics.ResultDuplicate),
		releaseDead:  metrics.Releases.WithLabelValues(o.registry, label, metrics.ResultDestroyed),
		warmSteps:    metrics.WarmSteps.WithLabelValues(o.registry, label),
	}

	if targetSize != 0 {
		p.Configure(targetSize)
	}
	p.gauges.Set(0, 0, 0)
	return p
}

// Configure sets the warm target once. A repeated call or a non-positive
// target is logged and ignored; the return value reports whether the target
// was applied.
func (p *Pool[K, T]) Configure(targetSize int) bool {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeTornDown, "configure after teardown ignored"))
		return false
	case p.configured:
		current := p.target
		p.mu.Unlock()
		p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeConfig, "kind already configured, ignoring").
			WithDetail("target_size", current).
			WithDetail("requested", targetSize))
		return false
	case targetSize <= 0:
		p.mu.Unlock()
		p.report(zapcore.ErrorLevel, perrors.New(perrors.ErrorTypeConfig, "target size must be positive, ignoring").
			WithDetail("requested", targetSize))
		return false
	}

	p.target = targetSize
	p.configured = true
	p.mu.Unlock()

	p.log.Debug("pool configured", zap.Int("target_size", targetSize))
	return true
}

// WarmStep constructs at most one instance if the pool is below its target,
// and reports whether it made progress.
func (p *Pool[K, T]) WarmStep() bool {
	p.mu.Lock()
	if p.closed || p.free.Length()+p.active+p.pending >= p.target {
		p.mu.Unlock()
		return false
	}
	p.pending++
	p.mu.Unlock()

	h := p.construct()

	p.mu.Lock()
	p.pending--
	if p.closed {
		p.mu.Unlock()
		p.lc.Destroy(h)
		return false
	}
	p.slots[h] = slotFree
	p.free.Add(h)
	p.stats.constructed++
	p.syncGauges()
	p.mu.Unlock()

	p.warmSteps.Inc()
	return true
}

// WarmAll runs WarmStep until the target is met and returns the number of
// instances constructed. Loading screens use it to warm a pool in one go.
func (p *Pool[K, T]) WarmAll() int {
	n := 0
	for p.WarmStep() {
		n++
	}
	return n
}

// Prewarm runs up to n warm steps and returns how many constructed
func (p *Pool[K, T]) Prewarm(n int) int {
	done := 0
	for done < n && p.WarmStep() {
		done++
	}
	return done
}

// Acquire returns a valid instance in its reset state and marks it active.
// It never blocks on construction elsewhere and never fails.
func (p *Pool[K, T]) Acquire() T {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeTornDown, "acquire after teardown, handing out untracked instance"))
		return p.construct()
	}

	if p.free.Length() > 0 {
		h := p.free.Remove().(T)
		if p.lc.Valid(h) {
			p.slots[h] = slotActive
			p.active++
			p.stats.hits++
			p.syncGauges()
			p.mu.Unlock()

			p.acquireHit.Inc()
			return h
		}

		// heal: the free head was destroyed behind our back
		delete(p.slots, h)
		p.stats.healed++
		p.stats.discarded++
		p.mu.Unlock()

		p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeInvalidHandle, "invalid instance in free list, replacing"))
		p.acquireHeal.Inc()
		return p.synthesize()
	}

	p.stats.synthesized++
	target, live := p.target, len(p.slots)
	p.mu.Unlock()

	p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeExhausted, "free list empty, constructing on demand").
		WithDetail("target_size", target).
		WithDetail("live", live))
	p.acquireSynth.Inc()
	return p.synthesize()
}

// synthesize constructs a new instance and tracks it as active
func (p *Pool[K, T]) synthesize() T {
	h := p.construct()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		// torn down while constructing; the instance stays untracked
		return h
	}
	p.slots[h] = slotActive
	p.active++
	p.stats.constructed++
	p.syncGauges()
	return h
}

// construct builds an instance and wires its completion signal to this pool
func (p *Pool[K, T]) construct() T {
	h := p.lc.Construct(p.kind)
	p.lc.Wire(h, func() { p.release(h, true) })
	return h
}

// Release resets h and returns it to the free list. Releasing an instance
// that is not active, or one that no longer exists, is logged and ignored.
func (p *Pool[K, T]) Release(h T) {
	p.release(h, false)
}

// release implements Release and the completion path. Completion signals
// for instances that are not active are expected (overlapping triggers in one
// tick) and only logged at debug level. Returns true when h ended up free.
func (p *Pool[K, T]) release(h T, signalled bool) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if p.lc.Valid(h) {
			p.lc.Destroy(h)
		}
		p.releaseDead.Inc()
		p.log.Debug("release after teardown, instance destroyed")
		return false
	}

	s, tracked := p.slots[h]
	if !tracked || s != slotActive {
		p.stats.duplicates++
		p.mu.Unlock()

		p.releaseDup.Inc()
		if signalled {
			p.log.Debug("completion for instance that is not active, ignored", zap.Stringer("state", s))
			return false
		}
		if !tracked {
			// usually a handle passed to Release under the wrong kind; it
			// stays active in its own pool
			p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeDoubleRelease, "release of instance this pool does not own, ignoring").
				WithDetail("state", s.String()).
				WithDetail("foreign", true))
			return false
		}
		p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeDoubleRelease, "release of instance that is not active, ignoring").
			WithDetail("state", s.String()))
		return false
	}

	if !p.lc.Valid(h) {
		delete(p.slots, h)
		p.active--
		p.stats.discarded++
		p.syncGauges()
		p.mu.Unlock()

		p.releaseBad.Inc()
		p.report(zapcore.WarnLevel, perrors.New(perrors.ErrorTypeInvalidHandle, "released instance no longer exists, dropping"))
		return false
	}

	p.slots[h] = slotReleasing
	p.mu.Unlock()

	p.lc.Reset(h)

	p.mu.Lock()
	if _, still := p.slots[h]; !still || p.closed {
		// torn down while resetting
		p.mu.Unlock()
		if p.lc.Valid(h) {
			p.lc.Destroy(h)
		}
		p.releaseDead.Inc()
		return false
	}
	p.slots[h] = slotFree
	p.free.Add(h)
	p.active--
	p.stats.released++
	p.syncGauges()
	p.mu.Unlock()

	p.releaseOK.Inc()
	return true
}

// ReclaimAllActive forces every active instance back into the free list and
// returns how many were reclaimed. Safe to call repeatedly.
func (p *Pool[K, T]) ReclaimAllActive() int {
	p.mu.Lock()
	handles := make([]T, 0, p.active)
	for h, s := range p.slots {
		if s == slotActive {
			handles = append(handles, h)
		}
	}
	p.mu.Unlock()

	n := 0
	for _, h := range handles {
		if p.release(h, true) {
			n++
		}
	}
	if n > 0 {
		p.log.Debug("reclaimed active instances", zap.Int("count", n))
	}
	return n
}

// Teardown destroys every instance the pool owns and makes it inert: later
// warm steps do nothing, acquires hand out untracked instances, and releases
// destroy what they are given.
func (p *Pool[K, T]) Teardown() int {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0
	}
	p.closed = true

	doomed := make([]T, 0, len(p.slots))
	for h, s := range p.slots {
		// releasing instances are destroyed by their own release call
		if s != slotReleasing {
			doomed = append(doomed, h)
		}
	}
	p.slots = make(map[T]slot)
	p.free = queue.New()
	p.active = 0
	p.syncGauges()
	p.mu.Unlock()

	for _, h := range doomed {
		if p.lc.Valid(h) {
			p.lc.Destroy(h)
		}
	}
	p.log.Debug("pool torn down", zap.Int("destroyed", len(doomed)))
	return len(doomed)
}

// Complete reports whether free + active instances meet the target. A torn
// down pool has nothing left to warm and counts as complete.
func (p *Pool[K, T]) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed || p.free.Length()+p.active >= p.target
}

// readiness returns warm instances counted against the target, and the target
func (p *Pool[K, T]) readiness() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return min(p.free.Length()+p.active, p.target), p.target
}

// Kind returns the pool's kind key
func (p *Pool[K, T]) Kind() K {
	return p.kind
}

// Label returns the kind formatted for logs and metrics
func (p *Pool[K, T]) Label() string {
	return p.label
}

// Target returns the configured warm target (0 when unconfigured)
func (p *Pool[K, T]) Target() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Configured reports whether a target has been applied
func (p *Pool[K, T]) Configured() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.configured
}

// Free returns the free list length
func (p *Pool[K, T]) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free.Length()
}

// Active returns the number of instances handed out
func (p *Pool[K, T]) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Live returns the number of instances the pool accounts for, free or active
func (p *Pool[K, T]) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// Stats returns a snapshot of the pool
func (p *Pool[K, T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Kind:        p.label,
		Target:      p.target,
		Free:        p.free.Length(),
		Active:      p.active,
		Live:        len(p.slots),
		Hits:        p.stats.hits,
		Healed:      p.stats.healed,
		Synthesized: p.stats.synthesized,
		Discarded:   p.stats.discarded,
		Released:    p.stats.released,
		Duplicates:  p.stats.duplicates,
		Constructed: p.stats.constructed,
		Configured:  p.configured,
		Closed:      p.closed,
	}
}

// syncGauges must be called with p.mu held
func (p *Pool[K, T]) syncGauges() {
	p.gauges.Set(p.free.Length(), p.active, len(p.slots))
}

func (p *Pool[K, T]) report(level zapcore.Level, err *perrors.Error) {
	reportFault(p.log, p.registry, p.label, level, err)
}

// labelOf formats a kind for logs and metrics
func labelOf[K comparable](kind K) string {
	if s, ok := any(kind).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(kind)
}

// reportFault logs a fault and counts it by type. Faults the pool cannot
// absorb locally are raised to error level whatever level was asked for.
func reportFault(log *zap.Logger, registry, kind string, level zapcore.Level, err *perrors.Error) {
	typ := perrors.TypeOf(err)
	metrics.Errors.WithLabelValues(registry, kind, string(typ)).Inc()

	if !perrors.IsRecoverable(err) && level < zapcore.ErrorLevel {
		level = zapcore.ErrorLevel
	}
	if ce := log.Check(level, err.Message); ce != nil {
		fields := []zap.Field{
			zap.String("error_type", string(typ)),
			zap.Error(err),
		}
		for k, v := range err.Details {
			fields = append(fields, zap.Any(k, v))
		}
		ce.Write(fields...)
	}
}
