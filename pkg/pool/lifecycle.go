package pool

// Lifecycle is the per-kind strategy a Pool uses to manage instances. It is
// the only piece that changes between enemy, effect, projectile, indicator and
// audio pools; Pool, Registry and Scheduler never look inside T.
//
// Implementations must not call back into the owning Pool from Valid. Reset,
// Destroy and Construct run outside the pool lock and may trigger completion.
type Lifecycle[K comparable, T any] interface {
	// Construct returns a fresh, inert instance for kind: hidden, not
	// simulating, at the origin.
	Construct(kind K) T

	// Reset returns h to its baseline, clearing transient state and stopping
	// nested timers or effects.
	Reset(h T)

	// Valid reports whether the object behind h still exists.
	Valid(h T) bool

	// Destroy releases the underlying object for good.
	Destroy(h T)

	// Wire registers done as the completion signal of h. It is called once,
	// right after Construct. The instance calls done when its active lifetime
	// ends (timer expiry, animation end, explicit despawn).
	Wire(h T, done func())
}

// Funcs adapts plain functions to Lifecycle. Nil fields are no-ops, and a nil
// ValidFunc treats every instance as valid.
type Funcs[K comparable, T any] struct {
	ConstructFunc func(kind K) T
	ResetFunc     func(h T)
	ValidFunc     func(h T) bool
	DestroyFunc   func(h T)
	WireFunc      func(h T, done func())
}

// Construct implements Lifecycle
func (f Funcs[K, T]) Construct(kind K) T {
	return f.ConstructFunc(kind)
}

// Reset implements Lifecycle
func (f Funcs[K, T]) Reset(h T) {
	if f.ResetFunc != nil {
		f.ResetFunc(h)
	}
}

// Valid implements Lifecycle
func (f Funcs[K, T]) Valid(h T) bool {
	if f.ValidFunc == nil {
		return true
	}
	return f.ValidFunc(h)
}

// Destroy implements Lifecycle
func (f Funcs[K, T]) Destroy(h T) {
	if f.DestroyFunc != nil {
		f.DestroyFunc(h)
	}
}

// Wire implements Lifecycle
func (f Funcs[K, T]) Wire(h T, done func()) {
	if f.WireFunc != nil {
		f.WireFunc(h, done)
	}
}

// EntityLifecycle drives the Entity contract for any pooled entity type.
// Construction is delegated to New; everything else is taken from the
// instance itself.
type EntityLifecycle[K comparable, T PooledEntity] struct {
	New func(kind K) T
}

// NewEntityLifecycle creates a Lifecycle for entity types
func NewEntityLifecycle[K comparable, T PooledEntity](construct func(kind K) T) EntityLifecycle[K, T] {
	return EntityLifecycle[K, T]{New: construct}
}

// Construct implements Lifecycle
func (l EntityLifecycle[K, T]) Construct(kind K) T {
	return l.New(kind)
}

// Reset deactivates the entity and clears its state
func (l EntityLifecycle[K, T]) Reset(h T) {
	h.Deactivate()
	h.Reset()
}

// Valid implements Lifecycle
func (l EntityLifecycle[K, T]) Valid(h T) bool {
	return h.Alive()
}

// Destroy calls Destroy when the entity implements Destroyer
func (l EntityLifecycle[K, T]) Destroy(h T) {
	if d, ok := any(h).(Destroyer); ok {
		d.Destroy()
	}
}

// Wire calls OnComplete when the entity implements Completer
func (l EntityLifecycle[K, T]) Wire(h T, done func()) {
	if c, ok := any(h).(Completer); ok {
		c.OnComplete(done)
	}
}
