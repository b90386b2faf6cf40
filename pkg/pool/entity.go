package pool

// Entity is the reusable unit contract: anything that can be activated,
// deactivated, and reset to a baseline.
type Entity interface {
	// Activate makes the instance visible and simulating. Consumers call it
	// after configuring an acquired instance.
	Activate()
	// Deactivate hides the instance and stops simulation.
	Deactivate()
	// Reset clears transient state (position, text, timers) back to baseline.
	Reset()
	// Alive reports whether the object still exists.
	Alive() bool
}

// PooledEntity constrains type parameters to comparable entities, which is
// what a Pool needs to track handle ownership.
type PooledEntity interface {
	comparable
	Entity
}

// Destroyer is implemented by entities that own resources beyond memory
type Destroyer interface {
	Destroy()
}

// Completer is implemented by entities that end their own active lifetime.
// The registered callback must be invoked at most once per activation cycle;
// extra invocations are tolerated and ignored by the pool.
type Completer interface {
	OnComplete(done func())
}
