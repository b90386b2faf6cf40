// Package pool implements kind-keyed object pools for real-time simulations.
// A game tick cannot afford to allocate and initialise enemies, particle
// bursts, projectiles or audio players on demand, so instances are built
// ahead of time, handed out in a reset state and reclaimed when their
// lifetime ends.
//
// Architecture
//
// Core Types:
//
//   - Pool[K, T]: free list + active set for one kind
//   - Registry[K, T]: one Pool per kind, plus the ordered warm-up worklist
//   - Scheduler: spreads construction over ticks or a background goroutine
//   - Lifecycle[K, T]: the per-kind strategy (construct, reset, validity,
//     destroy, completion wiring)
//
// Pool, Registry and Scheduler never look inside T. Everything kind specific
// lives behind Lifecycle; EntityLifecycle adapts any type implementing Entity.
//
// Usage Patterns
//
//	reg := pool.NewRegistry[string, *Spark](lifecycle, pool.WithRegistryName("level-1"))
//	reg.Register("Spark", 32)
//
//	warm := pool.NewScheduler(reg)
//	for !reg.IsWarmupComplete() {
//		warm.Tick() // once per frame during the loading screen
//	}
//
//	s := reg.Acquire("Spark")
//	s.Place(x, y)
//	s.Activate()
//	// the spark signals completion when its animation ends and returns itself
//
// Acquire never fails. An empty free list constructs a new instance on the
// spot, which is logged as an exhaustion so targets can be tuned, and the new
// instance stays in the pool afterwards.
//
// Metrics
//
// Every pool reports hits, heals, syntheses, releases and its free, active and
// live counts through pkg/metrics, labelled by registry and kind.
package pool
