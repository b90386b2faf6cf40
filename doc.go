// Package spawnpool is the object pooling layer of a real-time arcade game.
//
// Spawning an enemy, a particle burst, a projectile, a damage number or an
// audio voice at the moment it is needed costs allocation and initialisation
// inside the simulation tick. spawnpool builds those instances ahead of time,
// hands them out in a reset state and takes them back when their lifetime
// ends, so the tick only pays for moving ownership between two lists.
//
// # Architecture
//
//   - pkg/pool: the kind-agnostic core. Pool[K, T] keeps a FIFO free list and
//     an active set; Registry[K, T] maps kinds to pools; Scheduler warms pools
//     one instance at a time, per tick or on a background goroutine.
//   - pkg/entity: concrete game instances and the catalog that constructs
//     them by kind name.
//   - internal/sim: a headless level that consumes the registry the way
//     spawners, weapons and hit handlers do.
//   - cmd/spawnpool: the CLI (simulate, kinds, config, version).
//
// Ambient packages: pkg/config (YAML + env substitution), pkg/logger (zap),
// pkg/errors (typed errors), pkg/metrics (Prometheus), pkg/observability
// (OpenTelemetry tracing).
//
// # Quick Start
//
//	reg, _, err := entity.NewRegistry(config.Default())
//	if err != nil {
//		return err
//	}
//	defer reg.Teardown(ctx)
//
//	warm := pool.NewScheduler(reg)
//	warm.Start(ctx)
//	defer warm.Stop()
//
//	bolt := reg.Acquire("Bolt").(*entity.Projectile)
//	bolt.Fire(x, y, 250, 0)
//	// the bolt returns to its pool when its range runs out
//
// # Guarantees
//
// Acquire never fails and never blocks on warm-up. An empty free list
// constructs on demand and keeps the new instance pooled. Releasing twice, or
// releasing something that was destroyed elsewhere, is logged and absorbed.
package spawnpool
