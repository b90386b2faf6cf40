// Package sim runs a headless arcade level against a pool registry.
//
// # Overview
//
// The world is a fixed-step tick loop whose systems are plain pool
// consumers:
//   - Spawner: acquires enemies in configured waves
//   - Weapon: fires projectiles at the nearest lane
//   - HitFX: on every hit acquires a spark, a damage number and a hit sound;
//     on a kill acquires a burst of death effects
//
// Instances return to their pools through their own completion signals
// (expiring timers, despawns). Every LevelLength ticks the level ends and
// ReclaimAllActive returns whatever is still out. An optional chaos rate
// destroys random active instances behind the pools' backs so the healing
// paths are exercised.
//
// # Basic Usage
//
//	reg, _, _ := entity.NewRegistry(cfg)
//	world := sim.New(cfg.Simulation, reg, sim.WithScheduler(pool.NewScheduler(reg)))
//	report, err := world.Run(ctx)
package sim

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/entity"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
	"github.com/ajitpratap0/spawnpool/pkg/metrics"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

const (
	// arenaWidth is where enemies enter
	arenaWidth = 100.0
	// lanes is the number of rows enemies walk along
	lanes = 8
	// fireEvery is the weapon cooldown in ticks
	fireEvery = 6
	// projectileSpeed in units per second
	projectileSpeed = 250.0
	// hitRadius is the collision half-extent
	hitRadius = 3.0
	// sparkParticles per hit effect
	sparkParticles = 12
	// hitDamage per projectile
	hitDamage = 1
)

// Option configures a World
type Option func(*World)

// WithScheduler ticks s once per simulation tick
func WithScheduler(s *pool.Scheduler) Option {
	return func(w *World) {
		w.scheduler = s
	}
}

// WithLogger sets the world logger
func WithLogger(l *zap.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// World owns the active instances of one level
type World struct {
	cfg       config.SimulationConfig
	reg       *entity.Registry
	scheduler *pool.Scheduler
	logger    *zap.Logger
	rng       *rand.Rand
	// ctx carries log values (registry, tick, kind) down to the systems
	ctx context.Context

	spawner *Spawner
	weapon  *Weapon
	fx      *HitFX

	tick     uint64
	active   []entity.Instance
	tracked  map[entity.Instance]struct{}
	counters Counters
	warmTick uint64
}

// New creates a world over reg. Consumers receive the registry here and
// nowhere else.
func New(cfg config.SimulationConfig, reg *entity.Registry, opts ...Option) *World {
	w := &World{
		cfg:     cfg,
		reg:     reg,
		logger:  logger.Get(),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		tracked: make(map[entity.Instance]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ctx = context.WithValue(context.Background(), logger.RegistryKey, reg.Name())

	w.spawner = &Spawner{reg: reg, waves: cfg.Waves, rng: w.rng, log: w.logger}
	w.weapon = &Weapon{reg: reg, kind: cfg.Roles.Projectile, log: w.logger}
	w.fx = &HitFX{
		reg:        reg,
		spark:      cfg.Roles.HitEffect,
		death:      cfg.Roles.DeathEffect,
		indicator:  cfg.Roles.Indicator,
		voice:      cfg.Roles.Voice,
		deathBurst: cfg.DeathBurst,
		rng:        w.rng,
		log:        w.logger,
	}
	return w
}

// Run simulates cfg.Ticks ticks, or until ctx is done. With a TickInterval
// the loop is paced in real time; otherwise it runs flat out.
func (w *World) Run(ctx context.Context) (*Report, error) {
	timer := metrics.NewTimer("simulation")
	w.ctx = context.WithValue(ctx, logger.RegistryKey, w.reg.Name())
	log := logger.FromContext(w.ctx, w.logger)
	log.Info("starting simulation",
		zap.Int("ticks", w.cfg.Ticks),
		zap.Duration("step", w.cfg.Step),
		zap.Int64("seed", w.cfg.Seed))

	var pace <-chan time.Time
	if w.cfg.TickInterval > 0 {
		ticker := time.NewTicker(w.cfg.TickInterval)
		defer ticker.Stop()
		pace = ticker.C
	}

	for i := 0; i < w.cfg.Ticks; i++ {
		if pace != nil {
			select {
			case <-pace:
			case <-ctx.Done():
				return w.report(timer.Stop()), ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return w.report(timer.Stop()), err
		}
		w.Step()
	}

	r := w.report(timer.Stop())
	log.Info("simulation completed",
		zap.Uint64("ticks", r.Ticks),
		zap.Int("spawned", r.Counters.Spawned),
		zap.Int("kills", r.Counters.Kills),
		zap.Int("reclaimed", r.Counters.Reclaimed),
		zap.Duration("duration", r.Elapsed))
	return r, nil
}

// Step advances the world by one tick
func (w *World) Step() {
	w.tick++
	ctx := context.WithValue(w.ctx, logger.TickKey, w.tick)

	if w.scheduler != nil {
		w.scheduler.Tick()
	}
	if w.warmTick == 0 && w.reg.IsWarmupComplete() {
		w.warmTick = w.tick
	}

	for _, e := range w.spawner.Spawn(ctx, w.tick) {
		w.track(e)
		w.counters.Spawned++
	}
	if w.tick%fireEvery == 0 {
		if p := w.weapon.Fire(ctx, w.lane()); p != nil {
			w.track(p)
			w.counters.Shots++
		}
	}

	dt := w.cfg.Step
	for _, inst := range w.active {
		if inst.Simulating() {
			inst.Advance(dt)
		}
	}

	w.collide(ctx)
	w.escape()
	w.chaos()
	w.prune()

	if w.cfg.LevelLength > 0 && w.tick%uint64(w.cfg.LevelLength) == 0 {
		w.endLevel(ctx)
	}
}

// lane picks the row of the closest enemy, or a random one
func (w *World) lane() float64 {
	best, bestX := -1.0, arenaWidth*2
	for _, inst := range w.active {
		if e, ok := inst.(*entity.Enemy); ok && e.Simulating() && e.X < bestX {
			best, bestX = e.Y, e.X
		}
	}
	if best < 0 {
		return float64(w.rng.Intn(lanes))
	}
	return best
}

// collide resolves projectile hits against enemies
func (w *World) collide(ctx context.Context) {
	for _, inst := range w.active {
		p, ok := inst.(*entity.Projectile)
		if !ok || !p.Simulating() {
			continue
		}
		for _, other := range w.active {
			e, ok := other.(*entity.Enemy)
			if !ok || !e.Simulating() || e.HP == 0 {
				continue
			}
			if abs(p.X-e.X) > hitRadius || abs(p.Y-e.Y) > hitRadius {
				continue
			}

			w.counters.Hits++
			killed := e.Hit(hitDamage)
			p.Impact()
			for _, fx := range w.fx.OnHit(ctx, e.X, e.Y, killed) {
				w.track(fx)
			}
			if killed {
				w.counters.Kills++
				e.Despawn()
			}
			break
		}
	}
}

// escape despawns enemies that walked off the left edge
func (w *World) escape() {
	for _, inst := range w.active {
		if e, ok := inst.(*entity.Enemy); ok && e.Simulating() && e.X <= 0 {
			w.counters.Escapes++
			e.Despawn()
		}
	}
}

// chaos destroys random active instances, simulating engine-side removal
func (w *World) chaos() {
	if w.cfg.ChaosRate <= 0 || len(w.active) == 0 {
		return
	}
	if w.rng.Float64() >= w.cfg.ChaosRate {
		return
	}
	victim := w.active[w.rng.Intn(len(w.active))]
	if victim.Alive() {
		victim.Destroy()
		w.counters.Destroyed++
	}
}

// endLevel returns every active instance to its pool
func (w *World) endLevel(ctx context.Context) {
	n := w.reg.ReclaimAllActive()
	w.counters.Reclaimed += n
	w.counters.Levels++
	w.active = w.active[:0]
	clear(w.tracked)

	logger.FromContext(ctx, w.logger).Info("level ended", zap.Int("reclaimed", n))
}

// track adds inst to the active list once
func (w *World) track(inst entity.Instance) {
	if _, ok := w.tracked[inst]; ok {
		return
	}
	w.tracked[inst] = struct{}{}
	w.active = append(w.active, inst)
}

// prune drops instances that went back to their pool or were destroyed
func (w *World) prune() {
	kept := w.active[:0]
	for _, inst := range w.active {
		if inst.Simulating() && inst.Alive() {
			kept = append(kept, inst)
			continue
		}
		delete(w.tracked, inst)
	}
	clear(w.active[len(kept):])
	w.active = kept
}

// Active returns the number of instances the world is simulating
func (w *World) Active() int {
	return len(w.active)
}

// Tick returns the current tick
func (w *World) Tick() uint64 {
	return w.tick
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
