package sim

import (
	"context"
	"math/rand"
	"strconv"

	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/entity"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
)

// Spawner acquires enemies in waves
type Spawner struct {
	reg   *entity.Registry
	waves []config.WaveConfig
	rng   *rand.Rand
	log   *zap.Logger
}

// Spawn returns the enemies that enter on tick
func (s *Spawner) Spawn(ctx context.Context, tick uint64) []*entity.Enemy {
	var out []*entity.Enemy
	for _, wave := range s.waves {
		if !due(tick, wave) {
			continue
		}
		for i := 0; i < wave.Count; i++ {
			inst := s.reg.Acquire(wave.Kind)
			e, ok := inst.(*entity.Enemy)
			if !ok {
				logger.FromContext(context.WithValue(ctx, logger.KindKey, wave.Kind), s.log).
					Warn("wave kind is not an enemy, returning instance", zap.String("class", string(inst.Class())))
				s.reg.Release(wave.Kind, inst)
				break
			}
			e.Spawn(arenaWidth+s.rng.Float64()*10, float64(s.rng.Intn(lanes)))
			out = append(out, e)
		}
	}
	return out
}

// due reports whether wave fires on tick. Every == 0 fires once at Start.
func due(tick uint64, wave config.WaveConfig) bool {
	start := uint64(wave.Start)
	if tick < start {
		return false
	}
	if wave.Every == 0 {
		return tick == start
	}
	return (tick-start)%uint64(wave.Every) == 0
}

// Weapon fires projectiles from the left edge
type Weapon struct {
	reg  *entity.Registry
	kind string
	log  *zap.Logger
}

// Fire launches a projectile along lane y. It returns nil when no projectile
// role is configured or the kind is not a projectile.
func (w *Weapon) Fire(ctx context.Context, y float64) *entity.Projectile {
	if w.kind == "" {
		return nil
	}
	inst := w.reg.Acquire(w.kind)
	p, ok := inst.(*entity.Projectile)
	if !ok {
		logger.FromContext(context.WithValue(ctx, logger.KindKey, w.kind), w.log).
			Warn("projectile role is not a projectile, returning instance", zap.String("class", string(inst.Class())))
		w.reg.Release(w.kind, inst)
		return nil
	}
	p.Fire(0, y, projectileSpeed, 0)
	return p
}

// HitFX spawns the feedback for hits and kills
type HitFX struct {
	reg        *entity.Registry
	spark      string
	death      string
	indicator  string
	voice      string
	deathBurst int
	rng        *rand.Rand
	log        *zap.Logger
}

// OnHit acquires a spark, a damage number and a hit sound at x, y, plus a
// burst of death effects when the hit was a kill. Roles left empty are
// skipped.
func (h *HitFX) OnHit(ctx context.Context, x, y float64, killed bool) []entity.Instance {
	var out []entity.Instance

	if h.spark != "" {
		out = append(out, h.effect(ctx, h.spark, x, y, sparkParticles))
	}
	if h.indicator != "" {
		inst := h.reg.Acquire(h.indicator)
		if ind, ok := inst.(*entity.Indicator); ok {
			ind.Show(x, y, "-"+strconv.Itoa(hitDamage))
		} else {
			h.fallback(ctx, h.indicator, inst, x, y)
		}
		out = append(out, inst)
	}
	if h.voice != "" {
		inst := h.reg.Acquire(h.voice)
		if v, ok := inst.(*entity.Voice); ok {
			v.Play(x, y, "hit_0"+strconv.Itoa(1+h.rng.Intn(3)))
		} else {
			h.fallback(ctx, h.voice, inst, x, y)
		}
		out = append(out, inst)
	}

	if killed && h.death != "" {
		for i := 0; i < h.deathBurst; i++ {
			jx := x + h.rng.Float64()*4 - 2
			jy := y + h.rng.Float64()*4 - 2
			out = append(out, h.effect(ctx, h.death, jx, jy, 24))
		}
	}
	return out
}

func (h *HitFX) effect(ctx context.Context, kind string, x, y float64, particles int) entity.Instance {
	inst := h.reg.Acquire(kind)
	if fx, ok := inst.(*entity.Effect); ok {
		fx.Burst(x, y, particles)
	} else {
		h.fallback(ctx, kind, inst, x, y)
	}
	return inst
}

// fallback activates an instance of an unexpected class where it stands
func (h *HitFX) fallback(ctx context.Context, kind string, inst entity.Instance, x, y float64) {
	logger.FromContext(context.WithValue(ctx, logger.KindKey, kind), h.log).
		Debug("unexpected class for hit feedback, activating as is", zap.String("class", string(inst.Class())))
	inst.Place(x, y)
	inst.Activate()
}
