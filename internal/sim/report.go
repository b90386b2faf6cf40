package sim

import (
	"time"

	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

// Counters tallies gameplay events
type Counters struct {
	Spawned   int `json:"spawned"`
	Shots     int `json:"shots"`
	Hits      int `json:"hits"`
	Kills     int `json:"kills"`
	Escapes   int `json:"escapes"`
	Destroyed int `json:"destroyed"`
	Reclaimed int `json:"reclaimed"`
	Levels    int `json:"levels"`
}

// Report summarises a simulation run
type Report struct {
	Registry string        `json:"registry"`
	Ticks    uint64        `json:"ticks"`
	Elapsed  time.Duration `json:"elapsed"`
	// WarmTick is the first tick at which warm-up was complete, 0 if never
	WarmTick uint64        `json:"warm_tick"`
	Active   int           `json:"active"`
	Counters Counters      `json:"counters"`
	Progress pool.Progress `json:"progress"`
	Pools    []pool.Stats  `json:"pools"`
}

// Synthesized returns how many acquires had to construct on demand
func (r *Report) Synthesized() uint64 {
	var n uint64
	for _, s := range r.Pools {
		n += s.Synthesized
	}
	return n
}

// HitRate returns the share of acquires served from a free list
func (r *Report) HitRate() float64 {
	var hits, total uint64
	for _, s := range r.Pools {
		hits += s.Hits
		total += s.Hits + s.Healed + s.Synthesized
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (w *World) report(elapsed time.Duration) *Report {
	return &Report{
		Registry: w.reg.Name(),
		Ticks:    w.tick,
		Elapsed:  elapsed,
		WarmTick: w.warmTick,
		Active:   len(w.active),
		Counters: w.counters,
		Progress: w.reg.Progress(),
		Pools:    w.reg.Stats(),
	}
}

// Report returns a snapshot without ending the run
func (w *World) Report() *Report {
	return w.report(0)
}
