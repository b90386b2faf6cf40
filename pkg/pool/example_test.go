// Package pool provides example usage of kind-keyed pools.
package pool_test

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

type spark struct {
	x, y    float64
	visible bool
	done    func()
}

func sparkLifecycle() pool.Funcs[string, *spark] {
	return pool.Funcs[string, *spark]{
		ConstructFunc: func(string) *spark { return &spark{} },
		ResetFunc: func(s *spark) {
			s.x, s.y, s.visible = 0, 0, false
		},
		WireFunc: func(s *spark, done func()) { s.done = done },
	}
}

// Example warms a registry one instance per tick and then spawns from it.
func Example() {
	reg := pool.NewRegistry[string, *spark](sparkLifecycle(),
		pool.WithRegistryName("example"),
		pool.WithLogger(zap.NewNop()))
	reg.Register("Spark", 3)

	warm := pool.NewScheduler(reg, pool.WithSchedulerLogger(zap.NewNop()))
	ticks := 0
	for !reg.IsWarmupComplete() {
		warm.Tick()
		ticks++
	}
	fmt.Println("warm after ticks:", ticks)

	s := reg.Acquire("Spark")
	s.x, s.y, s.visible = 4, 2, true

	// the burst finished animating
	s.done()

	st := reg.Pool("Spark").Stats()
	fmt.Printf("free=%d active=%d live=%d\n", st.Free, st.Active, st.Live)

	// Output:
	// warm after ticks: 3
	// free=3 active=0 live=3
}

// ExampleRegistry_Acquire shows that exhaustion never fails the caller.
func ExampleRegistry_Acquire() {
	reg := pool.NewRegistry[string, *spark](sparkLifecycle(),
		pool.WithRegistryName("example"),
		pool.WithLogger(zap.NewNop()))

	// Bolt was never registered: a pool is created on the spot
	b := reg.Acquire("Bolt")
	fmt.Println("got instance:", b != nil)
	fmt.Println("live:", reg.Pool("Bolt").Live())

	// Output:
	// got instance: true
	// live: 1
}

// ExampleRegistry_Progress reports loading-screen progress.
func ExampleRegistry_Progress() {
	reg := pool.NewRegistry[string, *spark](sparkLifecycle(),
		pool.WithRegistryName("example"),
		pool.WithLogger(zap.NewNop()))
	reg.Register("Spark", 4)
	reg.Pool("Spark").Prewarm(1)

	fmt.Printf("%.0f%%\n", reg.Progress().Ratio()*100)

	// Output:
	// 25%
}
