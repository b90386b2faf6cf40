package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mote struct {
	visible   bool
	x         float64
	alive     bool
	destroyed bool
	done      func()
}

func (m *mote) Activate() { m.visible = true }
func (m *mote) Deactivate() { m.visible = false }
func (m *mote) Reset() { m.x = 0 }
func (m *mote) Alive() bool { return m.alive }
func (m *mote) Destroy() { m.alive, m.destroyed = false, true }
func (m *mote) OnComplete(f func()) { m.done = f }

// plain has no Destroy or OnComplete
type plain struct{ on bool }

func (p *plain) Activate() { p.on = true }
func (p *plain) Deactivate() { p.on = false }
func (p *plain) Reset() {}
func (p *plain) Alive() bool { return true }

func TestFuncs_NilFields(t *testing.T) {
	lc := Funcs[string, *plain]{
		ConstructFunc: func(string) *plain { return &plain{} },
	}

	h := lc.Construct("x")
	require.NotNil(t, h)
	assert.True(t, lc.Valid(h))
	assert.NotPanics(t, func() {
		lc.Reset(h)
		lc.Destroy(h)
		lc.Wire(h, func() {})
	})
}

func TestFuncs_Delegates(t *testing.T) {
	var reset, destroyed, wired int
	lc := Funcs[int, *plain]{
		ConstructFunc: func(int) *plain { return &plain{} },
		ResetFunc:     func(*plain) { reset++ },
		ValidFunc:     func(*plain) bool { return false },
		DestroyFunc:   func(*plain) { destroyed++ },
		WireFunc:      func(*plain, func()) { wired++ },
	}

	h := lc.Construct(1)
	lc.Reset(h)
	lc.Destroy(h)
	lc.Wire(h, nil)
	assert.False(t, lc.Valid(h))
	assert.Equal(t, []int{1, 1, 1}, []int{reset, destroyed, wired})
}

func TestEntityLifecycle(t *testing.T) {
	lc := NewEntityLifecycle(func(string) *mote { return &mote{alive: true} })

	m := lc.Construct("Spark")
	m.Activate()
	m.x = 12
	lc.Reset(m)
	assert.False(t, m.visible)
	assert.Zero(t, m.x)
	assert.True(t, lc.Valid(m))

	fired := false
	lc.Wire(m, func() { fired = true })
	require.NotNil(t, m.done)
	m.done()
	assert.True(t, fired)

	lc.Destroy(m)
	assert.True(t, m.destroyed)
	assert.False(t, lc.Valid(m))
}

func TestEntityLifecycle_OptionalInterfaces(t *testing.T) {
	lc := NewEntityLifecycle(func(string) *plain { return &plain{} })
	h := lc.Construct("x")
	assert.NotPanics(t, func() {
		lc.Wire(h, func() {})
		lc.Destroy(h)
	})
}

func TestEntityLifecycle_InPool(t *testing.T) {
	lc := NewEntityLifecycle(func(string) *mote { return &mote{alive: true} })
	p := NewPool[string, *mote]("Spark", 2, lc, WithLogger(nop), WithRegistryName(t.Name()))
	p.WarmAll()

	m := p.Acquire()
	m.Activate()
	m.done()

	assert.False(t, m.visible)
	assert.Equal(t, 2, p.Free())

	p.Teardown()
	assert.True(t, m.destroyed)
}
