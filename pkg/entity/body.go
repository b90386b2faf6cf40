package entity

import "time"

// Body is the state every game instance shares: where it is, whether it is
// drawn and simulated, and whether the object still exists.
type Body struct {
	X, Y       float64
	visible    bool
	simulating bool
	alive      bool

	done  func()
	fired bool
}

func newBody() Body {
	return Body{alive: true}
}

// Place moves the body
func (b *Body) Place(x, y float64) {
	b.X, b.Y = x, y
}

// Position returns the body position
func (b *Body) Position() (float64, float64) {
	return b.X, b.Y
}

// Activate makes the body visible and simulating, starting a new activation
// cycle in which completion may fire once
func (b *Body) Activate() {
	b.visible = true
	b.simulating = true
	b.fired = false
}

// Deactivate hides the body and stops simulation
func (b *Body) Deactivate() {
	b.visible = false
	b.simulating = false
}

// Visible reports whether the body is drawn
func (b *Body) Visible() bool { return b.visible }

// Simulating reports whether the body takes part in the tick
func (b *Body) Simulating() bool { return b.simulating }

// Alive reports whether the object still exists
func (b *Body) Alive() bool { return b.alive }

// OnComplete registers the completion signal
func (b *Body) OnComplete(done func()) {
	b.done = done
}

// Destroy marks the object gone and drops the completion signal
func (b *Body) Destroy() {
	b.alive = false
	b.visible = false
	b.simulating = false
	b.done = nil
}

// resetBody returns position to the origin
func (b *Body) resetBody() {
	b.X, b.Y = 0, 0
}

// complete fires the completion signal at most once per activation cycle
func (b *Body) complete() {
	if b.fired || !b.alive {
		return
	}
	b.fired = true
	if b.done != nil {
		b.done()
	}
}

// Countdown is a one-shot timer advanced by simulation time
type Countdown struct {
	remaining time.Duration
	running   bool
}

// Start arms the countdown for d
func (c *Countdown) Start(d time.Duration) {
	c.remaining = d
	c.running = true
}

// Stop disarms the countdown without firing
func (c *Countdown) Stop() {
	c.remaining = 0
	c.running = false
}

// Advance moves the countdown forward by dt and reports whether it expired
// during this call
func (c *Countdown) Advance(dt time.Duration) bool {
	if !c.running {
		return false
	}
	c.remaining -= dt
	if c.remaining > 0 {
		return false
	}
	c.remaining = 0
	c.running = false
	return true
}

// Running reports whether the countdown is armed
func (c *Countdown) Running() bool { return c.running }

// Remaining returns the time left before expiry
func (c *Countdown) Remaining() time.Duration { return c.remaining }
