package entity

import "time"

// Instance is a pooled game object of any class
type Instance interface {
	Activate()
	Deactivate()
	Reset()
	Alive() bool
	Simulating() bool
	Destroy()
	OnComplete(done func())

	Kind() string
	Class() Class
	Place(x, y float64)
	Position() (float64, float64)
	// Advance moves the instance forward by one simulation step
	Advance(dt time.Duration)
}

// Enemy stays active until it is despawned, usually after dying
type Enemy struct {
	Body
	kind  string
	HP    int
	MaxHP int
	Speed float64
}

// NewEnemy constructs an inert enemy
func NewEnemy(kind string, maxHP int, speed float64) *Enemy {
	return &Enemy{Body: newBody(), kind: kind, HP: maxHP, MaxHP: maxHP, Speed: speed}
}

// Spawn places the enemy at full health and activates it
func (e *Enemy) Spawn(x, y float64) {
	e.Place(x, y)
	e.HP = e.MaxHP
	e.Activate()
}

// Hit applies damage and reports whether it was lethal
func (e *Enemy) Hit(damage int) bool {
	if !e.simulating || e.HP <= 0 {
		return false
	}
	e.HP -= damage
	if e.HP <= 0 {
		e.HP = 0
		return true
	}
	return false
}

// Despawn ends the enemy's active lifetime
func (e *Enemy) Despawn() { e.complete() }

// Advance walks the enemy toward the player
func (e *Enemy) Advance(dt time.Duration) {
	if e.simulating {
		e.X -= e.Speed * dt.Seconds()
	}
}

// Reset implements pool.Entity
func (e *Enemy) Reset() {
	e.resetBody()
	e.HP = e.MaxHP
}

// Kind returns the pooled kind
func (e *Enemy) Kind() string { return e.kind }

// Class returns ClassEnemy
func (e *Enemy) Class() Class { return ClassEnemy }

// Effect is a particle burst that completes when its lifetime runs out
type Effect struct {
	Body
	kind      string
	lifetime  time.Duration
	timer     Countdown
	Particles int
}

// NewEffect constructs an inert effect
func NewEffect(kind string, lifetime time.Duration) *Effect {
	return &Effect{Body: newBody(), kind: kind, lifetime: lifetime}
}

// Burst emits particles at x, y
func (e *Effect) Burst(x, y float64, particles int) {
	e.Place(x, y)
	e.Particles = particles
	e.timer.Start(e.lifetime)
	e.Activate()
}

// Advance runs the burst and completes on expiry
func (e *Effect) Advance(dt time.Duration) {
	if e.simulating && e.timer.Advance(dt) {
		e.complete()
	}
}

// Reset implements pool.Entity
func (e *Effect) Reset() {
	e.resetBody()
	e.timer.Stop()
	e.Particles = 0
}

// Kind returns the pooled kind
func (e *Effect) Kind() string { return e.kind }

// Class returns ClassEffect
func (e *Effect) Class() Class { return ClassEffect }

// Projectile flies in a straight line until it hits or runs out of range
type Projectile struct {
	Body
	kind     string
	lifetime time.Duration
	timer    Countdown
	VX, VY   float64
}

// NewProjectile constructs an inert projectile
func NewProjectile(kind string, lifetime time.Duration) *Projectile {
	return &Projectile{Body: newBody(), kind: kind, lifetime: lifetime}
}

// Fire launches the projectile from x, y with velocity vx, vy
func (p *Projectile) Fire(x, y, vx, vy float64) {
	p.Place(x, y)
	p.VX, p.VY = vx, vy
	p.timer.Start(p.lifetime)
	p.Activate()
}

// Impact ends the flight on a hit
func (p *Projectile) Impact() { p.complete() }

// Advance moves the projectile and completes it at the end of its range
func (p *Projectile) Advance(dt time.Duration) {
	if !p.simulating {
		return
	}
	p.X += p.VX * dt.Seconds()
	p.Y += p.VY * dt.Seconds()
	if p.timer.Advance(dt) {
		p.complete()
	}
}

// Reset implements pool.Entity
func (p *Projectile) Reset() {
	p.resetBody()
	p.timer.Stop()
	p.VX, p.VY = 0, 0
}

// Kind returns the pooled kind
func (p *Projectile) Kind() string { return p.kind }

// Class returns ClassProjectile
func (p *Projectile) Class() Class { return ClassProjectile }

// indicatorRise is how fast damage numbers float upward, in units per second
const indicatorRise = 40.0

// Indicator is a floating damage number on a self timer
type Indicator struct {
	Body
	kind     string
	lifetime time.Duration
	timer    Countdown
	Text     string
}

// NewIndicator constructs an inert indicator
func NewIndicator(kind string, lifetime time.Duration) *Indicator {
	return &Indicator{Body: newBody(), kind: kind, lifetime: lifetime}
}

// Show displays text at x, y
func (i *Indicator) Show(x, y float64, text string) {
	i.Place(x, y)
	i.Text = text
	i.timer.Start(i.lifetime)
	i.Activate()
}

// Advance floats the indicator up and completes it on expiry
func (i *Indicator) Advance(dt time.Duration) {
	if !i.simulating {
		return
	}
	i.Y += indicatorRise * dt.Seconds()
	if i.timer.Advance(dt) {
		i.complete()
	}
}

// Reset implements pool.Entity
func (i *Indicator) Reset() {
	i.resetBody()
	i.timer.Stop()
	i.Text = ""
}

// Kind returns the pooled kind
func (i *Indicator) Kind() string { return i.kind }

// Class returns ClassIndicator
func (i *Indicator) Class() Class { return ClassIndicator }

// Voice is an audio player that completes when its clip finishes
type Voice struct {
	Body
	kind     string
	clipLen  time.Duration
	timer    Countdown
	Clip     string
	playback time.Duration
}

// NewVoice constructs an idle voice whose clips last clipLen
func NewVoice(kind string, clipLen time.Duration) *Voice {
	return &Voice{Body: newBody(), kind: kind, clipLen: clipLen}
}

// Play starts clip at the emitter position x, y
func (v *Voice) Play(x, y float64, clip string) {
	v.Place(x, y)
	v.Clip = clip
	v.playback = 0
	v.timer.Start(v.clipLen)
	v.Activate()
}

// Stop cuts the clip short
func (v *Voice) Stop() { v.complete() }

// Advance plays the clip and completes at its end
func (v *Voice) Advance(dt time.Duration) {
	if !v.simulating {
		return
	}
	v.playback += dt
	if v.timer.Advance(dt) {
		v.complete()
	}
}

// Playback returns how far into the clip the voice is
func (v *Voice) Playback() time.Duration { return v.playback }

// Reset implements pool.Entity
func (v *Voice) Reset() {
	v.resetBody()
	v.timer.Stop()
	v.Clip = ""
	v.playback = 0
}

// Kind returns the pooled kind
func (v *Voice) Kind() string { return v.kind }

// Class returns ClassVoice
func (v *Voice) Class() Class { return ClassVoice }
