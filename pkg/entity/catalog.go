// Package entity provides the concrete pooled game objects: enemies, particle
// effects, projectiles, damage indicators and audio voices, plus the catalog
// that builds them by kind name for a pool.Registry.
package entity

import (
	"time"

	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

// Class selects which implementation backs a kind
type Class string

const (
	ClassEnemy      Class = "enemy"
	ClassEffect     Class = "effect"
	ClassProjectile Class = "projectile"
	ClassIndicator  Class = "indicator"
	ClassVoice      Class = "voice"
)

const (
	// DefaultLifetime is used by self-timed classes configured without one
	DefaultLifetime = 500 * time.Millisecond

	// DefaultEnemyHP and DefaultEnemySpeed shape every enemy kind
	DefaultEnemyHP    = 3
	DefaultEnemySpeed = 30.0
)

// ParseClass converts a configured class name. An empty name means effect.
func ParseClass(s string) (Class, error) {
	switch c := Class(s); c {
	case ClassEnemy, ClassEffect, ClassProjectile, ClassIndicator, ClassVoice:
		return c, nil
	case "":
		return ClassEffect, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown class %q", s).WithDetail("class", s)
	}
}

// Spec is the resolved description of one kind
type Spec struct {
	Kind     string        `json:"kind"`
	Class    Class         `json:"class"`
	Target   int           `json:"target"`
	Lifetime time.Duration `json:"lifetime"`
}

// Catalog constructs instances by kind name. It is read-only after creation.
type Catalog struct {
	specs map[string]Spec
	order []Spec
}

// NewCatalog resolves kinds into specs
func NewCatalog(kinds []config.KindConfig) (*Catalog, error) {
	c := &Catalog{specs: make(map[string]Spec, len(kinds))}
	for _, k := range kinds {
		class, err := ParseClass(k.Class)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "kind "+k.Kind)
		}
		lifetime := k.Lifetime
		if lifetime == 0 {
			lifetime = DefaultLifetime
		}
		spec := Spec{Kind: k.Kind, Class: class, Target: k.TargetSize, Lifetime: lifetime}
		c.specs[k.Kind] = spec
		c.order = append(c.order, spec)
	}
	return c, nil
}

// Spec returns the catalog entry for kind
func (c *Catalog) Spec(kind string) (Spec, bool) {
	s, ok := c.specs[kind]
	return s, ok
}

// Specs returns every entry in configuration order
func (c *Catalog) Specs() []Spec {
	return c.order
}

// New constructs an inert instance of kind. Kinds missing from the catalog
// are built as effects with the default lifetime so a lazily created pool
// still gets something usable.
func (c *Catalog) New(kind string) Instance {
	spec, ok := c.specs[kind]
	if !ok {
		spec = Spec{Kind: kind, Class: ClassEffect, Lifetime: DefaultLifetime}
	}

	switch spec.Class {
	case ClassEnemy:
		return NewEnemy(kind, DefaultEnemyHP, DefaultEnemySpeed)
	case ClassProjectile:
		return NewProjectile(kind, spec.Lifetime)
	case ClassIndicator:
		return NewIndicator(kind, spec.Lifetime)
	case ClassVoice:
		return NewVoice(kind, spec.Lifetime)
	default:
		return NewEffect(kind, spec.Lifetime)
	}
}

// Registry is a pool registry holding every entity kind
type Registry = pool.Registry[string, Instance]

// Lifecycle returns the pool lifecycle for catalog kinds
func Lifecycle(c *Catalog) pool.EntityLifecycle[string, Instance] {
	return pool.NewEntityLifecycle(c.New)
}

// RegisterAll registers kinds in order and returns how many were accepted.
// Kinds with a zero target are skipped, leaving them to on-demand pools.
func RegisterAll(reg *Registry, kinds []config.KindConfig) int {
	n := 0
	for _, k := range kinds {
		if k.TargetSize == 0 {
			continue
		}
		if reg.Register(k.Kind, k.TargetSize) {
			n++
		}
	}
	return n
}

// NewRegistry builds the catalog and a registry for cfg with every kind
// registered. The registry is named after cfg.Name unless opts override it.
func NewRegistry(cfg *config.Config, opts ...pool.Option) (*Registry, *Catalog, error) {
	cat, err := NewCatalog(cfg.Pools)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]pool.Option{pool.WithRegistryName(cfg.Name)}, opts...)
	reg := pool.NewRegistry[string, Instance](Lifecycle(cat), opts...)
	RegisterAll(reg, cfg.Pools)
	return reg, cat, nil
}
