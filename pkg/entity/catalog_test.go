package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

func TestParseClass(t *testing.T) {
	tests := []struct {
		in      string
		want    Class
		wantErr bool
	}{
		{"enemy", ClassEnemy, false},
		{"effect", ClassEffect, false},
		{"projectile", ClassProjectile, false},
		{"indicator", ClassIndicator, false},
		{"voice", ClassVoice, false},
		{"", ClassEffect, false},
		{"boss", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClass(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_New(t *testing.T) {
	cat, err := NewCatalog(config.Default().Pools)
	require.NoError(t, err)

	tests := []struct {
		kind  string
		class Class
	}{
		{"Grunt", ClassEnemy},
		{"Bolt", ClassProjectile},
		{"Spark", ClassEffect},
		{"DamageNumber", ClassIndicator},
		{"HitSound", ClassVoice},
		{"NeverConfigured", ClassEffect},
	}
	for _, tt := range tests {
		inst := cat.New(tt.kind)
		assert.Equal(t, tt.class, inst.Class(), tt.kind)
		assert.Equal(t, tt.kind, inst.Kind())
		assert.True(t, inst.Alive())
	}

	spec, ok := cat.Spec("Grunt")
	require.True(t, ok)
	assert.Equal(t, DefaultLifetime, spec.Lifetime, "zero lifetime falls back")
	assert.Len(t, cat.Specs(), len(config.Default().Pools))
}

func TestCatalog_BadClass(t *testing.T) {
	_, err := NewCatalog([]config.KindConfig{{Kind: "Boss", Class: "titan", TargetSize: 1}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.Name = t.Name()
	cfg.Pools = append(cfg.Pools, config.KindConfig{Kind: "Rare", Class: "effect", TargetSize: 0, Lifetime: time.Second})

	reg, cat, err := NewRegistry(cfg, pool.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	assert.Equal(t, t.Name(), reg.Name())
	assert.Len(t, reg.Kinds(), len(cfg.Pools)-1, "zero-target kinds are served on demand")
	assert.Equal(t, cfg.TotalTarget(), reg.Progress().Target)

	_, ok := cat.Spec("Rare")
	assert.True(t, ok)
	rare := reg.Acquire("Rare")
	assert.Equal(t, ClassEffect, rare.Class())
}
