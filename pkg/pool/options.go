package pool

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/pkg/logger"
)

// DefaultRegistryName labels pools created without WithRegistryName
const DefaultRegistryName = "default"

// Option configures a Pool or Registry
type Option func(*options)

type options struct {
	registry string
	logger   *zap.Logger
}

// WithRegistryName sets the registry label used in logs and metrics
func WithRegistryName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.registry = name
		}
	}
}

// WithLogger sets the base logger. Defaults to logger.Get().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{registry: DefaultRegistryName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}
