package patch

import (
	"log/slog"

	"scim-patch/internal/accessor"
	"scim-patch/internal/path"
)

// defaultResolver is shared by binders built without WithResolver so that
// compiled paths are reused across them.
var defaultResolver = path.NewResolver()

type options struct {
	logger       *slog.Logger
	coercer      Coercer
	materializer accessor.Materializer
	resolver     *path.Resolver
	rollback     bool
}

// Option configures a Binder or a Tracker.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		logger:       slog.New(slog.DiscardHandler),
		coercer:      JSONCoercer{},
		materializer: accessor.DefaultMaterializer,
		resolver:     defaultResolver,
		rollback:     true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithLogger sets the logger. Nil keeps the default, which discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCoercer sets the payload coercer used while binding.
func WithCoercer(c Coercer) Option {
	return func(o *options) {
		if c != nil {
			o.coercer = c
		}
	}
}

// WithMaterializer sets how absent sequences are created before the first
// element is added.
func WithMaterializer(m accessor.Materializer) Option {
	return func(o *options) {
		if m != nil {
			o.materializer = m
		}
	}
}

// WithResolver sets the path resolver used while binding.
func WithResolver(r *path.Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithRollback controls whether Tracker.Apply reverts the applied nodes
// when one fails. It is on by default.
func WithRollback(enabled bool) Option {
	return func(o *options) {
		o.rollback = enabled
	}
}
