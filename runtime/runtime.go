package runtime

import (
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/handle"
	"github.com/wippyai/modkit/resolver"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithFs sets the filesystem every resolver, transpiler and loader reads.
func WithFs(fs afero.Fs) Option {
	return func(r *Runtime) { r.fs = fs }
}

// WithLogger sets the logger handed to every instance.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

// WithDefaultResolver sets the resolver config merged under every
// transpiler's own resolver config.
func WithDefaultResolver(cfg resolver.Config) Option {
	return func(r *Runtime) {
		r.defaults = cfg.Clone()
		r.resolution = true
	}
}

// WithoutResolver disables resolution for this runtime. NewResolver,
// NewLoader and import rewriting fail with a feature disabled error.
func WithoutResolver() Option {
	return func(r *Runtime) { r.resolution = false }
}

// WithManifestCache enables package.json caching in resolvers created by
// this runtime.
func WithManifestCache() Option {
	return func(r *Runtime) { r.cacheManifests = true }
}

// Runtime is an execution context. It owns a handle registry and every
// resolver, transpiler and loader created through it; callers hold handles.
type Runtime struct {
	fs             afero.Fs
	log            *zap.Logger
	registry       *handle.Registry
	root           string
	defaults       resolver.Config
	pending        sync.WaitGroup
	mu             sync.RWMutex
	resolution     bool
	cacheManifests bool
	closed         bool
}

// New creates a runtime for the project at root.
func New(root string, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		fs:         afero.NewOsFs(),
		log:        Logger(),
		registry:   handle.NewRegistry(),
		resolution: true,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.defaults.Validate(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.InvalidConfig("root", root, err.Error())
	}
	info, err := r.fs.Stat(abs)
	if err != nil {
		return nil, errors.InvalidConfig("root", root, err.Error())
	}
	if !info.IsDir() {
		return nil, errors.InvalidConfig("root", root, "not a directory")
	}
	r.root = abs

	r.registry.Subscribe(handle.ObserverFunc(func(e handle.Event) {
		r.log.Debug("handle",
			zap.Stringer("event", e.Type),
			zap.Stringer("kind", e.Kind),
			zap.Stringer("handle", e.Handle))
	}))
	return r, nil
}

// Root returns the canonical project root.
func (r *Runtime) Root() string { return r.root }

// Fs returns the runtime's filesystem.
func (r *Runtime) Fs() afero.Fs { return r.fs }

// Registry returns the handle registry owned by this runtime.
func (r *Runtime) Registry() *handle.Registry { return r.registry }

// Release drops the object behind h. The handle is invalid afterwards.
func (r *Runtime) Release(h handle.Handle) error {
	_, err := r.registry.Release(h)
	return err
}

// Close waits for pending async work and releases every handle.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.pending.Wait()
	return r.registry.Close()
}

func (r *Runtime) allocate(kind handle.Kind, v any) (handle.Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, handle.ErrClosed
	}
	return r.registry.Allocate(kind, v)
}

func (r *Runtime) newResolver(cfg resolver.Config) (*resolver.Resolver, error) {
	opts := []resolver.Option{resolver.WithFs(r.fs), resolver.WithLogger(r.log)}
	if r.cacheManifests {
		opts = append(opts, resolver.WithManifestCache())
	}
	return resolver.New(r.root, cfg, opts...)
}
