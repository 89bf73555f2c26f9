package runtime

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/handle"
	"github.com/wippyai/modkit/resolver"
	"github.com/wippyai/modkit/transpiler"
)

// Module is one entry of a loader's cache.
type Module struct {
	err  error
	done chan struct{}
	// ID is the resolved path: root-relative for files, the "node:" name for
	// builtins and the specifier for externals.
	ID     string
	Source string
	Kind   resolver.Kind
	// Loaded is false while the module is being read or evaluated, which is
	// what a cyclic require observes.
	Loaded bool
}

// Evaluator runs a freshly read module. It may call Require on the same
// loader with the ctx it was given; a cycle back to a module being
// evaluated returns that module with Loaded false.
type Evaluator func(ctx context.Context, l *Loader, m *Module) error

// loadingKey carries the chain of modules being loaded by the caller.
type loadingKey struct{}

type loadChain struct {
	parent *loadChain
	id     string
}

func withLoading(ctx context.Context, id string) context.Context {
	parent, _ := ctx.Value(loadingKey{}).(*loadChain)
	return context.WithValue(ctx, loadingKey{}, &loadChain{parent: parent, id: id})
}

func isLoading(ctx context.Context, id string) bool {
	for c, _ := ctx.Value(loadingKey{}).(*loadChain); c != nil; c = c.parent {
		if c.id == id {
			return true
		}
	}
	return false
}

// transpiledExts are run through the loader's transpiler, if any.
var transpiledExts = map[string]bool{
	".ts": true, ".tsx": true, ".mts": true, ".cts": true, ".jsx": true,
}

// Loader implements require over a resolver. Each loader has its own cache.
type Loader struct {
	fs         afero.Fs
	log        *zap.Logger
	resolver   *resolver.Resolver
	transpiler *transpiler.Transpiler
	evaluate   Evaluator
	cache      map[string]*Module
	mu         sync.Mutex
}

// NewLoader creates a require capability from a resolver or transpiler
// handle. A transpiler handle must have import resolution enabled; its
// transpiler compiles TypeScript modules as they load.
func (r *Runtime) NewLoader(h handle.Handle, eval Evaluator) (handle.Handle, error) {
	if !r.resolution {
		return 0, errors.FeatureDisabled("module resolution")
	}
	v, err := r.registry.Get(h)
	if err != nil {
		return 0, err
	}

	l := &Loader{
		fs:       r.fs,
		log:      r.log,
		evaluate: eval,
		cache:    make(map[string]*Module),
	}
	switch obj := v.(type) {
	case *resolver.Resolver:
		l.resolver = obj
	case *transpiler.Transpiler:
		if obj.Resolver() == nil {
			return 0, errors.FeatureDisabled("loader for a transpiler without import resolution")
		}
		l.resolver = obj.Resolver()
		l.transpiler = obj
	default:
		return 0, errors.InvalidHandle(uint64(h), "not a resolver or transpiler")
	}
	return r.allocate(handle.KindLoader, l)
}

// Require loads specifier through the loader behind h.
func (r *Runtime) Require(ctx context.Context, h handle.Handle, specifier, referrer string) (*Module, error) {
	l, err := handle.Lookup[*Loader](r.registry, h, handle.KindLoader)
	if err != nil {
		return nil, err
	}
	return l.Require(ctx, specifier, referrer)
}

// Require resolves specifier in Require mode and returns the cached module
// or loads it. The cache entry is inserted before the file is read. Other
// callers requiring a module that is still loading wait for it, unless they
// are part of its own require chain.
func (l *Loader) Require(ctx context.Context, specifier, referrer string) (*Module, error) {
	res, err := l.resolver.Resolve(specifier, referrer, resolver.Require)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if m, ok := l.cache[res.Path]; ok {
		l.mu.Unlock()
		return l.await(ctx, m)
	}
	m := &Module{ID: res.Path, Kind: res.Kind, done: make(chan struct{})}
	l.cache[res.Path] = m
	l.mu.Unlock()

	if res.Kind != resolver.File {
		m.Loaded = true
		close(m.done)
		return m, nil
	}

	if err := l.load(withLoading(ctx, m.ID), m); err != nil {
		m.err = err
		l.mu.Lock()
		if l.cache[res.Path] == m {
			delete(l.cache, res.Path)
		}
		l.mu.Unlock()
		close(m.done)
		return nil, err
	}
	m.Loaded = true
	close(m.done)
	l.log.Debug("module loaded", zap.String("id", m.ID))
	return m, nil
}

// await returns m once its load finished. A module on the caller's own
// require chain is returned as is.
func (l *Loader) await(ctx context.Context, m *Module) (*Module, error) {
	if isLoading(ctx, m.ID) {
		return m, nil
	}
	select {
	case <-m.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m, nil
}

func (l *Loader) load(ctx context.Context, m *Module) error {
	abs := filepath.Join(l.resolver.Root(), filepath.FromSlash(m.ID))
	data, err := afero.ReadFile(l.fs, abs)
	if err != nil {
		return errors.ReadFailed(abs, err)
	}
	data = stripShebang(data)

	if l.transpiler != nil && transpiledExts[strings.ToLower(filepath.Ext(abs))] {
		out, err := l.transpiler.TranspileCode(ctx, string(data), abs)
		if err != nil {
			return err
		}
		m.Source = out.Code
	} else {
		m.Source = string(data)
	}

	if l.evaluate != nil {
		return l.evaluate(ctx, l, m)
	}
	return nil
}

// Cached returns the cached module for a resolved id. The module may still
// be loading.
func (l *Loader) Cached(id string) (*Module, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.cache[id]
	return m, ok
}

// Len returns the number of cached modules.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// Drop empties the cache when the loader's handle is released.
func (l *Loader) Drop() {
	l.mu.Lock()
	l.cache = make(map[string]*Module)
	l.mu.Unlock()
}

// stripShebang blanks a leading "#!" line, keeping its newline.
func stripShebang(src []byte) []byte {
	if !bytes.HasPrefix(src, []byte("#!")) {
		return src
	}
	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		return src[i:]
	}
	return nil
}
