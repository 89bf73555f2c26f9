package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/handle"
	"github.com/wippyai/modkit/resolver"
	"github.com/wippyai/modkit/transpiler"
)

// Output is the result of a transpile call.
type Output struct {
	Code    string
	Map     []byte
	Imports []transpiler.ImportRewrite
}

// AsyncResult is delivered once on the channel returned by
// TranspileFileAsync.
type AsyncResult struct {
	Err      error
	Output   *Output
	Filename string
}

// NewResolver creates a resolver and returns its handle and the root it
// resolves against.
func (r *Runtime) NewResolver(cfg resolver.Config) (handle.Handle, string, error) {
	if !r.resolution {
		return 0, "", errors.FeatureDisabled("module resolution")
	}
	res, err := r.newResolver(cfg)
	if err != nil {
		return 0, "", err
	}
	h, err := r.allocate(handle.KindResolver, res)
	if err != nil {
		return 0, "", err
	}
	return h, res.Root(), nil
}

// Resolve resolves specifier with the resolver behind h.
func (r *Runtime) Resolve(h handle.Handle, specifier, referrer string, typ resolver.ResolutionType) (string, error) {
	res, err := handle.Lookup[*resolver.Resolver](r.registry, h, handle.KindResolver)
	if err != nil {
		return "", err
	}
	out, err := res.Resolve(specifier, referrer, typ)
	if err != nil {
		return "", err
	}
	return out.Path, nil
}

// NewTranspiler creates a transpiler and returns its handle and root. When
// import resolution is requested, the transpiler's resolver config is the
// runtime default merged with cfg.Resolver.
func (r *Runtime) NewTranspiler(cfg transpiler.Config) (handle.Handle, string, error) {
	opts := []transpiler.Option{transpiler.WithFs(r.fs), transpiler.WithLogger(r.log)}

	if cfg.ResolveImport {
		if !r.resolution {
			return 0, "", errors.FeatureDisabled("import resolution")
		}
		merged := r.defaults.Clone()
		if cfg.Resolver != nil {
			merged = merged.Merge(*cfg.Resolver)
		}
		res, err := r.newResolver(merged)
		if err != nil {
			return 0, "", err
		}
		cfg.Resolver = &merged
		opts = append(opts, transpiler.WithResolver(res))
	}

	tr, err := transpiler.New(r.root, cfg, opts...)
	if err != nil {
		return 0, "", err
	}
	h, err := r.allocate(handle.KindTranspiler, tr)
	if err != nil {
		return 0, "", err
	}
	return h, tr.Root(), nil
}

// TranspileSync transpiles code with the transpiler behind h. An empty
// filename means inline code at the root.
func (r *Runtime) TranspileSync(h handle.Handle, code, filename string) (*Output, error) {
	tr, err := handle.Lookup[*transpiler.Transpiler](r.registry, h, handle.KindTranspiler)
	if err != nil {
		return nil, err
	}
	res, err := tr.TranspileCode(context.Background(), code, filename)
	if err != nil {
		return nil, err
	}
	return output(res), nil
}

// TranspileFileAsync reads and transpiles filename in the background. The
// returned channel receives exactly one result and is then closed. Calls
// complete in any order; in-flight work is not canceled by Release, and
// Close waits for it.
func (r *Runtime) TranspileFileAsync(ctx context.Context, h handle.Handle, filename string) <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)

	tr, err := handle.Lookup[*transpiler.Transpiler](r.registry, h, handle.KindTranspiler)
	if err == nil {
		err = r.track()
	}
	if err != nil {
		ch <- AsyncResult{Filename: filename, Err: err}
		close(ch)
		return ch
	}

	go func() {
		defer r.pending.Done()
		defer close(ch)

		res, err := tr.TranspileFile(ctx, filename)
		if err != nil {
			r.log.Debug("async transpile failed", zap.String("file", filename), zap.Error(err))
			ch <- AsyncResult{Filename: filename, Err: err}
			return
		}
		ch <- AsyncResult{Filename: filename, Output: output(res)}
	}()
	return ch
}

// track registers pending async work unless the runtime is closing.
func (r *Runtime) track() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return handle.ErrClosed
	}
	r.pending.Add(1)
	return nil
}

func output(res *transpiler.Result) *Output {
	return &Output{Code: res.Code, Map: res.Map, Imports: res.Imports}
}
