package transpiler

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/resolver"
	"github.com/wippyai/modkit/transpiler/internal/sourcemap"
)

// InlineName names code transpiled without a file name in errors and maps.
const InlineName = "<inline>"

// Result is the output of one transpilation.
type Result struct {
	// Code is the JavaScript output, ending with the source map comment when
	// inline maps are enabled.
	Code string
	// Map is the source map JSON, nil when source maps are disabled.
	Map []byte
	// Imports lists every import specifier seen, in source order, when import
	// resolution is enabled.
	Imports []ImportRewrite
}

// Unresolved returns the imports that kept their specifier because
// resolution failed.
func (r *Result) Unresolved() []ImportRewrite {
	var out []ImportRewrite
	for _, imp := range r.Imports {
		if imp.Err != nil {
			out = append(out, imp)
		}
	}
	return out
}

// Option configures a Transpiler.
type Option func(*Transpiler)

// WithResolver sets the resolver used for import rewriting.
func WithResolver(r *resolver.Resolver) Option {
	return func(t *Transpiler) { t.resolver = r }
}

// WithFs sets the filesystem read by TranspileFile and by the resolver built
// from Config.Resolver.
func WithFs(fs afero.Fs) Option {
	return func(t *Transpiler) { t.fs = fs }
}

// WithLogger sets the logger for this transpiler.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transpiler) { t.log = l }
}

// Transpiler strips TypeScript types, rewrites import specifiers and
// replaces configured tokens. It holds no per-call state and is safe for
// concurrent use.
type Transpiler struct {
	fs       afero.Fs
	log      *zap.Logger
	resolver *resolver.Resolver
	root     string
	cfg      Config
}

// New creates a transpiler for the project at root.
func New(root string, cfg Config, opts ...Option) (*Transpiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Transpiler{
		fs:  afero.NewOsFs(),
		log: Logger(),
		cfg: cfg.clone(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.resolver != nil {
		t.root = t.resolver.Root()
	} else {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.InvalidConfig("root", root, err.Error())
		}
		t.root = abs
	}

	if t.cfg.ResolveImport && t.resolver == nil {
		if t.cfg.Resolver == nil {
			return nil, errors.FeatureDisabled("import resolution without a resolver")
		}
		r, err := resolver.New(t.root, *t.cfg.Resolver, resolver.WithFs(t.fs), resolver.WithLogger(t.log))
		if err != nil {
			return nil, err
		}
		t.resolver = r
	}
	return t, nil
}

// Root returns the project root.
func (t *Transpiler) Root() string { return t.root }

// Config returns a copy of the configuration.
func (t *Transpiler) Config() Config { return t.cfg.clone() }

// Resolver returns the resolver used for import rewriting, or nil.
func (t *Transpiler) Resolver() *resolver.Resolver { return t.resolver }

// TranspileCode transpiles source text. filename selects the grammar and is
// the referrer for import resolution; relative names are taken from the
// root and an empty name means inline code at the root.
func (t *Transpiler) TranspileCode(ctx context.Context, code, filename string) (*Result, error) {
	return t.transpile(ctx, []byte(code), filename)
}

// TranspileFile reads path through the transpiler's filesystem and
// transpiles it.
func (t *Transpiler) TranspileFile(ctx context.Context, path string) (*Result, error) {
	abs := t.absolute(path)
	data, err := afero.ReadFile(t.fs, abs)
	if err != nil {
		return nil, errors.ReadFailed(abs, err)
	}
	return t.transpile(ctx, data, abs)
}

func (t *Transpiler) absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(t.root, path)
}

func (t *Transpiler) transpile(ctx context.Context, src []byte, filename string) (*Result, error) {
	start := time.Now()
	display, referrer := filename, ""
	if filename == "" {
		display = InlineName
		referrer = filepath.Join(t.root, InlineName)
	} else {
		referrer = t.absolute(filename)
	}

	tree, err := parse(ctx, src, filename, display)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := newWalker(src, display, &t.cfg)
	w.visit(tree.RootNode())
	if w.err != nil {
		return nil, w.err
	}

	res := &Result{Imports: t.rewriteImports(w, referrer)}
	out, chunks := w.buf.Apply(src)

	if t.cfg.SourceMap == SourceMapInline {
		data, err := buildSourceMap(src, out, chunks, display)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseTransform, errors.KindInvalidInput, err, "encode source map")
		}
		res.Map = data
		if len(out) > 0 && out[len(out)-1] != '\n' {
			out = append(out, '\n')
		}
		out = append(out, sourcemap.InlineComment(data)...)
	}
	res.Code = string(out)

	t.log.Debug("transpiled",
		zap.String("file", display),
		zap.Int("edits", w.buf.Len()),
		zap.Int("imports", len(res.Imports)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
