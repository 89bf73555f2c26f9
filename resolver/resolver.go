package resolver

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/modkit/errors"
)

// Kind classifies a Resolution.
type Kind uint8

const (
	// File is a root-relative path to a file on disk.
	File Kind = iota
	// External is a specifier returned unchanged, never probed.
	External
	// Builtin is a "node:" core module.
	Builtin
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case External:
		return "external"
	case Builtin:
		return "builtin"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Resolution is the result of resolving a specifier.
type Resolution struct {
	// Path is root-relative and slash separated for File, the specifier
	// for External and the "node:" name for Builtin.
	Path string
	Kind Kind
}

func (r Resolution) String() string { return r.Path }

// Option configures a Resolver.
type Option func(*Resolver)

// WithFs sets the filesystem capability. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) { r.fs = fs }
}

// WithLogger sets the logger. Defaults to the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// WithManifestCache memoizes package.json reads until Invalidate is called.
func WithManifestCache() Option {
	return func(r *Resolver) { r.manifests = newManifestCache() }
}

// Resolver binds a project root and configuration to the resolution
// algorithm. It is immutable after construction and safe for concurrent use.
type Resolver struct {
	fs        afero.Fs
	log       *zap.Logger
	manifests *manifestCache
	root      string
	realRoot  string
	aliasKeys []string
	cfg       Config
}

// New creates a resolver for root. The configuration is validated and copied.
func New(root string, cfg Config, opts ...Option) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Resolver{
		fs:  afero.NewOsFs(),
		log: Logger(),
		cfg: cfg.Clone(),
	}
	for _, opt := range opts {
		opt(r)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Value(root).
			Cause(err).
			Detail("root: cannot make absolute").
			Build()
	}
	if !r.isDir(abs) {
		return nil, errors.InvalidConfig("root", root, "not a directory")
	}
	r.root = abs
	r.realRoot = abs
	if rp, err := r.evalSymlinks(abs); err == nil {
		r.realRoot = rp
	}

	r.aliasKeys = make([]string, 0, len(r.cfg.Alias))
	for k := range r.cfg.Alias {
		r.aliasKeys = append(r.aliasKeys, k)
	}
	// Longest key first, ties broken lexically
	sort.Slice(r.aliasKeys, func(i, j int) bool {
		a, b := r.aliasKeys[i], r.aliasKeys[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	return r, nil
}

// Root returns the canonical project root.
func (r *Resolver) Root() string { return r.root }

// Config returns a copy of the resolver configuration.
func (r *Resolver) Config() Config { return r.cfg.Clone() }

// Fs returns the filesystem capability.
func (r *Resolver) Fs() afero.Fs { return r.fs }

// Invalidate drops memoized manifests. It is a no-op without WithManifestCache.
func (r *Resolver) Invalidate() {
	if r.manifests != nil {
		r.manifests.invalidate()
	}
}

// Resolve determines the target of specifier as referenced from referrer.
// Referrer may be an absolute path, a file:// URL, a root-relative path or
// empty for a file in the root.
func (r *Resolver) Resolve(specifier, referrer string, typ ResolutionType) (Resolution, error) {
	if specifier == "" {
		return Resolution{}, errors.ResolutionNotFound(specifier, referrer, "empty specifier")
	}

	if r.isExternal(specifier) {
		r.log.Debug("external", zap.String("specifier", specifier))
		return Resolution{Path: specifier, Kind: External}, nil
	}

	spec := specifier
	if aliased, ok := r.applyAlias(spec); ok {
		r.log.Debug("alias", zap.String("specifier", specifier), zap.String("target", aliased))
		spec = aliased
		if r.isExternal(spec) {
			return Resolution{Path: spec, Kind: External}, nil
		}
	}

	dir, err := r.referrerDir(referrer)
	if err != nil {
		return Resolution{}, errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			Specifier(specifier, referrer).
			Cause(err).
			Detail("invalid referrer").
			Build()
	}

	res, err := r.resolve(spec, dir, typ)
	if err != nil {
		r.log.Debug("not found",
			zap.String("specifier", specifier),
			zap.String("referrer", referrer),
			zap.Stringer("type", typ),
			zap.Error(err))
		return Resolution{}, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Specifier(specifier, referrer).
			Cause(err).
			Build()
	}

	r.log.Debug("resolved",
		zap.String("specifier", specifier),
		zap.String("referrer", referrer),
		zap.Stringer("type", typ),
		zap.String("path", res.Path))
	return res, nil
}

func (r *Resolver) resolve(spec, dir string, typ ResolutionType) (Resolution, error) {
	if strings.HasPrefix(spec, "#") {
		target, base, err := r.packageImport(spec, dir, typ)
		if err != nil {
			return Resolution{}, err
		}
		if strings.HasPrefix(target, "./") {
			p := filepath.Join(base, filepath.FromSlash(target))
			if !r.isFile(p) {
				return Resolution{}, fmt.Errorf("imports target %s does not exist", target)
			}
			return r.fileResolution(p), nil
		}
		spec, dir = target, base
	}

	if strings.HasPrefix(spec, "node:") {
		if name, ok := builtinName(spec); ok {
			return Resolution{Path: name, Kind: Builtin}, nil
		}
	}

	var (
		p   string
		err error
	)
	switch {
	case isRelative(spec):
		p, err = r.resolvePath(filepath.Join(dir, filepath.FromSlash(spec)), typ)
	case isAbsolute(spec):
		p, err = r.resolvePath(r.rootJoin(spec), typ)
	default:
		p, err = r.resolveBare(spec, dir, typ)
		// an installed package shadows a core module of the same name
		if _, missing := err.(*packageNotFound); missing {
			if name, ok := builtinName(spec); ok {
				return Resolution{Path: name, Kind: Builtin}, nil
			}
		}
	}
	if err != nil {
		return Resolution{}, err
	}
	return r.fileResolution(p), nil
}

func (r *Resolver) fileResolution(p string) Resolution {
	if !r.cfg.PreserveSymlink {
		if rp, err := r.evalSymlinks(p); err == nil {
			p = rp
		}
	}
	return Resolution{Path: r.relative(p), Kind: File}
}

func (r *Resolver) isExternal(specifier string) bool {
	for _, e := range r.cfg.External {
		if matchesEntry(specifier, e) {
			return true
		}
	}
	return false
}

// applyAlias substitutes the first matching alias key. Root-relative values
// become absolute paths under root.
func (r *Resolver) applyAlias(specifier string) (string, bool) {
	for _, k := range r.aliasKeys {
		if !matchesEntry(specifier, k) {
			continue
		}
		v := r.cfg.Alias[k]
		rest := specifier[len(k):]
		if strings.HasPrefix(v, ".") || strings.HasPrefix(v, "/") {
			return filepath.ToSlash(filepath.Join(r.root, filepath.FromSlash(v))) + rest, true
		}
		return v + rest, true
	}
	return specifier, false
}

func (r *Resolver) referrerDir(referrer string) (string, error) {
	switch {
	case referrer == "":
		return r.root, nil
	case strings.HasPrefix(referrer, "file://"):
		u, err := url.Parse(referrer)
		if err != nil {
			return "", err
		}
		return filepath.Dir(filepath.FromSlash(u.Path)), nil
	case filepath.IsAbs(referrer):
		return filepath.Dir(filepath.Clean(referrer)), nil
	default:
		return filepath.Dir(filepath.Join(r.root, filepath.FromSlash(referrer))), nil
	}
}

// rootJoin maps a "/"-prefixed specifier under root. Paths already inside
// root are kept.
func (r *Resolver) rootJoin(specifier string) string {
	p := filepath.Clean(filepath.FromSlash(specifier))
	if within(r.root, p) || within(r.realRoot, p) {
		return p
	}
	return filepath.Join(r.root, p)
}

func within(base, p string) bool {
	if p == base {
		return true
	}
	if !strings.HasSuffix(base, string(filepath.Separator)) {
		base += string(filepath.Separator)
	}
	return strings.HasPrefix(p, base)
}

// relative expresses p relative to root, trying the real root when p was
// canonicalized.
func (r *Resolver) relative(p string) string {
	for _, base := range []string{r.root, r.realRoot} {
		if within(base, p) {
			rel, err := filepath.Rel(base, p)
			if err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
