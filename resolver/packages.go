package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/modkit/resolver/internal/pkgjson"
)

// resolveBare walks node_modules directories from dir up to the root. The
// first directory containing the package decides the outcome.
func (r *Resolver) resolveBare(spec, dir string, typ ResolutionType) (string, error) {
	name, subpath := splitPackage(spec)
	if !isPackageName(name) {
		return "", fmt.Errorf("invalid package name %q", name)
	}

	start := dir
	if slices.Contains(r.cfg.Dedupe, name) {
		start = r.root
	}

	for _, nm := range r.nodeModulesDirs(start) {
		pkgDir := filepath.Join(nm, filepath.FromSlash(name))
		if !r.isDir(pkgDir) {
			continue
		}
		r.log.Debug("package", zap.String("name", name), zap.String("dir", pkgDir))

		m, err := r.manifest(pkgDir)
		if err != nil {
			return "", err
		}
		return r.loadPackage(pkgDir, m, subpath, typ)
	}
	return "", &packageNotFound{name: name}
}

// packageNotFound means no node_modules directory holds the package.
type packageNotFound struct {
	name string
}

func (e *packageNotFound) Error() string {
	return "package " + e.name + " not found in any node_modules directory"
}

// nodeModulesDirs lists existing node_modules directories from dir upward,
// stopping at the project root.
func (r *Resolver) nodeModulesDirs(dir string) []string {
	var dirs []string
	for d := dir; ; {
		if filepath.Base(d) != "node_modules" {
			candidate := filepath.Join(d, "node_modules")
			if r.isDir(candidate) {
				dirs = append(dirs, candidate)
			}
		}
		parent := filepath.Dir(d)
		if d == r.root || d == r.realRoot || parent == d {
			break
		}
		d = parent
	}
	return dirs
}

func (r *Resolver) loadPackage(pkgDir string, m *pkgjson.Manifest, subpath string, typ ResolutionType) (string, error) {
	if m != nil && m.HasExports {
		conditions := r.cfg.effectiveConditions(typ)
		if target, ok := pkgjson.ResolveExports(m.Exports, subpath, conditions); ok {
			p := filepath.Join(pkgDir, filepath.FromSlash(target))
			if r.isFile(p) {
				return p, nil
			}
			return "", fmt.Errorf("exports target %s of %s does not exist", target, m.Name)
		}
		if typ == Import {
			return "", fmt.Errorf("exports of %s has no entry for %s under conditions %v", pkgDir, subpath, conditions)
		}
		r.log.Debug("exports unmatched, using CommonJS lookup",
			zap.String("package", pkgDir),
			zap.String("subpath", subpath))
	}

	if subpath == "." {
		if found, ok := r.loadDirectory(pkgDir, typ, m, true); ok {
			return found, nil
		}
		return "", fmt.Errorf("package %s has no entry point", pkgDir)
	}

	target := filepath.Join(pkgDir, filepath.FromSlash(subpath))
	if found, ok := r.loadFile(target, typ); ok {
		return found, nil
	}
	if found, ok := r.loadDirectory(target, typ, nil, false); ok {
		return found, nil
	}
	return "", fmt.Errorf("subpath %s not found in %s", subpath, pkgDir)
}

// packageImport maps a "#name" specifier through the nearest manifest's
// imports field. It returns the target and the manifest directory.
func (r *Resolver) packageImport(spec, dir string, typ ResolutionType) (string, string, error) {
	for d := dir; ; {
		m, err := r.manifest(d)
		if err != nil {
			return "", "", err
		}
		if m != nil {
			if !m.HasImports {
				return "", "", fmt.Errorf("package.json in %s has no imports", d)
			}
			target, ok := pkgjson.ResolveImports(m.Imports, spec, r.cfg.effectiveConditions(typ))
			if !ok {
				return "", "", fmt.Errorf("imports of %s has no entry for %s", d, spec)
			}
			return target, d, nil
		}
		parent := filepath.Dir(d)
		if d == r.root || d == r.realRoot || parent == d {
			break
		}
		d = parent
	}
	return "", "", fmt.Errorf("no package.json encloses %s", dir)
}

// manifest returns the package.json in dir, or nil when there is none.
func (r *Resolver) manifest(dir string) (*pkgjson.Manifest, error) {
	path := filepath.Join(dir, pkgjson.FileName)
	if r.manifests != nil {
		return r.manifests.load(path, r.readManifest)
	}
	return r.readManifest(path)
}

func (r *Resolver) readManifest(path string) (*pkgjson.Manifest, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		if fi, statErr := r.fs.Stat(path); statErr == nil && fi.IsDir() {
			return nil, nil
		}
		return nil, err
	}
	m, err := pkgjson.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
