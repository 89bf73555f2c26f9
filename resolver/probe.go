package resolver

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/modkit/resolver/internal/pkgjson"
)

var (
	requireExtensions = []string{".js", ".json", ".node", ".cjs", ".ts", ".tsx", ".jsx"}
	importExtensions  = []string{".ts", ".tsx", ".js", ".mjs", ".jsx", ".json", ".cjs", ".css", ".scss"}
)

// Extensions returns the probe order appended to extensionless paths.
func Extensions(typ ResolutionType) []string {
	if typ == Import {
		return importExtensions
	}
	return requireExtensions
}

func (r *Resolver) isFile(p string) bool {
	fi, err := r.fs.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

func (r *Resolver) isDir(p string) bool {
	fi, err := r.fs.Stat(p)
	return err == nil && fi.IsDir()
}

// resolvePath probes p as a file, then as a directory.
func (r *Resolver) resolvePath(p string, typ ResolutionType) (string, error) {
	if found, ok := r.loadFile(p, typ); ok {
		return found, nil
	}
	if found, ok := r.loadDirectory(p, typ, nil, false); ok {
		return found, nil
	}
	return "", fmt.Errorf("no file or directory matches %s", p)
}

// loadFile tries p exactly, then p with each extension appended.
func (r *Resolver) loadFile(p string, typ ResolutionType) (string, bool) {
	if r.isFile(p) {
		return p, true
	}
	for _, ext := range Extensions(typ) {
		candidate := p + ext
		if r.isFile(candidate) {
			r.log.Debug("probe hit", zap.String("path", candidate))
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) loadIndex(dir string, typ ResolutionType) (string, bool) {
	if !r.isDir(dir) {
		return "", false
	}
	return r.loadFile(filepath.Join(dir, "index"), typ)
}

// loadDirectory resolves a directory through its manifest entry fields, then
// its index file. A nil manifest is read from dir. Packages also consult the
// "module" field.
func (r *Resolver) loadDirectory(dir string, typ ResolutionType, m *pkgjson.Manifest, pkg bool) (string, bool) {
	if !r.isDir(dir) {
		return "", false
	}
	if m == nil {
		m, _ = r.manifest(dir)
	}
	if m != nil {
		fields := []string{m.Main}
		if pkg {
			fields = append(fields, m.Module)
		}
		for _, f := range fields {
			if f == "" {
				continue
			}
			entry := filepath.Join(dir, filepath.FromSlash(f))
			if found, ok := r.loadFile(entry, typ); ok {
				return found, true
			}
			if found, ok := r.loadIndex(entry, typ); ok {
				return found, true
			}
		}
	}
	return r.loadIndex(dir, typ)
}
