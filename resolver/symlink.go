package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const maxSymlinks = 255

// evalSymlinks returns p with every symlink segment replaced by its target.
// Filesystems without Lstat and Readlink support return p unchanged.
func (r *Resolver) evalSymlinks(p string) (string, error) {
	lst, ok := r.fs.(afero.Lstater)
	if !ok {
		return p, nil
	}
	lr, ok := r.fs.(afero.LinkReader)
	if !ok {
		return p, nil
	}

	vol := filepath.VolumeName(p)
	sep := string(filepath.Separator)
	resolved := vol + sep
	pending := splitPath(p[len(vol):])
	links := 0

	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]

		switch c {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, c)
		fi, lstatCalled, err := lst.LstatIfPossible(next)
		if err != nil {
			return "", err
		}
		if !lstatCalled || fi.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		links++
		if links > maxSymlinks {
			return "", fmt.Errorf("too many symlinks resolving %s", p)
		}
		target, err := lr.ReadlinkIfPossible(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			tv := filepath.VolumeName(target)
			resolved = tv + sep
			target = target[len(tv):]
		}
		pending = append(splitPath(target), pending...)
	}
	return resolved, nil
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}
