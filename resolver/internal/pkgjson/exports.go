package pkgjson

import (
	"strings"
)

type status uint8

const (
	unmatched status = iota
	matched
	excluded // explicit null target
)

// ResolveExports maps a package subpath ("." or "./x") through an exports
// value. Conditions are tried in the given order. The returned target is
// relative to the package directory and always starts with "./".
func ResolveExports(exports any, subpath string, conditions []string) (string, bool) {
	m := normalizeExports(exports)
	if m == nil {
		return "", false
	}
	target, st := matchKey(m, subpath, conditions, true)
	return target, st == matched
}

// ResolveImports maps a "#name" specifier through an imports value. The
// target is either "./"-relative to the manifest directory or a bare
// package specifier.
func ResolveImports(imports any, name string, conditions []string) (string, bool) {
	m, ok := imports.(map[string]any)
	if !ok || !strings.HasPrefix(name, "#") || name == "#" || strings.HasPrefix(name, "#/") {
		return "", false
	}
	target, st := matchKey(m, name, conditions, false)
	return target, st == matched
}

// normalizeExports expands the sugar forms into a subpath map.
func normalizeExports(exports any) map[string]any {
	switch v := exports.(type) {
	case string, []any:
		return map[string]any{".": v}
	case map[string]any:
		if isConditionMap(v) {
			return map[string]any{".": v}
		}
		return v
	}
	return nil
}

// isConditionMap reports whether no key is a subpath. Mixed maps are
// treated as subpath maps, so their condition keys never match.
func isConditionMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if strings.HasPrefix(k, ".") {
			return false
		}
	}
	return true
}

func matchKey(m map[string]any, key string, conditions []string, exports bool) (string, status) {
	if t, ok := m[key]; ok && !strings.Contains(key, "*") {
		return resolveTarget(t, "", false, conditions, exports)
	}

	bestKey, bestMatch := "", ""
	for k := range m {
		star := strings.IndexByte(k, '*')
		if star < 0 || strings.LastIndexByte(k, '*') != star {
			continue
		}
		prefix, suffix := k[:star], k[star+1:]
		if len(key) < len(k) || !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
			continue
		}
		if bestKey == "" || patternKeyLess(bestKey, k) {
			bestKey = k
			bestMatch = key[len(prefix) : len(key)-len(suffix)]
		}
	}
	if bestKey == "" {
		return "", unmatched
	}
	return resolveTarget(m[bestKey], bestMatch, true, conditions, exports)
}

// patternKeyLess orders pattern keys: a longer prefix before the "*" wins,
// then the longer key.
func patternKeyLess(a, b string) bool {
	pa, pb := strings.IndexByte(a, '*'), strings.IndexByte(b, '*')
	if pa != pb {
		return pb > pa
	}
	if len(a) != len(b) {
		return len(b) > len(a)
	}
	return b < a
}

func resolveTarget(target any, match string, pattern bool, conditions []string, exports bool) (string, status) {
	switch t := target.(type) {
	case nil:
		return "", excluded

	case string:
		if !validTarget(t, exports) {
			return "", unmatched
		}
		if pattern {
			if strings.Contains(match, "/../") || strings.HasPrefix(match, "../") || strings.HasSuffix(match, "/..") || match == ".." {
				return "", unmatched
			}
			t = strings.ReplaceAll(t, "*", match)
		}
		return t, matched

	case []any:
		for _, alt := range t {
			if r, st := resolveTarget(alt, match, pattern, conditions, exports); st == matched {
				return r, matched
			}
		}
		return "", unmatched

	case map[string]any:
		for _, cond := range conditions {
			v, ok := t[cond]
			if !ok {
				continue
			}
			r, st := resolveTarget(v, match, pattern, conditions, exports)
			if st != unmatched {
				return r, st
			}
		}
		return "", unmatched
	}
	return "", unmatched
}

func validTarget(t string, exports bool) bool {
	if !strings.HasPrefix(t, "./") {
		// imports may map to another package
		return !exports && t != "" && !strings.HasPrefix(t, "/") && !strings.HasPrefix(t, "../")
	}
	for _, seg := range strings.Split(t[2:], "/") {
		if seg == ".." || seg == "node_modules" {
			return false
		}
	}
	return true
}
