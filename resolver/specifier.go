package resolver

import (
	"strings"
)

// nodeBuiltins lists the top-level Node.js core modules.
var nodeBuiltins = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// builtinName returns the "node:" form of a core module specifier, including
// subpaths such as "fs/promises".
func builtinName(specifier string) (string, bool) {
	if rest, ok := strings.CutPrefix(specifier, "node:"); ok {
		return specifier, rest != ""
	}
	base, _, _ := strings.Cut(specifier, "/")
	if nodeBuiltins[base] {
		return "node:" + specifier, true
	}
	return "", false
}

func isRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func isAbsolute(specifier string) bool {
	return strings.HasPrefix(specifier, "/")
}

// splitPackage splits a bare specifier into its package name and an exports
// subpath ("." or "./rest"). Scoped names keep two segments.
func splitPackage(specifier string) (name, subpath string) {
	parts := strings.SplitN(specifier, "/", 3)
	n := 1
	if strings.HasPrefix(specifier, "@") && len(parts) > 1 {
		n = 2
	}
	name = strings.Join(parts[:min(n, len(parts))], "/")
	rest := strings.TrimPrefix(specifier[len(name):], "/")
	if rest == "" {
		return name, "."
	}
	return name, "./" + rest
}

func isPackageName(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasPrefix(s, "/") || strings.ContainsAny(s, " \\") {
		return false
	}
	name, subpath := splitPackage(s)
	if subpath != "." {
		return false
	}
	if strings.HasPrefix(name, "@") {
		scope, pkg, ok := strings.Cut(name, "/")
		return ok && len(scope) > 1 && pkg != ""
	}
	return true
}

// matchesEntry reports whether specifier equals entry or continues it with "/".
func matchesEntry(specifier, entry string) bool {
	return specifier == entry ||
		(len(specifier) > len(entry) && strings.HasPrefix(specifier, entry) && specifier[len(entry)] == '/')
}
