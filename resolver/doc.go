// Package resolver maps module specifiers to files under a project root.
//
// A Resolver binds a root directory and an immutable Config to the
// resolution algorithm. Results are root-relative, slash-separated paths,
// so a sandboxed loader, a bundler hook and a transform plugin sharing the
// same root and Config agree on every target.
//
// # Resolution Order
//
// For Resolve(specifier, referrer, typ):
//
//  1. External - specifier equal to an External entry, or below it, is
//     returned unchanged without touching the filesystem
//  2. Alias - the longest matching Alias key is substituted once; External
//     is checked again on the result
//  3. Package imports - "#name" goes through the nearest package.json "imports"
//  4. Builtins - "node:x"; a bare core module name only when no
//     node_modules directory holds a package of that name
//  5. Paths - "./", "../" and "/" (root-relative) are probed as a file,
//     the file plus each extension, then a directory (package.json main,
//     then index plus each extension)
//  6. Packages - node_modules directories are walked from the referrer up to
//     the root. Dedupe packages start the walk at the root.
//
// Extension order depends on the ResolutionType:
//
//	Require: .js .json .node .cjs .ts .tsx .jsx
//	Import:  .ts .tsx .js .mjs .jsx .json .cjs .css .scss
//
// # Exports
//
// When a package declares "exports", the subpath is matched by exact key,
// then by the "*" pattern with the longest prefix. Conditions are tried in
// the order Conditions (or "node" when empty), "import" or "require", then
// "default". A null target excludes the subpath.
//
// An unmatched exports map fails Import resolution outright. Require
// resolution falls back to main, module and index.
//
// # Symlinks
//
// Unless PreserveSymlink is set, the resolved path has every symlink segment
// replaced by its target. This needs a filesystem implementing
// afero.Lstater and afero.LinkReader, such as afero.OsFs.
//
// # Caching
//
// Nothing is cached by default. WithManifestCache memoizes package.json
// reads until Invalidate is called.
package resolver
