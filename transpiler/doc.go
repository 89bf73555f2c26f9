// Package transpiler turns TypeScript and TSX into JavaScript by erasing
// type syntax, without type checking. Modern syntax is not downleveled.
//
// Erasure is mostly strip-only: type annotations, interfaces, type aliases,
// generics, `as` and `satisfies` casts, non-null assertions, `declare`
// forms and type-only imports are removed in place. Removed ranges keep
// their newlines, so line numbers match the source.
//
// A few constructs are lowered in place, still on their own lines:
//
//	enum E { A }                          // var E; (function (E) { E[E["A"] = 0] = "A"; })(E || (E = {}));
//	constructor(private x: number) {}     // constructor(x) { this.x = x;}
//	<div id="a">{x}</div>                 // React.createElement("div", { id: "a" }, x)
//
// JSX goes through Config.JSXFactory and Config.JSXFragment, or is kept
// as written with Config.JSX set to JSXPreserve.
//
// The rest fail with an unsupported syntax error:
//
//	namespace N { export const x = 1 }   // namespace with values
//	import fs = require("fs")            // import assignment
//	export = x                           // export assignment
//
// # Import Rewriting
//
// With Config.ResolveImport, every static import, re-export and import("x")
// call with a literal specifier is resolved in Import mode against the file
// being transpiled. Resolved specifiers are replaced by the resolver's
// root-relative path, prefixed with Config.ImportPrefix when one is set. A
// specifier that does not resolve stays as written; the failure is recorded
// on Result.Imports and logged, and transpilation continues.
//
// # Replacement
//
// Config.Replace substitutes raw text for identifier references and dotted
// member chains:
//
//	Replace: map[string]string{
//	    "DEBUG":                "false",
//	    "process.env.NODE_ENV": `"production"`,
//	}
//
// Declarations, property names, string contents and assignment targets are
// never replaced.
//
// # Source Maps
//
// With Config.SourceMap set to SourceMapInline, a version 3 map with the
// source embedded is appended as a base64 data URL comment and also
// returned as Result.Map.
package transpiler
