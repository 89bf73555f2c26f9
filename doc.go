// Package modkit resolves JavaScript module specifiers and transpiles
// TypeScript to JavaScript for a project rooted at a single directory.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	modkit/
//	├── resolver/        Node-style specifier resolution (aliases, exports, imports)
//	├── transpiler/      Type stripping, import rewriting, replacement, source maps
//	├── handle/          Generational handle registry for resolver and transpiler instances
//	├── runtime/         Execution context: instances by handle, async transpile, module loader
//	├── errors/          Structured error types for debugging
//	└── cmd/modkit/      Command-line front end
//
// # Quick Start
//
// Resolve a specifier:
//
//	r, err := resolver.New("/app", resolver.Config{
//	    Alias:    map[string]string{"@": "./src"},
//	    External: []string{"react"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := r.Resolve("@/util", "/app/src/main.ts", resolver.Import)
//	fmt.Println(res.Path) // "src/util.ts"
//
// Transpile a file, rewriting its imports:
//
//	tr, err := transpiler.New("/app", transpiler.Config{
//	    ResolveImport: true,
//	    Resolver:      &resolver.Config{},
//	    SourceMap:     transpiler.SourceMapInline,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := tr.TranspileFile(ctx, "src/main.ts")
//	fmt.Println(out.Code)
//
// # Handles
//
// A runtime.Runtime hands out opaque handles for resolvers and transpilers
// and looks them up on every call. Released handles are never reused for a
// different instance: the slot comes back with a new generation.
//
//	rt, err := runtime.New("/app", runtime.WithDefaultResolver(cfg))
//	defer rt.Close()
//
//	h, root, err := rt.NewTranspiler(transpiler.Config{ResolveImport: true})
//	res := <-rt.TranspileFileAsync(ctx, h, "src/main.ts")
//
// # Thread Safety
//
// Resolver, Transpiler, Registry and Runtime are safe for concurrent use.
// Transpiled output does not depend on which goroutine produced it.
package modkit
