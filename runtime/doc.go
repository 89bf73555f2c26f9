// Package runtime is the execution context that owns resolver, transpiler
// and loader instances and hands out handles for them.
//
// # Quick Start
//
//	rt, err := runtime.New("/path/to/project")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	// Resolve
//	rh, root, err := rt.NewResolver(resolver.Config{
//	    Alias: map[string]string{"~": "./app"},
//	})
//	path, err := rt.Resolve(rh, "~/root.tsx", root+"/entry.tsx", resolver.Import)
//	fmt.Println(path) // "app/root.tsx"
//
//	// Transpile
//	th, _, err := rt.NewTranspiler(transpiler.Config{ResolveImport: true})
//	out, err := rt.TranspileSync(th, "const x: string = 'a';", "")
//	fmt.Println(out.Code) // "const x = 'a';"
//
// # Handles
//
// Handles are generational: releasing one invalidates it for good, even
// after its registry slot is reused. Every call taking a handle fails with
// an invalid handle error for released, unknown or wrong-kind handles.
//
// # Async Transpilation
//
// TranspileFileAsync returns a channel that receives one AsyncResult.
// Concurrent calls complete in any order. There is no cancellation of
// in-flight work beyond the context passed to the parser; Close waits for
// all pending calls before releasing handles.
//
// # Loaders
//
// NewLoader wraps a resolver or transpiler handle in a require capability
// with its own module cache. The cache entry is inserted before the module
// is read, so a cyclic require observes the partially loaded module.
//
//	lh, err := rt.NewLoader(th, nil)
//	mod, err := rt.Require(ctx, lh, "./util", root+"/main.ts")
package runtime
