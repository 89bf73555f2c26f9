package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/handle"
	"github.com/wippyai/modkit/runtime"
	"github.com/wippyai/modkit/transpiler"
)

type transpileFlags struct {
	replace        map[string]string
	sourceMap      string
	importPrefix   string
	jsx            string
	jsxFactory     string
	resolveImports bool
	strict         bool
}

// fileResult is the outcome of one file of a batch. Exactly one of output
// and err is set.
type fileResult struct {
	output *runtime.Output
	err    error
	file   string
	dest   string
}

func newTranspileCmd(a *app) *cobra.Command {
	var f transpileFlags
	cmd := &cobra.Command{
		Use:   "transpile <file>...",
		Short: "Strip TypeScript and rewrite imports",
		Long: `Transpile TypeScript and TSX files to JavaScript.

A single file without --out-dir is written to stdout. Otherwise each file is
written below --out-dir at its root-relative path with a .js extension.
Imports that fail to resolve are left as written and reported; --strict
turns them into an error.`,
		Example: `  modkit transpile src/main.ts
  modkit transpile src/*.ts --out-dir dist --resolve-imports --source-map inline
  modkit transpile app.ts --replace DEBUG=false --replace process.env.NODE_ENV='"production"'`,
		Args: cobra.MinimumNArgs(1),
		PreRun: func(cmd *cobra.Command, _ []string) {
			a.bindFlags(cmd, "out-dir", "jobs")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.transpilerConfig(cmd, f)
			outDir := a.v.GetString("out-dir")
			if outDir == "" && len(args) > 1 {
				return errors.InvalidInput(errors.PhaseConfig, "--out-dir is required for more than one file")
			}

			rt, err := a.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			h, _, err := rt.NewTranspiler(cfg)
			if err != nil {
				return err
			}

			results := transpileAll(cmd.Context(), rt, h, args, a.v.GetInt("jobs"))
			for _, r := range results {
				if r.err != nil {
					return r.err
				}
			}

			if outDir == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), results[0].output.Code)
				if err != nil {
					return err
				}
			} else {
				for i := range results {
					dest, err := a.writeOutput(outDir, &results[i])
					if err != nil {
						return err
					}
					results[i].dest = dest
				}
			}

			report(cmd.ErrOrStderr(), a.root, results)

			if f.strict {
				if missing := unresolved(results); len(missing) > 0 {
					return errors.NewUnresolvedImportsError(missing)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("out-dir", "", "output directory")
	flags.Int("jobs", 4, "files transpiled concurrently")
	flags.BoolVar(&f.resolveImports, "resolve-imports", false, "rewrite import specifiers to resolved root-relative paths")
	flags.StringVar(&f.sourceMap, "source-map", "", `source map mode: "inline" or empty`)
	flags.StringToStringVar(&f.replace, "replace", nil, "replace identifier or member path KEY with raw text VALUE")
	addOutputFlags(cmd, &f)
	flags.BoolVar(&f.strict, "strict", false, "fail when an import cannot be resolved")
	return cmd
}

// addOutputFlags registers the flags that shape emitted code.
func addOutputFlags(cmd *cobra.Command, f *transpileFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.importPrefix, "import-prefix", "", `prefix for rewritten import paths, e.g. "/"`)
	flags.StringVar(&f.jsx, "jsx", "", `JSX mode: "react" or "preserve"`)
	flags.StringVar(&f.jsxFactory, "jsx-factory", "", "JSX element factory (default React.createElement)")
}

// transpilerConfig overlays changed flags on the project file's transpiler
// settings.
func (a *app) transpilerConfig(cmd *cobra.Command, f transpileFlags) transpiler.Config {
	cfg := a.cfg.Transpiler
	flags := cmd.Flags()
	if flags.Changed("resolve-imports") {
		cfg.ResolveImport = f.resolveImports
	}
	if flags.Changed("source-map") {
		cfg.SourceMap = f.sourceMap
	}
	if flags.Changed("import-prefix") {
		cfg.ImportPrefix = f.importPrefix
	}
	if flags.Changed("jsx") {
		cfg.JSX = f.jsx
	}
	if flags.Changed("jsx-factory") {
		cfg.JSXFactory = f.jsxFactory
	}
	if len(f.replace) > 0 {
		merged := make(map[string]string, len(cfg.Replace)+len(f.replace))
		for k, v := range cfg.Replace {
			merged[k] = v
		}
		for k, v := range f.replace {
			merged[k] = v
		}
		cfg.Replace = merged
	}
	return cfg
}

// transpileAll runs the files through the transpiler behind h with at most
// jobs in flight. Results keep the order of files; a failed file does not
// stop the others.
func transpileAll(ctx context.Context, rt *runtime.Runtime, h handle.Handle, files []string, jobs int) []fileResult {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]fileResult, len(files))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			res := <-rt.TranspileFileAsync(ctx, h, file)
			results[i] = fileResult{file: file, output: res.Output, err: res.Err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// outputPath maps a source file to its place below outDir.
func outputPath(root, outDir, file string) string {
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, file)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(abs)
	}

	ext := filepath.Ext(rel)
	js := ".js"
	switch strings.ToLower(ext) {
	case ".mts", ".mjs":
		js = ".mjs"
	case ".cts", ".cjs":
		js = ".cjs"
	}

	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}
	return filepath.Join(outDir, strings.TrimSuffix(rel, ext)+js)
}

func (a *app) writeOutput(outDir string, r *fileResult) (string, error) {
	dest := outputPath(a.root, outDir, r.file)
	if err := a.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.Wrap(errors.PhaseLoad, errors.KindIO, err, dest)
	}
	if err := afero.WriteFile(a.fs, dest, []byte(r.output.Code), 0o644); err != nil {
		return "", errors.Wrap(errors.PhaseLoad, errors.KindIO, err, dest)
	}
	return dest, nil
}

func unresolved(results []fileResult) []errors.UnresolvedImport {
	var out []errors.UnresolvedImport
	for _, r := range results {
		if r.output == nil {
			continue
		}
		for _, imp := range r.output.Imports {
			if imp.Err == nil {
				continue
			}
			out = append(out, errors.UnresolvedImport{
				Cause:     imp.Err,
				File:      r.file,
				Specifier: imp.Specifier,
				Line:      imp.Line,
				Column:    imp.Column,
			})
		}
	}
	return out
}

func report(w io.Writer, root string, results []fileResult) {
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintln(w, errorStyle.Render("✗")+" "+r.file+": "+r.err.Error())
			continue
		}
		line := okStyle.Render("✓") + " " + r.file
		if r.dest != "" {
			if rel, err := filepath.Rel(root, r.dest); err == nil {
				line += " → " + pathStyle.Render(rel)
			}
		}
		fmt.Fprintln(w, line)

		for _, imp := range r.output.Imports {
			if imp.Err == nil {
				continue
			}
			fmt.Fprintf(w, "  %s %q (%d:%d) left unresolved\n", warnStyle.Render("!"), imp.Specifier, imp.Line, imp.Column)
		}
	}
}
