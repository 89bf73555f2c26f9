package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/handle"
	"github.com/wippyai/modkit/runtime"
	"github.com/wippyai/modkit/transpiler"
)

// sourceExts are the extensions watch and the initial build pick up.
var sourceExts = map[string]bool{
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
}

// skippedDirs are never walked or watched.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

func newWatchCmd(a *app) *cobra.Command {
	var f transpileFlags
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Transpile sources below dir and again whenever they change",
		Long: `Transpile every source file below dir (default: the project root) into
--out-dir, then watch the tree and re-transpile files as they change.

Changes are collected for --debounce before a rebuild. Package manifests are
cached between rebuilds and dropped whenever anything changes.`,
		Example: `  modkit watch src --out-dir dist --resolve-imports`,
		Args:    cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, _ []string) {
			a.bindFlags(cmd, "out-dir", "jobs", "debounce")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := a.v.GetString("out-dir")
			if outDir == "" {
				return errors.InvalidInput(errors.PhaseConfig, "--out-dir is required")
			}
			dir := a.root
			if len(args) == 1 {
				dir = args[0]
				if !filepath.IsAbs(dir) {
					dir = filepath.Join(a.root, dir)
				}
			}

			rt, err := a.runtime(runtime.WithManifestCache())
			if err != nil {
				return err
			}
			defer rt.Close()

			h, _, err := rt.NewTranspiler(a.transpilerConfig(cmd, f))
			if err != nil {
				return err
			}

			w, err := newWatcher(a, rt, h, dir, outDir)
			if err != nil {
				return err
			}
			w.out = cmd.ErrOrStderr()

			files, err := w.sources()
			if err != nil {
				return err
			}
			w.build(cmd.Context(), files)
			return w.run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("out-dir", "", "output directory")
	flags.Int("jobs", 4, "files transpiled concurrently")
	flags.Duration("debounce", 200*time.Millisecond, "quiet period before a rebuild")
	flags.BoolVar(&f.resolveImports, "resolve-imports", false, "rewrite import specifiers to resolved root-relative paths")
	flags.StringVar(&f.sourceMap, "source-map", "", `source map mode: "inline" or empty`)
	flags.StringToStringVar(&f.replace, "replace", nil, "replace identifier or member path KEY with raw text VALUE")
	addOutputFlags(cmd, &f)
	return cmd
}

// watcher rebuilds the sources below dir into outDir.
type watcher struct {
	a        *app
	rt       *runtime.Runtime
	tr       *transpiler.Transpiler
	out      io.Writer
	h        handle.Handle
	dir      string
	outDir   string
	debounce time.Duration
	jobs     int
}

func newWatcher(a *app, rt *runtime.Runtime, h handle.Handle, dir, outDir string) (*watcher, error) {
	tr, err := handle.Lookup[*transpiler.Transpiler](rt.Registry(), h, handle.KindTranspiler)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(a.root, outDir)
	}
	return &watcher{
		a:        a,
		rt:       rt,
		tr:       tr,
		out:      a.stderr,
		h:        h,
		dir:      filepath.Clean(dir),
		outDir:   filepath.Clean(outDir),
		debounce: a.v.GetDuration("debounce"),
		jobs:     a.v.GetInt("jobs"),
	}, nil
}

// skipDir reports whether the directory at path is left out of walks and
// watches.
func (w *watcher) skipDir(path string) bool {
	return skippedDirs[filepath.Base(path)] || path == w.outDir
}

func isSource(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return false
	}
	return sourceExts[strings.ToLower(filepath.Ext(path))]
}

// sources lists the source files below dir in lexical order.
func (w *watcher) sources() ([]string, error) {
	var files []string
	err := afero.Walk(w.a.fs, w.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != w.dir && w.skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if isSource(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindIO, err, w.dir)
	}
	return files, nil
}

// build drops cached manifests, then transpiles files and removes the
// outputs of files that no longer exist.
func (w *watcher) build(ctx context.Context, files []string) {
	if r := w.tr.Resolver(); r != nil {
		r.Invalidate()
	}

	var present []string
	for _, file := range files {
		if ok, _ := afero.Exists(w.a.fs, file); ok {
			present = append(present, file)
			continue
		}
		dest := outputPath(w.a.root, w.outDir, file)
		if err := w.a.fs.Remove(dest); err == nil {
			fmt.Fprintln(w.out, warnStyle.Render("-")+" "+w.rel(dest))
		}
	}

	results := transpileAll(ctx, w.rt, w.h, present, w.jobs)
	for i := range results {
		if results[i].err != nil {
			continue
		}
		dest, err := w.a.writeOutput(w.outDir, &results[i])
		if err != nil {
			results[i].err = err
			continue
		}
		results[i].dest = dest
	}
	report(w.out, w.a.root, results)
}

func (w *watcher) rel(path string) string {
	if rel, err := filepath.Rel(w.a.root, path); err == nil {
		return rel
	}
	return path
}

// run watches dir until ctx is done and rebuilds changed sources once
// events go quiet for the debounce period.
func (w *watcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindIO, err, "create watcher")
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.dir); err != nil {
		return err
	}
	fmt.Fprintln(w.out, helpStyle.Render("watching "+w.rel(w.dir)+" (ctrl+c to stop)"))

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		wg      sync.WaitGroup
		running sync.Mutex
	)
	fire := func() {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		running.Lock()
		defer running.Unlock()

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if len(changed) > 0 {
			w.build(ctx, changed)
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if !w.skipDir(evt.Name) {
						if err := w.addTree(fsw, evt.Name); err != nil {
							w.a.log.Warn("watch new directory", zap.String("dir", evt.Name), zap.Error(err))
						}
					}
					continue
				}
			}
			if !isSource(evt.Name) || w.inOutDir(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil || !timer.Stop() {
				wg.Add(1)
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.a.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *watcher) inOutDir(path string) bool {
	return path == w.outDir || strings.HasPrefix(path, w.outDir+string(filepath.Separator))
}

// addTree registers dir and every directory below it that is not skipped.
func (w *watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.a.log.Debug("skip unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.skipDir(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindIO, err, dir)
	}
	return nil
}
