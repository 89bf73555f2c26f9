package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/modkit/runtime"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	fs     afero.Fs
	v      *viper.Viper
	log    *zap.Logger
	cfg    projectConfig
	root   string
	stdout io.Writer
	stderr io.Writer
}

func newApp(fs afero.Fs) *app {
	v := viper.New()
	v.SetEnvPrefix("MODKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("jobs", 4)
	v.SetDefault("debounce", "200ms")

	return &app{
		fs:     fs,
		v:      v,
		log:    zap.NewNop(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(afero.NewOsFs())
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "modkit",
		Short: "Resolve module specifiers and transpile TypeScript",
		Long: titleStyle.Render("modkit") + ` resolves JavaScript module specifiers the way Node does and
strips TypeScript to JavaScript, rewriting imports to root-relative paths.

Settings come from flags, MODKIT_* environment variables and a project
file (modkit.yaml, modkit.yml, modkit.json or modkit.toml in the root).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.String("root", ".", "project root directory")
	flags.String("config", "", "project config file (default: modkit.{yaml,yml,json,toml} in the root)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	for _, name := range []string{"root", "config", "verbose"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newResolveCmd(a),
		newTranspileCmd(a),
		newWatchCmd(a),
		newExploreCmd(a),
	)
	return root
}

// init resolves the root, builds the logger and loads the project file.
func (a *app) init() error {
	root, err := filepath.Abs(a.v.GetString("root"))
	if err != nil {
		return err
	}
	a.root = root

	log, err := newLogger(a.v.GetBool("verbose"))
	if err != nil {
		return err
	}
	a.log = log

	cfg, path, err := loadProjectConfig(a.fs, root, a.v.GetString("config"))
	if err != nil {
		return err
	}
	if path != "" {
		a.log.Debug("config loaded", zap.String("path", path))
	}
	a.cfg = cfg
	// project file values sit between flags/env and the built-in defaults
	if cfg.Jobs > 0 {
		a.v.SetDefault("jobs", cfg.Jobs)
	}
	if cfg.OutDir != "" {
		a.v.SetDefault("out-dir", cfg.OutDir)
	}
	return nil
}

// bindFlags binds the named flags of cmd to viper keys of the same name.
// Subcommands share keys, so binding happens when the command runs.
func (a *app) bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = a.v.BindPFlag(name, f)
		}
	}
}

// runtime opens an execution context over the project root with the
// project's resolver config as the default.
func (a *app) runtime(opts ...runtime.Option) (*runtime.Runtime, error) {
	base := []runtime.Option{
		runtime.WithFs(a.fs),
		runtime.WithLogger(a.log),
		runtime.WithDefaultResolver(a.cfg.Resolver),
	}
	return runtime.New(a.root, append(base, opts...)...)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
