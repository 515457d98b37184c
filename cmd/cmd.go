// Package cmd implements the stashtree command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/stashtree/internal/buildinfo"
	"github.com/thiagokokada/stashtree/internal/config"
	"github.com/thiagokokada/stashtree/internal/git"
	gitbackend "github.com/thiagokokada/stashtree/internal/git/backend"
	"github.com/thiagokokada/stashtree/internal/render"
)

func Run() error {
	return run(os.Args[1:])
}

func run(args []string) error {
	root := newRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.Execute()
}

// options holds the persistent flags after merging in the config file.
type options struct {
	configPath   string
	backend      string
	color        string
	theme        string
	syntax       bool
	jobs         int
	contextLines int
	verbose      bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	tree := &treeOptions{}
	root := &cobra.Command{
		Use:   "stashtree [path]",
		Short: "Show git stashes grouped by the branch they were taken from",
		Long: `stashtree lists the stash entries of a git repository as a tree: each stash
sits under the local branch its base commit belongs to, and stashes whose base
is not reachable from any branch are reported as orphans.`,
		Version:       buildinfo.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(stderr, opts.verbose)
			return opts.merge(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, opts, tree, repoArg(args, 0))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/stashtree/config.toml)")
	pf.StringVar(&opts.backend, "backend", string(git.BackendNative), "repository backend: native or gitcli")
	pf.StringVar(&opts.color, "color", string(render.ColorAuto), "colorize output: auto, always or never")
	pf.StringVar(&opts.theme, "theme", render.ThemeAuto.String(), "syntax highlight theme: auto, light or dark")
	pf.BoolVar(&opts.syntax, "syntax", true, "syntax highlight diff content")
	pf.IntVar(&opts.jobs, "jobs", 0, "parallel diff workers (0 = one per CPU)")
	pf.IntVar(&opts.contextLines, "context", gitbackend.DefaultContextLines, "unchanged lines around each hunk (0 selects the default)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	addTreeFlags(root, tree)
	root.AddCommand(
		newTreeCommand(opts),
		newDiffCommand(opts),
		newListCommand(opts),
		newVersionCommand(),
	)
	return root
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// merge fills every flag the user did not set from the config file.
func (o *options) merge(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if cfg.Path() != "" {
		slog.Debug("config loaded", slog.String("path", cfg.Path()))
	}
	flags := cmd.Flags()
	if !flags.Changed("backend") {
		o.backend = cfg.Backend
	}
	if !flags.Changed("color") {
		o.color = cfg.Color
	}
	if !flags.Changed("theme") {
		o.theme = cfg.Theme
	}
	if !flags.Changed("syntax") {
		o.syntax = cfg.Syntax
	}
	if !flags.Changed("jobs") {
		o.jobs = cfg.Jobs
	}
	if !flags.Changed("context") {
		o.contextLines = cfg.ContextLines
	}
	if o.jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
	}
	if o.contextLines < 0 {
		return fmt.Errorf("--context must not be negative")
	}
	return nil
}

func (o *options) openService(repoPath string) (*git.Service, error) {
	kind, err := git.ParseBackendKind(o.backend)
	if err != nil {
		return nil, err
	}
	return git.Open(repoPath, kind, gitbackend.Options{ContextLines: o.contextLines})
}

func (o *options) printer(w io.Writer) (*render.Printer, error) {
	mode, err := render.ParseColorMode(o.color)
	if err != nil {
		return nil, err
	}
	theme, err := render.ParseTheme(o.theme)
	if err != nil {
		return nil, err
	}
	return render.NewPrinter(w, render.Options{Color: mode, Theme: theme, Syntax: o.syntax}), nil
}

func repoArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "."
}
