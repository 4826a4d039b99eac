package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/frederic-klein/pkgquery/internal/aur"
	"github.com/frederic-klein/pkgquery/internal/config"
	"github.com/frederic-klein/pkgquery/internal/db"
	"github.com/frederic-klein/pkgquery/internal/filter"
	"github.com/frederic-klein/pkgquery/internal/pacmanconf"
	"github.com/frederic-klein/pkgquery/internal/query"
	"github.com/frederic-klein/pkgquery/internal/render"
)

var (
	errNoSource  = errors.New("search or information must have database target (-{Q,S,A})")
	errNoTargets = errors.New("no targets specified")
)

type runInput struct {
	settings config.Config
	opts     *options
	sel      *selection
	args     []string
	stdout   io.Writer
	logger   *log.Logger
}

// buildConfig turns the parsed flags into the run configuration and the
// final target list.
func buildConfig(cmd *cobra.Command, in runInput) (config.Config, []string, error) {
	cfg := in.settings
	opts, sel := in.opts, in.sel

	cfg.Op = sel.op
	cfg.Query = sel.query
	cfg.Filter = sel.filter
	cfg.JustOne = opts.justOne
	cfg.Quiet = opts.quiet
	cfg.Numbering = opts.numbering
	cfg.ShowSize = opts.showSize
	cfg.CSep = config.Unescape(opts.csep)
	cfg.AURURL = opts.aurURL
	cfg.Insecure = opts.insecure
	cfg.GetRes = opts.getRes
	cfg.Color = !opts.noColor
	cfg.Escape = opts.escape
	if opts.format != "" {
		cfg.Format = config.Unescape(opts.format)
		cfg.Color = false
	}

	key, err := config.ParseSortKey(opts.sort)
	if err != nil {
		return cfg, nil, err
	}
	cfg.Sort = key

	fs := cmd.Flags()
	cfg.Root = opts.root
	cfg.DBPath = opts.dbPath
	cfg.ConfigFile = opts.configFile
	if fs.Changed("root") {
		if !fs.Changed("config") {
			cfg.ConfigFile = filepath.Join(cfg.Root, "etc", "pacman.conf")
		}
		if !fs.Changed("dbpath") {
			cfg.DBPath = filepath.Join(cfg.Root, "var", "lib", "pacman")
		}
	}

	targets := in.args
	if cfg.JustOne {
		targets = dedupe(targets)
	}

	if len(targets) == 0 {
		switch cfg.Op {
		case config.OpSearch:
			cfg.Op = config.OpListRepoSearch
		case config.OpListGroup:
			cfg.ListGroup = true
		}
	} else if cfg.Op == config.OpNone && len(sel.sources) > 0 && !opts.files {
		cfg.Op = config.OpInfo
	}

	hasLocal := slices.Contains(sel.sources, query.SourceLocal)
	hasAUR := slices.Contains(sel.sources, query.SourceAUR)
	cfg.AURForeign = hasLocal && hasAUR && len(targets) == 0 && cfg.Filter == filter.Foreign
	return cfg, targets, nil
}

func dedupe(targets []string) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func run(cmd *cobra.Command, in runInput) error {
	cfg, targets, err := buildConfig(cmd, in)
	if err != nil {
		return err
	}
	logger := in.logger

	pconf, err := pacmanconf.Load(cfg.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.ConfigFile, err)
	}
	if pconf.RootDir != "" && !cmd.Flags().Changed("root") {
		cfg.Root = pconf.RootDir
	}
	if pconf.DBPath != "" && !cmd.Flags().Changed("dbpath") {
		cfg.DBPath = pconf.DBPath
	}
	cfg.ShowSize = cfg.ShowSize || pconf.ShowSize

	if in.opts.listRepos {
		for _, name := range pconf.RepoNames() {
			fmt.Fprintln(in.stdout, name)
		}
		return nil
	}

	if !in.opts.files {
		if in.sel.needSource && len(in.sel.sources) == 0 {
			return errNoSource
		}
		if in.sel.needTargets && len(targets) == 0 {
			_ = cmd.Usage()
			return errNoTargets
		}
	}

	if cfg.Color {
		f, ok := in.stdout.(*os.File)
		cfg.Color = ok && isatty.IsTerminal(f.Fd())
	}

	repos := make([]db.Repo, 0, len(pconf.Repos))
	for _, r := range pconf.Repos {
		repos = append(repos, db.Repo{Name: r.Name, Servers: r.Servers})
	}
	handle, err := db.Open(db.Options{Root: cfg.Root, DBPath: cfg.DBPath, Repos: repos}, logger)
	if err != nil {
		return err
	}

	var res io.Writer
	if cfg.GetRes {
		res = resultFile()
	}

	env := render.Env{Handle: handle, CSep: cfg.CSep, AURURL: cfg.AURURL}
	printer := render.NewPrinter(cfg, env, in.stdout, res, render.TerminalWidth(os.Stdout))
	client := aur.NewClient(cfg.AURURL, cfg.Insecure, logger)
	engine := query.NewEngine(cfg, handle, client, printer, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stop := teardownOnSignal(cancel, engine)
	defer stop()

	var n int
	if in.opts.files {
		n = engine.Files(targets)
	} else {
		n = engine.Run(ctx, in.sel.sources, targets)
	}
	engine.Flush()
	if err := engine.Close(); err != nil {
		return err
	}

	logger.Debug("done", "matches", n)
	if n == 0 {
		return errNoMatch
	}
	return nil
}

// resultFile returns file descriptor 3 when the caller opened it.
func resultFile() io.Writer {
	f := os.NewFile(3, "results")
	if f == nil {
		return nil
	}
	if _, err := f.Stat(); err != nil {
		return nil
	}
	return f
}

// teardownOnSignal releases the engine and exits when SIGINT or SIGTERM
// arrives. The returned function stops watching.
func teardownOnSignal(cancel context.CancelFunc, engine *query.Engine) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			cancel()
			_ = engine.Close()
			code := 1
			if s, ok := sig.(syscall.Signal); ok {
				code = 128 + int(s)
			}
			os.Exit(code)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
