package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/frederic-klein/pkgquery/internal/config"
)

var version = "dev"

// errNoMatch makes the command exit with status 1 without a message.
var errNoMatch = errors.New("no match")

// options holds the plain flags. The order-sensitive ones live in selection.
type options struct {
	justOne    bool
	format     string
	escape     bool
	quiet      bool
	noColor    bool
	numbering  bool
	showSize   bool
	csep       string
	sort       string
	aurURL     string
	insecure   bool
	root       string
	dbPath     string
	configFile string
	listRepos  bool
	files      bool
	getRes     bool
	debug      bool
}

func main() {
	settings, err := config.LoadSettings(config.Default(), config.SettingsPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, "pkgquery:", err)
		os.Exit(1)
	}

	os.Exit(execute(newRootCmd(settings, os.Stdout, os.Stderr), os.Stderr))
}

// execute runs the command and maps the result to an exit status.
func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNoMatch):
		return 1
	default:
		fmt.Fprintln(stderr, "pkgquery:", err)
		return 1
	}
}

func newRootCmd(settings config.Config, stdout, stderr io.Writer) *cobra.Command {
	sel := &selection{}
	opts := &options{
		csep:       settings.CSep,
		aurURL:     settings.AURURL,
		insecure:   settings.Insecure,
		showSize:   settings.ShowSize,
		noColor:    !settings.Color,
		sort:       string(rune(settings.Sort)),
		root:       settings.Root,
		dbPath:     settings.DBPath,
		configFile: settings.ConfigFile,
	}
	if settings.Sort == config.SortNone {
		opts.sort = ""
	}

	rootCmd := &cobra.Command{
		Use:           "pkgquery [options] [targets...]",
		Short:         "Query the pacman databases and the AUR",
		Long:          "pkgquery looks packages up in the local database, the sync databases and the AUR, filters them and prints them as a colored listing or through a format string.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewWithOptions(stderr, log.Options{Prefix: "pkgquery", Level: log.WarnLevel})
			if opts.debug {
				logger.SetLevel(log.DebugLevel)
			}
			return run(cmd, runInput{
				settings: settings,
				opts:     opts,
				sel:      sel,
				args:     args,
				stdout:   stdout,
				logger:   logger,
			})
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	fs := rootCmd.Flags()
	fs.SortFlags = false
	registerSelection(fs, sel)
	fs.BoolVarP(&opts.justOne, "just-one", "1", false, "show at most one result per target")
	fs.StringVarP(&opts.format, "format", "f", "", "output format (%n name, %v version, %r repo, ...)")
	fs.BoolVarP(&opts.escape, "escape", "x", false, "escape \" in format output")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "print nothing, only set the exit status")
	fs.BoolVarP(&opts.files, "file", "p", false, "targets are package files")
	fs.BoolVarP(&opts.listRepos, "list-repo", "L", false, "list configured repositories")
	fs.StringVarP(&opts.root, "root", "r", opts.root, "installation root")
	fs.StringVarP(&opts.dbPath, "dbpath", "b", opts.dbPath, "database directory")
	fs.StringVarP(&opts.configFile, "config", "c", opts.configFile, "pacman configuration file")
	fs.StringVar(&opts.csep, "csep", opts.csep, "separator for list fields")
	fs.StringVar(&opts.sort, "sort", opts.sort, "sort results by n (name), w (votes), 1 (install date) or 2 (size)")
	fs.BoolVar(&opts.noColor, "nocolor", opts.noColor, "disable colors")
	fs.BoolVar(&opts.numbering, "number", false, "number the results")
	fs.BoolVar(&opts.getRes, "get-res", false, "write repo/name of each result to file descriptor 3")
	fs.BoolVar(&opts.showSize, "show-size", opts.showSize, "show package sizes")
	fs.StringVar(&opts.aurURL, "aur-url", opts.aurURL, "AUR base URL")
	fs.BoolVar(&opts.insecure, "insecure", opts.insecure, "do not verify the AUR TLS certificate")
	fs.BoolVar(&opts.debug, "debug", false, "log debug information")

	return rootCmd
}
