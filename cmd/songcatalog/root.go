package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"songcatalog/internal/config"
	"songcatalog/internal/feed"
	"songcatalog/internal/logger"
	"songcatalog/internal/pipeline"
	"songcatalog/internal/shutdown"
	"songcatalog/pkg/utils"
)

// app is the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	output     string
	parallel   int

	cfg config.Config
	log *logger.Logger
	sh  *shutdown.Handler
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "songcatalog",
		Short:         "Identify songs from raw titles and match them with their lyrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init-config" {
				return nil
			}
			return a.setup(cmd.Flags())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file path")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	flags.StringVarP(&a.output, "output", "o", "", "Output directory")
	flags.IntVarP(&a.parallel, "parallel", "p", 0, fmt.Sprintf("Songs resolved in parallel (%d-%d)", config.MinParallelJobs, config.MaxParallelJobs))

	cmd.AddCommand(
		newIdentifyCmd(a),
		newLyricsCmd(a),
		newRunCmd(a),
		newStatusCmd(a),
		newShowCmd(a),
		newInitConfigCmd(a),
	)
	return cmd
}

// setup loads the configuration, applies flags and starts logging.
// Priority: CLI flags > environment > config file > defaults
func (a *app) setup(flags *pflag.FlagSet) error {
	cfg, err := config.LoadConfigFile(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if flags.Changed("output") {
		cfg.OutputDir = config.ExpandHome(a.output)
	}
	if flags.Changed("parallel") {
		cfg.ParallelJobs = a.parallel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	a.cfg = cfg

	a.log = logger.New(cfg.Verbose)
	if !cfg.Verbose {
		a.startFileLog()
	}
	path := a.configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		a.log.Debug("Loaded configuration from: %s", path)
	}

	a.sh = shutdown.New()
	a.sh.Listen(func(sig os.Signal) {
		a.log.Warn("Received %s, stopping...", sig)
	})
	return nil
}

func (a *app) startFileLog() {
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		return
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("songcatalog_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	if err := a.log.SetFileLog(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		return
	}
	a.log.Debug("Logging to file: %s", logFile)
}

// close runs the registered cleanups and closes the log.
func (a *app) close() {
	if a.sh != nil {
		if err := a.sh.Shutdown(); err != nil {
			a.log.Warn("Error during cleanup: %v", err)
		}
	}
	if a.log != nil {
		a.log.Close()
	}
}

// deps wires the pipeline and closes it on shutdown.
func (a *app) deps() (*pipeline.Deps, error) {
	deps, err := pipeline.Setup(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	a.sh.AddCleanup(deps.Close)
	return deps, nil
}

// feedFlags are the title origins a command accepts on top of the config file.
type feedFlags struct {
	files     []string
	playlists []string
	charts    []string
	tagsDirs  []string
}

func (f *feedFlags) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("feeds", pflag.ContinueOnError)
	fs.StringSliceVarP(&f.files, "file", "f", nil, "Text file with one raw title per line")
	fs.StringSliceVar(&f.playlists, "playlist", nil, "YouTube playlist URL")
	fs.StringSliceVar(&f.charts, "chart", nil, "Chart page URL")
	fs.StringSliceVar(&f.tagsDirs, "tags", nil, "Directory of tagged audio files")
	return fs
}

// feeds merges the configured feeds, the flag feeds and the positional titles.
func (f *feedFlags) feeds(cfg config.Config, titles []string) ([]feed.Feed, error) {
	cfg.TitleFiles = append(cfg.TitleFiles, expandAll(f.files)...)
	cfg.YouTubePlaylists = append(cfg.YouTubePlaylists, f.playlists...)
	cfg.Charts = append(cfg.Charts, f.charts...)
	cfg.TagsDirs = append(cfg.TagsDirs, expandAll(f.tagsDirs)...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(cfg.YouTubePlaylists) > 0 {
		if err := utils.CheckYtdlp(); err != nil {
			return nil, fmt.Errorf("dependency check failed: %w", err)
		}
	}

	feeds := pipeline.FeedsFromConfig(cfg)
	if len(titles) > 0 {
		feeds = append(feeds, feed.Static{Label: "args", Texts: titles})
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no titles given: pass them as arguments, with --file/--playlist/--chart/--tags, or in the config file")
	}
	return feeds, nil
}

func expandAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = config.ExpandHome(p)
	}
	return out
}
