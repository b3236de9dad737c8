package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"songcatalog/internal/config"
	"songcatalog/internal/pipeline"
	"songcatalog/internal/progress"
	"songcatalog/internal/song"
)

func newIdentifyCmd(a *app) *cobra.Command {
	var ff feedFlags
	cmd := &cobra.Command{
		Use:   "identify [title...]",
		Short: "Parse raw titles into songs and write the songs list",
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := ff.feeds(a.cfg, args)
			if err != nil {
				return err
			}
			deps, err := a.deps()
			if err != nil {
				return err
			}

			songs, err := pipeline.Identify(a.sh.Context(), a.log, feeds, deps.Sink)
			if err != nil {
				return err
			}
			a.log.Info("=== Wrote %d songs to %s ===", len(songs), deps.Dir.SongsPath())
			return nil
		},
	}
	cmd.Flags().AddFlagSet(ff.flagSet())
	return cmd
}

func newLyricsCmd(a *app) *cobra.Command {
	var fromCatalog bool
	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Resolve lyrics for the songs identified by an earlier run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.deps()
			if err != nil {
				return err
			}
			songs, err := deps.StoredSongs(fromCatalog)
			if err != nil {
				return err
			}
			if len(songs) == 0 {
				return fmt.Errorf("no songs to resolve, run identify first")
			}

			hooks, done := a.progressHooks("Lyrics")
			report, err := pipeline.Lyrics(a.sh.Context(), a.log, deps.Dispatcher, deps.Sink, songs, hooks)
			done()
			if err != nil {
				return err
			}
			a.printReport(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromCatalog, "from-catalog", false, "Read songs from the catalog instead of the songs list")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var ff feedFlags
	cmd := &cobra.Command{
		Use:   "run [title...]",
		Short: "Identify songs and resolve their lyrics in one go",
		RunE: func(cmd *cobra.Command, args []string) error {
			feeds, err := ff.feeds(a.cfg, args)
			if err != nil {
				return err
			}
			deps, err := a.deps()
			if err != nil {
				return err
			}

			hooks, done := a.progressHooks("Lyrics")
			report, err := pipeline.Run(a.sh.Context(), deps, feeds, hooks)
			done()
			if err != nil {
				return err
			}
			a.printReport(report)
			return nil
		},
	}
	cmd.Flags().AddFlagSet(ff.flagSet())
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the songs list and the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.deps()
			if err != nil {
				return err
			}

			songs, err := song.ReadCSV(deps.Dir.SongsPath())
			var skipped song.SkippedRows
			if errors.As(err, &skipped) {
				a.log.Warn("Skipped %d invalid rows in the songs list", len(skipped))
				err = nil
			}
			switch {
			case errors.Is(err, fs.ErrNotExist):
				fmt.Printf("Songs list:  none yet (%s)\n", deps.Dir.SongsPath())
			case err != nil:
				return err
			default:
				fmt.Printf("Songs list:  %d songs (%s)\n", len(songs), deps.Dir.SongsPath())
			}

			if deps.Catalog == nil {
				fmt.Println("Catalog:     not configured")
				return nil
			}
			n, err := deps.Catalog.SongCount()
			if err != nil {
				return err
			}
			unmatched, err := deps.Catalog.Unmatched()
			if err != nil {
				return err
			}
			fmt.Printf("Catalog:     %d songs, %d without lyrics (%s)\n", n, len(unmatched), a.cfg.CatalogPath)
			for _, t := range unmatched {
				fmt.Printf("  - %s\n", t)
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <title>",
		Short: "Print the stored lyrics of a song",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.deps()
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")

			if deps.Catalog != nil {
				text, ok, err := deps.Catalog.Lyrics(title)
				if err != nil {
					return err
				}
				if ok {
					fmt.Println(text)
					return nil
				}
			}

			path := deps.Dir.LyricsPath(title)
			if path == "" {
				return fmt.Errorf("no lyrics stored for %q", title)
			}
			data, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				return fmt.Errorf("no lyrics stored for %q", title)
			}
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newInitConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.GetDefaultConfigPath()
			}

			if _, err := os.Stat(path); err == nil {
				fmt.Printf("Config file already exists at: %s\n", path)
				fmt.Println("Delete it first if you want to recreate it.")
				return nil
			}

			if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}

			fmt.Printf("Created default config file at: %s\n", path)
			fmt.Println("\nYou can now edit this file to customize your settings.")
			fmt.Println("Available options:")
			fmt.Printf("  parallel_jobs: %d-%d (songs resolved at once)\n", config.MinParallelJobs, config.MaxParallelJobs)
			fmt.Println("  lyric_sources: lrclib, azlyrics (tried in order)")
			fmt.Println("  similarity_threshold: 0.0-1.0 exclusive (title match strictness)")
			fmt.Println("  cache_stale_after: duration such as 72h")
			fmt.Println("  catalog_path: SQLite catalog, optional")
			fmt.Println("  youtube_playlists, charts, tags_dirs, title_files: title feeds")
			return nil
		},
	}
}

// progressHooks shows a progress bar unless verbose logging owns the terminal.
// The returned func finishes the bar.
func (a *app) progressHooks(label string) (pipeline.Hooks, func()) {
	var bar *progress.Bar
	hooks := pipeline.Hooks{
		OnStart: func(total int) {
			if !a.cfg.Verbose && total > 0 {
				bar = progress.New(label, total)
				a.log.SetProgressBar(true)
			}
		},
		OnProgress: func() {
			if bar != nil {
				bar.Increment()
			}
		},
	}
	return hooks, func() {
		if bar != nil {
			bar.Finish()
			a.log.SetProgressBar(false)
		}
	}
}

func (a *app) printReport(r pipeline.Report) {
	color.Green("Matched %d songs", r.Matched)
	if r.WriteFailures > 0 {
		color.Yellow("%d lyric files could not be written, see the log", r.WriteFailures)
	}
	if r.HasErrors() {
		color.Yellow("%d songs without lyrics, see %s", r.Unmatched, r.ErrorsAt)
	}
}
