package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/media-fetcher"
	"github.com/alanbriolat/media-fetcher/async"
	"github.com/alanbriolat/media-fetcher/history"
	"github.com/alanbriolat/media-fetcher/internal/boltdb"
	_ "github.com/alanbriolat/media-fetcher/providers"
	"github.com/alanbriolat/media-fetcher/util"
)

var ErrMissingTools = errors.New("required tools not found")

const DefaultConfigPath = "media-fetcher.json"

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = media_fetcher.WithLogger(ctx, logger)

	shared := &env{ctx: ctx}
	app := &cli.App{
		Name:  "media-fetcher",
		Usage: "download video and music with yt-dlp and spotdl",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: DefaultConfigPath,
				Usage: "load settings from `FILE` (JSON or YAML)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log debug messages, including every download state change",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				config.Level.SetLevel(zap.DebugLevel)
				shared.debug = true
			}
			cfg, err := media_fetcher.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			shared.config = cfg
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "formats",
				Usage:     "list the formats, subtitles and dubs available for a URL",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					source, err := sourceArg(c)
					if err != nil {
						return err
					}
					return shared.listFormats(source)
				},
			},
			downloadCommand(shared),
			{
				Name:  "history",
				Usage: "show or clear the download history",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "show completed downloads, newest first",
						Action: func(c *cli.Context) error { return shared.listHistory() },
					},
					{
						Name:   "clear",
						Usage:  "forget every completed download",
						Action: func(c *cli.Context) error { return shared.clearHistory() },
					},
				},
			},
			{
				Name:  "config",
				Usage: "manage the settings file",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "write the default settings to the --config file",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
						},
						Action: func(c *cli.Context) error {
							return shared.initConfig(c.String("config"), c.Bool("force"))
						},
					},
				},
			},
			{
				Name:   "check",
				Usage:  "check that the external tools can be found",
				Action: func(c *cli.Context) error { return shared.check() },
			},
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		// Commands watch ctx, so give them the chance to clean up
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}

// env is what every command shares once the global flags are processed.
type env struct {
	ctx    context.Context
	config media_fetcher.Config
	debug  bool
}

func (e *env) logger() *zap.SugaredLogger {
	return media_fetcher.Logger(e.ctx).Sugar()
}

// sourceArg takes the single URL argument. A bare YouTube video id is accepted too.
func sourceArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one URL, got %d arguments", c.NArg())
	}
	return normalizeSource(c.Args().First()), nil
}

func normalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if strings.Contains(source, "://") {
		return source
	}
	if u, err := util.WatchURL(source); err == nil {
		return u
	}
	return source
}

func (e *env) historyPath() string {
	path := e.config.HistoryPath
	if e.config.HistoryBackend == media_fetcher.HistoryBackendBolt && strings.EqualFold(filepath.Ext(path), ".json") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	return path
}

func (e *env) openHistory() (history.Store, error) {
	path := e.historyPath()
	e.logger().Debugf("using %s history at %s", e.config.HistoryBackend, path)
	switch e.config.HistoryBackend {
	case media_fetcher.HistoryBackendBolt:
		store, err := boltdb.New(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return history.NewJSONStore(path), nil
	}
}

func (e *env) listHistory() error {
	store, err := e.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	records, err := store.Load()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No downloads yet")
		return nil
	}
	for _, r := range records {
		if r.IsPlaylist() {
			if len(r.Entries) == 0 {
				continue
			}
			first := r.Entries[0]
			fmt.Printf("%s  %-8s  Playlist (%d files)  %s\n", first.DateTime, first.Type, len(r.Entries), first.URL)
			for _, entry := range r.Entries {
				fmt.Printf("    %s\n      %s\n", entry.Title, entry.FilePath)
			}
		} else {
			entry := r.Single
			fmt.Printf("%s  %-8s  %s %s\n    %s\n", entry.DateTime, entry.Type, entry.Title, entry.Format, entry.FilePath)
		}
	}
	return nil
}

func (e *env) clearHistory() error {
	store, err := e.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Clear(); err != nil {
		return err
	}
	e.logger().Info("history cleared")
	return nil
}

// initConfig saves the defaults, with any values already loaded from an existing file when force is set.
func (e *env) initConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := e.config.Save(path); err != nil {
		return err
	}
	e.logger().Infof("wrote settings to %s", path)
	return nil
}

type toolCheck struct {
	name     string
	required bool
}

var toolChecks = []toolCheck{
	{"yt-dlp", true},
	{"ffmpeg", true},
	{"spotdl", false},
}

// check looks for each external tool on PATH (or at its configured location).
func (e *env) check() error {
	var missing []string
	for _, tool := range toolChecks {
		binary := e.config.Binary(tool.name, tool.name)
		path, err := exec.LookPath(binary)
		switch {
		case err == nil:
			fmt.Printf("%-8s ok       %s\n", tool.name, path)
		case tool.required:
			fmt.Printf("%-8s MISSING  %v\n", tool.name, err)
			missing = append(missing, tool.name)
		default:
			fmt.Printf("%-8s missing  %v (only needed for Spotify)\n", tool.name, err)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingTools, strings.Join(missing, ", "))
	}
	return nil
}
