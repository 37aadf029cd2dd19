// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/careersearch"
	"github.com/poiesic/careersearch/config"
	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/snapshot"
)

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "env-file",
			Aliases: []string{"e"},
			Usage:   "Load environment variables from this file",
			Value:   ".env",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Store backend (badger, mongo)",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
		&cli.StringFlag{
			Name:  "mongo-uri",
			Usage: "MongoDB connection URI",
		},
		&cli.StringFlag{
			Name:  "mongo-db",
			Usage: "MongoDB database name",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "careersearch",
		Usage: "Search and suggestion service for institutes, programmes and courses",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "HTTP listen address",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron spec (with seconds) for scheduled rebuilds",
					},
				),
			},
			{
				Name:   "rebuild",
				Usage:  "Regenerate every suggestion from the institute store",
				Action: rebuildCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of institutes to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of populate workers",
					},
				),
			},
			{
				Name:      "seed",
				Usage:     "Load institutes from a JSON file",
				ArgsUsage: "<institutes.json>",
				Action:    seedCommand,
				Flags: append(storeFlags(),
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Rebuild suggestions after seeding",
						Value: true,
					},
				),
			},
			{
				Name:      "export",
				Usage:     "Write a snapshot of institutes and suggestions",
				ArgsUsage: "<file>",
				Action:    exportCommand,
				Flags:     storeFlags(),
			},
			{
				Name:      "import",
				Usage:     "Restore institutes and suggestions from a snapshot",
				ArgsUsage: "<file>",
				Action:    importCommand,
				Flags:     storeFlags(),
			},
			{
				Name:   "stats",
				Usage:  "Print index statistics and recent rebuilds",
				Action: statsCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "runs",
						Usage: "Number of recent rebuilds to list",
						Value: 5,
					},
				),
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the environment and applies any flags that were set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("mongo-uri") {
		cfg.MongoURI = c.String("mongo-uri")
	}
	if c.IsSet("mongo-db") {
		cfg.MongoDatabase = c.String("mongo-db")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("schedule") {
		cfg.RebuildSchedule = c.String("schedule")
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("workers") {
		cfg.PoolSize = c.Int("workers")
	}
	cfg.LogLevel = strings.ToLower(c.String("log-level"))
	return cfg, nil
}

func openService(c *cli.Context) (*careersearch.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	svc, err := careersearch.NewService(c.Context, cfg,
		careersearch.WithProgress(os.Stderr),
		careersearch.WithServiceLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return svc, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Serve(ctx)
}

func rebuildCommand(c *cli.Context) error {
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Rebuilder().Run(c.Context, core.RebuildTriggerCLI)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Run: %s\n", result.RunID)
	fmt.Fprintf(os.Stderr, "Institutes processed: %s (skipped %s)\n",
		humanize.Comma(int64(result.InstitutesProcessed)), humanize.Comma(int64(result.InstitutesSkipped)))
	fmt.Fprintf(os.Stderr, "Suggestions: %s created, %s deleted\n",
		humanize.Comma(int64(result.SuggestionsCreated)), humanize.Comma(int64(result.SuggestionsDeleted)))
	fmt.Fprintf(os.Stderr, "Took %s\n", result.Duration.Round(time.Millisecond))
	return nil
}

// readInstitutes decodes a JSON array of institutes, filling in missing slugs.
func readInstitutes(path string) ([]*core.Institute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var institutes []*core.Institute
	if err := json.Unmarshal(data, &institutes); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	for i, inst := range institutes {
		if inst == nil {
			return nil, fmt.Errorf("institute %d is null", i)
		}
		if inst.Slug == "" {
			inst.Slug = inst.Name
		}
		inst.Slug = core.NormalizeSlug(inst.Slug)
		if err := core.ValidateInstitute(inst); err != nil {
			return nil, fmt.Errorf("institute %d (%s): %w", i, inst.PublicID, err)
		}
	}
	return institutes, nil
}

func seedCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one institutes file")
	}
	institutes, err := readInstitutes(c.Args().First())
	if err != nil {
		return err
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Repositories().Institutes.PutInstitutes(c.Context, institutes...); err != nil {
		return fmt.Errorf("failed to store institutes: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Seeded %s institutes\n", humanize.Comma(int64(len(institutes))))

	if !c.Bool("rebuild") {
		return nil
	}
	result, err := svc.Rebuilder().Run(c.Context, core.RebuildTriggerCLI)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Created %s suggestions\n", humanize.Comma(int64(result.SuggestionsCreated)))
	return nil
}

func exportCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one output file")
	}
	path := c.Args().First()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	repos := svc.Repositories()
	snap, err := snapshot.Export(c.Context, f, repos.Institutes, repos.Suggestions)
	if err != nil {
		f.Close()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %s institutes and %s suggestions to %s (%s)\n",
		humanize.Comma(int64(len(snap.Institutes))), humanize.Comma(int64(len(snap.Suggestions))),
		path, humanize.Bytes(uint64(info.Size())))
	return nil
}

func importCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one snapshot file")
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := snapshot.Import(c.Context, f)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	repos := svc.Repositories()
	if err := snapshot.Restore(c.Context, snap, repos.Institutes, repos.Suggestions); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Imported %s institutes and %s suggestions exported %s\n",
		humanize.Comma(int64(len(snap.Institutes))), humanize.Comma(int64(len(snap.Suggestions))),
		humanize.Time(snap.ExportedAt))
	return nil
}

func statsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Engine().Init(c.Context); err != nil {
		return err
	}
	stats := svc.Engine().Stats()

	fmt.Printf("Generation:   %s\n", stats.Generation)
	fmt.Printf("Institutes:   %s\n", humanize.Comma(int64(stats.Institutes)))
	fmt.Printf("Programmes:   %s\n", humanize.Comma(int64(stats.Programmes)))
	fmt.Printf("Courses:      %s\n", humanize.Comma(int64(stats.Courses)))
	fmt.Printf("Suggestions:  %s\n", humanize.Comma(int64(stats.Suggestions)))
	for _, t := range []core.SuggestionType{core.SuggestionTypeInstitute, core.SuggestionTypeProgram, core.SuggestionTypeCourse} {
		fmt.Printf("  %-10s  %s\n", t, humanize.Comma(int64(stats.SuggestionsByType[t])))
	}
	fmt.Printf("Cities:       %s\n", humanize.Comma(int64(stats.Cities)))
	fmt.Printf("States:       %s\n", humanize.Comma(int64(stats.States)))

	runs, err := svc.Repositories().RebuildRuns.ListRebuildRuns(c.Context, c.Int("runs"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No rebuilds recorded")
		return nil
	}
	fmt.Println("Recent rebuilds:")
	for _, run := range runs {
		status := "ok"
		if !run.Succeeded() {
			status = "failed: " + run.Error
		}
		fmt.Printf("  %s  %-8s  %s suggestions  %s  %s\n",
			run.ID, run.Trigger, humanize.Comma(int64(run.SuggestionsCreated)),
			humanize.Time(run.StartedAt), status)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
