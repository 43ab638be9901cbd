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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/tmbridge"
	"github.com/poiesic/tmbridge/config"
	"github.com/poiesic/tmbridge/core"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func terminologyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "terminology",
		Aliases:  []string{"t"},
		Usage:    "Catalog to query (siddha, ayurveda, unani, ayurveda-sat, icd11-standard, icd11-tm2)",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tmbridge",
		Usage: "Map traditional medicine terminology onto ICD-11",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "tmbridge.yaml",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides database.path)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Replace a stored catalog with the entries of a YAML or JSON file",
				ArgsUsage: "<catalog-file>",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "terminology",
						Aliases: []string{"t"},
						Usage:   "Catalog to replace (defaults to the terminology named in the file)",
					},
				},
			},
			{
				Name:   "build",
				Usage:  "Embed a stored catalog and persist its index bundle",
				Action: buildCommand,
				Flags:  []cli.Flag{terminologyFlag()},
			},
			{
				Name:      "search",
				Usage:     "Retrieve ranked candidates for a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags:     []cli.Flag{terminologyFlag()},
			},
			{
				Name:   "crossmap",
				Usage:  "Map a TM concept onto ICD-11 standard and TM2",
				Action: crossMapCommand,
				Flags: []cli.Flag{
					terminologyFlag(),
					&cli.StringFlag{
						Name:     "code",
						Usage:    "TM concept code",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "term",
						Usage: "TM concept term, used when the code is not in the catalog",
					},
				},
			},
			{
				Name:      "map",
				Usage:     "Retrieve TM candidates for a query, pick one and cross-map it",
				ArgsUsage: "<query>",
				Action:    mapCommand,
				Flags:     []cli.Flag{terminologyFlag()},
			},
			{
				Name:   "select",
				Usage:  "Record a practitioner's choice of code",
				Action: selectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "system",
						Usage:    "TM system the query was made in",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target",
						Usage:    "Catalog the chosen code belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "code",
						Usage:    "Chosen code",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Query that led to the choice",
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recent selections",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of selections to list",
						Value: 20,
					},
				},
			},
		},
	}
}

func setup(c *cli.Context) error {
	// A missing .env is fine; credentials may come from the environment.
	_ = godotenv.Load()
	return setupLogger(c)
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if db := c.String("db"); db != "" {
		cfg.Database.Path = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openEngine(c *cli.Context) (*tmbridge.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	opts := []tmbridge.Option{
		tmbridge.WithPolicy(cfg.Policy()),
		tmbridge.WithSelectionBoost(cfg.Retrieval.SelectionBoost),
		tmbridge.WithBuildConfig(cfg.BuildConfig()),
		tmbridge.WithProgress(c.App.ErrWriter),
	}
	if cfg.AI.Enabled {
		opts = append(opts, tmbridge.WithAIConfig(cfg.AIConfig()))
	}

	searcher, err := cfg.ExternalSearcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create external search: %w", err)
	}
	if searcher != nil {
		opts = append(opts, tmbridge.WithExternalSearch(searcher))
	}

	engine, err := tmbridge.Open(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func terminology(c *cli.Context, flag string) (core.Terminology, error) {
	return core.ParseTerminology(c.String(flag))
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	return query, nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one catalog file is required")
	}

	t, entries, err := readCatalog(c.Args().First(), c.String("terminology"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	info, err := engine.ImportCatalog(c.Context, t, entries)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Imported %d entries into %s (digest %s)\n", info.Entries, t.DisplayName(), info.Digest)
	return nil
}

func buildCommand(c *cli.Context) error {
	t, err := terminology(c, "terminology")
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	info, err := engine.Rebuild(c.Context, t)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if info.EmbeddingModel == "" {
		fmt.Fprintf(c.App.Writer, "Built lexical-only bundle for %s (%d entries)\n", t.DisplayName(), info.Entries)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Built bundle for %s (%d entries, %s, dimension %d)\n",
		t.DisplayName(), info.Entries, info.EmbeddingModel, info.Dimension)
	return nil
}

func searchCommand(c *cli.Context) error {
	t, err := terminology(c, "terminology")
	if err != nil {
		return err
	}
	query, err := queryArg(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Retrieve(c.Context, t, query)
	if err != nil {
		return err
	}
	printRanked(c.App.Writer, result)
	return nil
}

func crossMapCommand(c *cli.Context) error {
	t, err := terminology(c, "terminology")
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.CrossMap(c.Context, t, c.String("code"), c.String("term"))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s %s\nQuery: %s\n\n", t.DisplayName(), result.Code, result.Query)
	printRanked(c.App.Writer, result.Standard)
	fmt.Fprintln(c.App.Writer)
	printRanked(c.App.Writer, result.TM2)
	return nil
}

func mapCommand(c *cli.Context) error {
	t, err := terminology(c, "terminology")
	if err != nil {
		return err
	}
	query, err := queryArg(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Map(c.Context, t, query)
	if err != nil {
		return err
	}

	w := c.App.Writer
	printRanked(w, result.TMCandidates)
	fmt.Fprintln(w)
	if result.Selected == nil {
		fmt.Fprintln(w, "No catalog candidate to map.")
		return nil
	}
	fmt.Fprintf(w, "Selected: %s %s (%s)\n\n", result.Selected.Code, result.Selected.Term, result.SelectionReason)
	printRanked(w, result.ICDStandard)
	fmt.Fprintln(w)
	printRanked(w, result.ICDTM2)
	return nil
}

func selectCommand(c *cli.Context) error {
	system, err := terminology(c, "system")
	if err != nil {
		return err
	}
	target, err := terminology(c, "target")
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	selection := &core.Selection{
		System: system,
		Target: target,
		Code:   c.String("code"),
		Query:  c.String("query"),
	}
	if err := engine.RecordSelection(c.Context, selection); err != nil {
		return fmt.Errorf("failed to record selection: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Recorded %s %s\n", target.DisplayName(), selection.Code)
	return nil
}

func historyCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	selections, err := engine.RecentSelections(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	for _, s := range selections {
		fmt.Fprintf(c.App.Writer, "%s  %-14s %-10s %s\n",
			s.SelectedAt.Format("2006-01-02 15:04:05"), s.Target, s.Code, s.Query)
	}
	return nil
}

func printRanked(w io.Writer, result *core.RankedCandidates) {
	fmt.Fprintf(w, "%s [%s] %d candidates\n", result.Terminology.DisplayName(), result.Source, len(result.Candidates))
	if result.Advisory != "" {
		fmt.Fprintf(w, "  %s\n", result.Advisory)
	}

	for i, cand := range result.Candidates {
		label := cand.Term
		if cand.English != "" {
			label += " (" + cand.English + ")"
		}
		if cand.IsCatalogCode() {
			fmt.Fprintf(w, "  %2d. %-10s %-50s %.3f\n", i+1, cand.Code, label, cand.Score)
		} else {
			fmt.Fprintf(w, "  %2d. %s\n      %s\n", i+1, label, cand.Link)
		}
	}
}
