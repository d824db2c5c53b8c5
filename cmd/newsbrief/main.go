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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	newsbrief "github.com/poiesic/newsbrief"
	"github.com/poiesic/newsbrief/ai"
	"github.com/poiesic/newsbrief/backfill"
	"github.com/poiesic/newsbrief/ingestion"
	"github.com/poiesic/newsbrief/news"
	"github.com/poiesic/newsbrief/retry"
	"github.com/poiesic/newsbrief/search"
)

func main() {
	app := &cli.App{
		Name:  "newsbrief",
		Usage: "AI-enriched news article ingestion and semantic search",
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
				Name:   "ingest",
				Usage:  "Fetch, enrich, and store a batch of articles",
				Action: ingestCommand,
				Flags: append(databaseFlags(), aiFlags()...),
			},
			{
				Name:   "search",
				Usage:  "Search stored articles by semantic similarity",
				Action: searchCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results to return",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum similarity score for a result",
						Value: float64(search.DefaultMinSimilarity),
					},
				}, aiFlags()...),
			},
			{
				Name:   "stats",
				Usage:  "Show article count and remaining call budget",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
			{
				Name:   "backfill",
				Usage:  "Re-embed all stored articles with a new embedding model",
				Action: backfillCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of articles to embed per model call",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N articles",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of batches embedded concurrently",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for failed model calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "news-api-key",
			Usage:    "API key for the news feed",
			EnvVars:  []string{"NEWSBRIEF_API_KEY"},
			Required: true,
		},
		&cli.StringFlag{
			Name:  "news-base-url",
			Usage: "Base URL of the news feed API",
			Value: "https://newsdata.io/api/1",
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Upstream category to ingest (e.g. technology)",
		},
		&cli.StringFlag{
			Name:  "query",
			Usage: "Keyword search to ingest instead of a category",
		},
		&cli.IntFlag{
			Name:  "max",
			Usage: "Maximum number of articles to ingest in this batch",
			Value: 3,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "summary-model",
			Usage: "Summarization model name",
			Value: "gemma3:4b",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "nomic-embed-text",
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithSummaryModel(c.String("summary-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	category := c.String("category")
	keywords := c.String("query")
	if category == "" && keywords == "" {
		return fmt.Errorf("either --category or --query is required")
	}
	if category != "" && keywords != "" {
		return fmt.Errorf("--category and --query are mutually exclusive")
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := newsbrief.NewDatabase(c.String("db"), newsbrief.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	source := news.NewClient(c.String("news-base-url"), c.String("news-api-key"))
	pipeline := db.NewIngestionPipeline(source)

	var result *ingestion.BatchResult
	if category != "" {
		result, err = pipeline.IngestCategory(ctx, category, c.Int("max"))
	} else {
		result, err = pipeline.IngestSearch(ctx, keywords, c.Int("max"))
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Fetched:   %d\n", result.Total)
	fmt.Printf("Succeeded: %d\n", result.Succeeded)
	fmt.Printf("Failed:    %d\n", result.Failed)
	fmt.Printf("Skipped:   %d\n", result.Skipped)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}

	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := newsbrief.NewDatabase(c.String("db"), newsbrief.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher(
		search.WithMinSimilarity(float32(c.Float64("min-similarity"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.FindSimilar(ctx, query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching articles.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.Article.Title)
		fmt.Printf("   %s\n", r.Article.URL)
		if r.Article.Summary != "" {
			fmt.Printf("   %s\n", r.Article.Summary)
		}
	}

	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := newsbrief.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	count, err := db.ArticleRepository().CountArticles(ctx)
	if err != nil {
		return fmt.Errorf("failed to count articles: %w", err)
	}
	status := db.RateLimiter().Status()

	fmt.Printf("Articles stored:    %d\n", count)
	fmt.Printf("Calls this minute:  %d remaining\n", status.MinuteRemaining)
	fmt.Printf("Calls today:        %d remaining\n", status.DayRemaining)

	return nil
}

func backfillCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		// The summarizer is not used for backfilling.
		ai.WithSummaryHost(c.String("embedding-host")),
		ai.WithSummaryModel("unused"),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	config := backfill.DefaultConfig()
	config.BatchSize = c.Int("batch-size")
	config.ReportInterval = c.Int("report-interval")
	if c.Int("pool-size") > 0 {
		config.PoolSize = c.Int("pool-size")
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	db, err := newsbrief.NewDatabase(c.String("db"),
		newsbrief.WithAIConfig(aiConfig),
		newsbrief.WithRetryOptions(
			retry.WithMaxAttempts(c.Int("max-retries")),
			retry.WithInitialDelay(c.Duration("retry-delay")),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	backfiller := db.NewBackfiller(config, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := backfiller.Run(ctx); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
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
