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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/ai/openai"
	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/extract"
	"github.com/poiesic/distill/graph"
	"github.com/poiesic/distill/retry"
	"github.com/poiesic/distill/synth"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "distill",
		Usage: "Distill Teams channel threads into question/answer pairs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "extract",
				Usage:  "Extract channel threads into a JSON interchange file",
				Action: extractCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Path of the interchange file to write",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Only include messages created on or after this date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "base-url",
						Usage: "Graph API root URL",
						Value: graph.DefaultBaseURL,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Requested page size for message listing",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "reply-workers",
						Usage: "Concurrent reply fetches",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed requests",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:   "pairs",
				Usage:  "Synthesize question/answer pairs as JSON records",
				Action: pairsCommand,
				Flags:  synthFlags(),
			},
			{
				Name:   "docs",
				Usage:  "Synthesize question/answer pairs as Markdown documents",
				Action: docsCommand,
				Flags:  synthFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// synthFlags returns the flag set shared by the pairs and docs commands.
func synthFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "in",
			Aliases:  []string{"i"},
			Usage:    "Path of the interchange file to read",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "out-dir",
			Aliases:  []string{"o"},
			Usage:    "Directory to write output files into",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent synthesis requests",
			Value: 4,
		},
		&cli.Float64Flag{
			Name:  "rps",
			Usage: "Request rate cap per second (0 disables)",
		},
		&cli.IntFlag{
			Name:  "budget",
			Usage: "Prompt token budget per thread (0 disables truncation)",
			Value: 6000,
		},
		&cli.IntFlag{
			Name:  "max-tokens",
			Usage: "Maximum completion tokens per request",
			Value: 1024,
		},
		&cli.Float64Flag{
			Name:  "temperature",
			Usage: "Sampling temperature",
			Value: 0.1,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed requests",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 2 * time.Second,
		},
	}
}

func extractCommand(c *cli.Context) error {
	ctx := context.Background()

	token := os.Getenv("ACCESS_TOKEN")
	if token == "" {
		return fmt.Errorf("ACCESS_TOKEN environment variable is required")
	}
	groupID := os.Getenv("GROUP_ID")
	if groupID == "" {
		return fmt.Errorf("GROUP_ID environment variable is required")
	}
	channelID := os.Getenv("CHANNEL_ID")
	if channelID == "" {
		return fmt.Errorf("CHANNEL_ID environment variable is required")
	}

	since, err := parseFromDate(c.String("from"))
	if err != nil {
		return err
	}

	client, err := graph.NewClient(nil, graph.Config{
		BaseURL:      c.String("base-url"),
		AccessToken:  token,
		GroupID:      groupID,
		ChannelID:    channelID,
		PageSize:     c.Int("page-size"),
		ReplyWorkers: c.Int("reply-workers"),
		Retry: retry.Policy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
			MaxDelay:    60 * time.Second,
			Jitter:      0.2,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create channel client: %w", err)
	}

	extractor, err := extract.NewExtractor(client)
	if err != nil {
		return err
	}

	summary, err := extractor.Run(ctx, since, c.String("out"))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %d threads (%d replies) to %s, skipped %d\n",
		summary.Threads, summary.Replies, c.String("out"), summary.SkippedThreads)
	return nil
}

func pairsCommand(c *cli.Context) error {
	writer, err := synth.NewJSONWriter(c.String("out-dir"))
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}
	return runSynthesis(c, writer)
}

func docsCommand(c *cli.Context) error {
	writer, err := synth.NewDocWriter(c.String("out-dir"))
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}
	return runSynthesis(c, writer)
}

func runSynthesis(c *cli.Context, writer synth.PairWriter) error {
	ctx := context.Background()

	apiKey := os.Getenv("AZURE_OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("AZURE_OPENAI_API_KEY environment variable is required")
	}
	endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT")
	if endpoint == "" {
		return fmt.Errorf("AZURE_OPENAI_ENDPOINT environment variable is required")
	}
	deployment := os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME")
	if deployment == "" {
		return fmt.Errorf("AZURE_OPENAI_DEPLOYMENT_NAME environment variable is required")
	}

	file, err := readThreadFile(c.String("in"))
	if err != nil {
		return err
	}

	options := []ai.ConfigOption{
		ai.WithEndpoint(endpoint),
		ai.WithAPIKey(apiKey),
		ai.WithDeployment(deployment),
		ai.WithTemperature(c.Float64("temperature")),
		ai.WithMaxTokens(c.Int("max-tokens")),
	}
	if apiVersion := os.Getenv("AZURE_OPENAI_API_VERSION"); apiVersion != "" {
		options = append(options, ai.WithAPIVersion(apiVersion))
	}

	synthesizer, err := openai.NewSynthesizer(ai.NewConfig(options...))
	if err != nil {
		return fmt.Errorf("failed to create synthesizer: %w", err)
	}

	pipelineOpts := []synth.Option{
		synth.WithWorkers(c.Int("workers")),
		synth.WithRateLimit(c.Float64("rps")),
		synth.WithTokenBudget(c.Int("budget")),
		synth.WithProgress(os.Stderr),
		synth.WithRetryPolicy(retry.Policy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
			MaxDelay:    60 * time.Second,
			Jitter:      0.2,
		}),
	}

	counter, err := synth.NewTokenCounter()
	if err != nil {
		slog.Warn("token counter unavailable, prompt truncation disabled", "err", err)
	} else {
		pipelineOpts = append(pipelineOpts, synth.WithTokenCounter(counter))
	}

	pipeline, err := synth.NewPipeline(synthesizer, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	summary, err := pipeline.Run(ctx, file, writer)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Produced %d pairs from %d threads (skipped %d, failed %d)\n",
		summary.Produced, summary.Threads,
		summary.SkippedNoReplies+summary.SkippedNoPair, summary.Failed)
	return nil
}

// readThreadFile loads and parses the interchange file.
func readThreadFile(path string) (*core.ThreadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read interchange file: %w", err)
	}

	var file core.ThreadFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse interchange file: %w", err)
	}
	return &file, nil
}

// parseFromDate parses the --from bound at day granularity. The bound's time
// is midnight UTC so the whole named day is included.
func parseFromDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --from date %q: must be YYYY-MM-DD", value)
	}
	return day.UTC(), nil
}

func setup(c *cli.Context) error {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
