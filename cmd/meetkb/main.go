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
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/meetkb"
	"github.com/poiesic/meetkb/config"
	"github.com/poiesic/meetkb/core"
	"github.com/poiesic/meetkb/ingestion"
	"github.com/poiesic/meetkb/reembed"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "meetkb",
		Usage: "Meeting knowledge base: ingest recordings and documents, ask questions about them",
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
				Usage:   "Path to the TOML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Ingest files into a knowledge base, or as single documents without --kb",
				ArgsUsage: "FILE...",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kb",
						Usage: "Knowledge base id",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Wait for video transcriptions to finish before exiting",
						Value: true,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about documents of a knowledge base",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kb",
						Usage:    "Knowledge base id",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "doc",
						Aliases:  []string{"d"},
						Usage:    "Document key to search (repeatable)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "diagram",
						Usage: "Print only the Mermaid diagram when the answer contains one",
					},
				},
			},
			{
				Name:      "ask-doc",
				Usage:     "Ask a question about a single uploaded document",
				ArgsUsage: "QUESTION",
				Action:    askDocCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Usage:    "Document key returned by upload",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "summary-file",
						Usage: "File holding the summary returned by upload",
					},
				},
			},
			{
				Name:   "files",
				Usage:  "List the documents of a knowledge base",
				Action: filesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kb",
						Usage:    "Knowledge base id",
						Required: true,
					},
				},
			},
			{
				Name:   "summaries",
				Usage:  "Print the summaries of a knowledge base as JSON",
				Action: summariesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kb",
						Usage:    "Knowledge base id",
						Required: true,
					},
				},
			},
			{
				Name:      "job",
				Usage:     "Show transcription jobs; all of them when no name is given",
				ArgsUsage: "[NAME]",
				Action:    jobCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Rebuild indexes built with another embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of indexes to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N indexes",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Indexes rebuilt concurrently within a batch",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rebuild every index, even those already current",
					},
				},
			},
		},
	}
}

// openEngine loads configuration and builds the engine. The returned
// context is canceled on interrupt.
func openEngine(c *cli.Context) (context.Context, *meetkb.Engine, func(), error) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		stop()
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	engine, err := meetkb.NewEngine(ctx, cfg)
	if err != nil {
		stop()
		return nil, nil, nil, fmt.Errorf("failed to start: %w", err)
	}
	return ctx, engine, func() {
		if err := engine.Close(); err != nil {
			slog.Error("error closing engine", "err", err)
		}
		stop()
	}, nil
}

func questionArg(c *cli.Context) (string, error) {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return "", fmt.Errorf("a question is required")
	}
	return question, nil
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	ctx, engine, done, err := openEngine(c)
	if err != nil {
		return err
	}
	defer done()

	out := c.App.Writer
	pending := false
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		res, err := engine.Upload(ctx, ingestion.Upload{
			KnowledgeBaseID: c.String("kb"),
			Filename:        filepath.Base(path),
			Data:            data,
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}
		printUpload(out, res)
		pending = pending || res.Pending
	}

	if pending && c.Bool("wait") {
		fmt.Fprintln(c.App.ErrWriter, "Waiting for transcriptions to finish...")
		engine.WaitForTranscriptions()
	}
	return nil
}

func printUpload(w io.Writer, res *ingestion.Result) {
	fmt.Fprintf(w, "Document: %s (%s)\n", res.Document, res.Kind)
	if res.Pending {
		fmt.Fprintf(w, "Transcription job: %s\n", res.JobName)
		return
	}
	fmt.Fprintf(w, "Chunks indexed: %d\n\n%s\n", res.Chunks, res.Summary)
}

func askCommand(c *cli.Context) error {
	question, err := questionArg(c)
	if err != nil {
		return err
	}

	ctx, engine, done, err := openEngine(c)
	if err != nil {
		return err
	}
	defer done()

	result, err := engine.Ask(ctx, c.String("kb"), c.StringSlice("doc"), question)
	if err != nil {
		return err
	}
	if c.Bool("diagram") {
		if diagram, ok := result.Diagram(); ok {
			fmt.Fprintln(c.App.Writer, diagram)
			return nil
		}
	}
	fmt.Fprintln(c.App.Writer, result.Display())
	return nil
}

func askDocCommand(c *cli.Context) error {
	question, err := questionArg(c)
	if err != nil {
		return err
	}
	var summary string
	if path := c.String("summary-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read summary: %w", err)
		}
		summary = string(data)
	}

	ctx, engine, done, err := openEngine(c)
	if err != nil {
		return err
	}
	defer done()

	result, err := engine.AskDocument(ctx, summary, c.String("key"), question)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, result.Display())
	return nil
}

func filesCommand(c *cli.Context) error {
	ctx, engine, done, err := openEngine(c)
	if err != nil {
		return err
	}
	defer done()

	files, err := engine.ListFiles(ctx, c.String("kb"))
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(c.App.Writer, f)
	}
	return nil
}

func summariesCommand(c *cli.Context) error {
	ctx, engine, done, err := openEngine(c)
	if err != nil {
		return err
	}
	defer done()

	summaries, err := engine.ListSummaries(ctx, c.String("kb"))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, summaries)
}

func jobCommand(c *cli.Context) error {
	ctx, engine, done, err := openEngine(c)
	if err != nil {
		return err
	}
	defer done()

	if name := c.Args().First(); name != "" {
		job, err := engine.JobStatus(ctx, name)
		if err != nil {
			return err
		}
		return writeJSON(c.App.Writer, jobView(job))
	}

	jobs, err := engine.Jobs(ctx)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", job.Name, job.Status, job.Document)
	}
	return nil
}

func jobView(job *core.TranscriptionJob) map[string]any {
	view := map[string]any{
		"job_name":        job.Name,
		"document":        job.Document.String(),
		"source_media":    job.SourceMediaURI,
		"output_location": job.OutputLocation,
		"status":          job.Status.String(),
		"attempts":        job.AttemptCount,
		"updated_at":      job.UpdatedAt.Format(time.RFC3339),
	}
	if job.FailureReason != "" {
		view["failure_reason"] = job.FailureReason
	}
	return view
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Workers:        c.Int("workers"),
		Force:          c.Bool("force"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	if reembedConfig.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}

	ctx, engine, done, err := openEngine(c)
	if err != nil {
		return err
	}
	defer done()

	if _, err := engine.Reembed(ctx, reembedConfig, c.App.ErrWriter); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
