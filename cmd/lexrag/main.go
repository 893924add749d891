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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/lexrag"
	"github.com/poiesic/lexrag/config"
	"github.com/poiesic/lexrag/loader"
	"github.com/poiesic/lexrag/metrics"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lexrag",
		Usage: "Question answering over segmented legal documents",
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
				Usage:   "Path to the YAML config file",
				Value:   config.DefaultPath,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with provider settings",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Segment, embed and index a document",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Do not print batch progress",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Show the passages retrieved for a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "results",
						Aliases: []string{"k"},
						Usage:   "Number of passages to return",
						Value:   retrieval.DefaultFinalCount,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the indexed document",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Print the passages the answer was built from",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show index statistics",
				Action: statsCommand,
			},
			{
				Name:   "create-index",
				Usage:  "Create the vector collection if it does not exist",
				Action: createIndexCommand,
			},
			{
				Name:   "reset",
				Usage:  "Delete every indexed chunk",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
			},
		},
	}
}

func ingestCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a document path is required")
	}

	ctx, stop := signalContext()
	defer stop()

	var opts []lexrag.EngineOption
	if !c.Bool("quiet") {
		opts = append(opts, lexrag.WithProgress(os.Stderr))
	}
	engine, shutdown, err := openEngine(c, opts...)
	if err != nil {
		return err
	}
	defer shutdown()

	doc, err := loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	start := time.Now()
	report, err := engine.IngestPages(ctx, doc)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printReport(c.App.Writer, path, report, time.Since(start))

	if report.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d chunks were not indexed", report.Failed, report.ChunkCount), 2)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	ctx, stop := signalContext()
	defer stop()

	engine, shutdown, err := openEngine(c)
	if err != nil {
		return err
	}
	defer shutdown()

	results, err := engine.Retrieve(ctx, query, c.Int("results"))
	if errors.Is(err, retrieval.ErrEmptyContext) {
		fmt.Fprintln(c.App.Writer, "No relevant passages found")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d passages\n", len(results))
	for i, r := range results {
		fmt.Fprintf(c.App.Writer, "%d: %s [%0.3f] (page %d)\n", i+1, retrieval.CitationLabel(r.Citation), r.Score, r.Page)
		fmt.Fprintf(c.App.Writer, "   %s\n", preview(r.Text, 240))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("a question is required")
	}

	ctx, stop := signalContext()
	defer stop()

	engine, shutdown, err := openEngine(c)
	if err != nil {
		return err
	}
	defer shutdown()

	resp, err := engine.Answer(ctx, question, nil)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, resp.Answer)
	if c.Bool("sources") && len(resp.Sources) > 0 {
		fmt.Fprintln(c.App.Writer)
		fmt.Fprintln(c.App.Writer, "Sources:")
		for _, r := range resp.Sources {
			fmt.Fprintf(c.App.Writer, "  - %s [%0.3f]\n", retrieval.CitationLabel(r.Citation), r.Score)
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, shutdown, err := openEngine(c)
	if err != nil {
		return err
	}
	defer shutdown()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Chunks: %d\n", stats.Count)
	fmt.Fprintf(c.App.Writer, "Dimension: %d\n", stats.Dimension)
	return nil
}

func createIndexCommand(c *cli.Context) error {
	engine, shutdown, err := openEngine(c)
	if err != nil {
		return err
	}
	defer shutdown()

	if err := engine.CreateIndex(context.Background()); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Index ready")
	return nil
}

func resetCommand(c *cli.Context) error {
	if !c.Bool("yes") && !confirm(c.App.Reader, c.App.Writer, "Delete every indexed chunk?") {
		fmt.Fprintln(c.App.Writer, "Aborted")
		return nil
	}

	engine, shutdown, err := openEngine(c)
	if err != nil {
		return err
	}
	defer shutdown()

	if err := engine.Reset(context.Background()); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Index cleared")
	return nil
}

// loadConfig reads the config file, then the env file, then applies
// environment overrides and command line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if addr := c.String("metrics-addr"); addr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = addr
	}
	return cfg, nil
}

// openEngine opens an Engine for cfg and, when enabled, starts the
// metrics server. The returned func releases both.
func openEngine(c *cli.Context, opts ...lexrag.EngineOption) (*lexrag.Engine, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	var server *http.Server
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(true)
		opts = append(opts, lexrag.WithMetrics(collector))
		server = collector.Server(cfg.Metrics.Address)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "err", err)
			}
		}()
		slog.Info("serving metrics", "addr", cfg.Metrics.Address)
	}

	engine, err := lexrag.Open(cfg, opts...)
	if err != nil {
		if server != nil {
			server.Close()
		}
		return nil, nil, fmt.Errorf("failed to open engine: %w", err)
	}

	shutdown := func() {
		if err := engine.Close(); err != nil {
			slog.Warn("closing engine", "err", err)
		}
		if server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}
	}
	return engine, shutdown, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printReport(w io.Writer, path string, report lexrag.IngestReport, elapsed time.Duration) {
	fmt.Fprintf(w, "Document: %s\n", path)
	fmt.Fprintf(w, "Units: %d (skipped %d)\n", report.Units, report.Misses)
	fmt.Fprintf(w, "Chunks: %d in %d batches\n", report.ChunkCount, report.Batches)
	fmt.Fprintf(w, "Indexed: %d\n", report.Succeeded)
	fmt.Fprintf(w, "Failed: %d\n", report.Failed)
	for _, f := range report.FailedBatches {
		fmt.Fprintf(w, "  batch %d (%s..%s): %v\n", f.Index, f.FirstID, f.LastID, f.Err)
	}
	fmt.Fprintf(w, "Elapsed: %s\n", elapsed.Round(time.Millisecond))
}

func confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// preview flattens whitespace and truncates text to at most n runes.
func preview(text string, n int) string {
	flat := []rune(strings.Join(strings.Fields(text), " "))
	if len(flat) <= n {
		return string(flat)
	}
	return string(flat[:n]) + "..."
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
