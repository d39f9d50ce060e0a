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
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docchat"
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/extract"
	"github.com/poiesic/docchat/ingestion"
	"github.com/poiesic/docchat/server"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "docchat",
		Usage:   "Ask questions grounded in PDF, DOCX and XLSX documents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before:                    setupLogger,
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract documents and print the aggregated context",
				ArgsUsage: "FILE...",
				Action:    extractCommand,
				Flags:     ingestionFlags(),
			},
			{
				Name:      "ask",
				Usage:     "Answer questions about documents",
				ArgsUsage: "FILE...",
				Action:    askCommand,
				Flags: append(append(ingestionFlags(), aiFlags()...),
					&cli.StringSliceFlag{
						Name:    "question",
						Aliases: []string{"q"},
						Usage:   "Question to ask (repeatable); read from stdin, one per line, when omitted",
					},
				),
			},
			{
				Name:   "serve",
				Usage:  "Serve the upload and chat HTTP API",
				Action: serveCommand,
				Flags: append(append(ingestionFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "Grace period for in-flight requests on shutdown",
						Value: 10 * time.Second,
					},
				),
			},
		},
	}
}

func ingestionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Maximum concurrent extractions (0 for unbounded)",
			Value: 0,
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Report extraction progress on stderr",
			Value: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML inference configuration",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Inference backend (gemini, openai)",
			Value: string(ai.BackendGemini),
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Inference service base URL",
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "Model name",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Inference API key",
			EnvVars: []string{"DOCCHAT_API_KEY"},
		},
		&cli.Float64Flag{
			Name:  "temperature",
			Usage: "Sampling temperature",
			Value: ai.DefaultTemperature,
		},
	}
}

// aiConfig layers explicit flags over the config file over the defaults.
func aiConfig(c *cli.Context) (*ai.Config, error) {
	var opts []ai.ConfigOption
	if path := c.String("config"); path != "" {
		fc, err := ai.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fc.Options()...)
	}

	if c.IsSet("backend") {
		opts = append(opts, ai.WithBackend(ai.Backend(c.String("backend"))))
	}
	if c.IsSet("host") {
		opts = append(opts, ai.WithHost(c.String("host")))
	}
	if c.IsSet("model") {
		opts = append(opts, ai.WithModel(c.String("model")))
	}
	if c.IsSet("api-key") {
		opts = append(opts, ai.WithAPIKey(c.String("api-key")))
	}
	if c.IsSet("temperature") {
		opts = append(opts, ai.WithTemperature(c.Float64("temperature")))
	}

	config := ai.NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// readFiles loads every path concurrently. Any read error fails the whole
// call; unreadable paths never reach extraction.
func readFiles(ctx context.Context, paths []string) ([]core.File, error) {
	files := make([]core.File, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			files[i] = core.File{Name: filepath.Base(path), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func ingestionOptions(c *cli.Context) []ingestion.Option {
	opts := []ingestion.Option{ingestion.WithPoolSize(c.Int("pool-size"))}
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithObserver(ingestion.NewProgressTracker(c.App.ErrWriter).Observe))
	}
	return opts
}

func extractCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file is required")
	}

	files, err := readFiles(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}

	coordinator, err := ingestion.NewCoordinator(extract.NewDispatcher(), ingestionOptions(c)...)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	batch, err := coordinator.Ingest(c.Context, files)
	printRecords(c.App.Writer, batch)
	if err != nil {
		if errors.Is(err, ingestion.ErrNoDocumentsProcessed) {
			return errors.New(docchat.BatchFailureMessage)
		}
		return err
	}

	fmt.Fprintln(c.App.Writer)
	fmt.Fprintln(c.App.Writer, batch.Context)
	return nil
}

func printRecords(w io.Writer, batch *ingestion.Batch) {
	if batch == nil {
		return
	}
	for _, r := range batch.Records {
		if detail, ok := r.ErrorDetail(); ok {
			fmt.Fprintf(w, "%-10s %s: %s\n", r.Status(), r.Name(), detail)
			continue
		}
		fmt.Fprintf(w, "%-10s %s\n", r.Status(), r.Name())
	}
}

func newSession(c *cli.Context) (*docchat.Session, error) {
	config, err := aiConfig(c)
	if err != nil {
		return nil, err
	}

	opts := []docchat.SessionOption{
		docchat.WithAIConfig(config),
		docchat.WithIngestionOptions(ingestion.WithPoolSize(c.Int("pool-size"))),
	}
	if c.Bool("progress") {
		opts = append(opts, docchat.WithFileObserver(ingestion.NewProgressTracker(c.App.ErrWriter).Observe))
	}
	return docchat.NewSession(opts...)
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one file is required")
	}

	files, err := readFiles(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}

	session, err := newSession(c)
	if err != nil {
		return err
	}
	defer session.Close()

	batch, err := session.Submit(c.Context, files)
	printRecords(c.App.ErrWriter, batch)
	if err != nil {
		var userErr *docchat.UserError
		if errors.As(session.LastError(), &userErr) {
			return errors.New(userErr.Message)
		}
		return err
	}

	history, err := session.History(c.Context)
	if err != nil {
		return err
	}
	for _, turn := range history {
		fmt.Fprintf(c.App.Writer, "%s: %s\n", turn.Speaker, turn.Text)
	}

	questions := c.StringSlice("question")
	if len(questions) > 0 {
		for _, q := range questions {
			q = strings.TrimSpace(q)
			if q == "" {
				continue
			}
			if err := ask(c, session, q); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(c.App.Reader)
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		if err := ask(c, session, q); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func ask(c *cli.Context, session *docchat.Session, question string) error {
	reply, err := session.Ask(c.Context, question)
	if err != nil {
		return err
	}
	if lastErr := session.LastError(); lastErr != nil {
		slog.Warn("inference failed", "err", lastErr)
	}
	fmt.Fprintf(c.App.Writer, "%s: %s\n", reply.Speaker, reply.Text)
	return nil
}

func serveCommand(c *cli.Context) error {
	session, err := newSession(c)
	if err != nil {
		return err
	}
	defer session.Close()

	srv := server.New(session, server.WithVersion(version))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(c.String("addr"))
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
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
