package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"notechat/internal/app"
	"notechat/internal/config"
	"notechat/internal/rag"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "notectl",
		Usage: "Ingest and search your notes from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Clear the store and ingest every record from the source",
				Action: ingestCommand,
			},
			{
				Name:      "query",
				Usage:     "Find the chunks nearest to a query text",
				ArgsUsage: "<text>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (default QUERY_DEFAULT_K)",
					},
					&cli.Float64Flag{
						Name:  "max-distance",
						Usage: "Distance threshold (default QUERY_MAX_DISTANCE)",
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Only search notes in this folder",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:   "count",
				Usage:  "Print the number of stored notes",
				Action: countCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "source",
						Usage: "Count the records in the source instead",
					},
				},
			},
			{
				Name:   "folders",
				Usage:  "List the folders of stored notes",
				Action: foldersCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print chunk coverage statistics",
				Action: statsCommand,
			},
		},
	}
}

// withApp loads the configuration, wires the components and runs fn.
func withApp(c *cli.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	// Logs go to stderr so command output stays pipeable.
	logger := app.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(ctx, a)
}

func ingestCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *app.App) error {
		summary, err := a.Service.RunFullIngestion(ctx)
		printSummary(c.App.Writer, summary.NotesSaved, summary.NotesSeen, summary.ChunksSaved, summary.Duration.String())
		return err
	})
}

func queryCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("query text is required")
	}
	req := rag.QueryRequest{
		Text:        text,
		K:           c.Int("k"),
		MaxDistance: c.Float64("max-distance"),
		Folder:      c.String("folder"),
	}
	return withApp(c, func(ctx context.Context, a *app.App) error {
		resp, err := a.Service.Query(ctx, req)
		if err != nil {
			return err
		}
		if c.Bool("json") {
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		printResults(c.App.Writer, resp)
		return nil
	})
}

func countCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *app.App) error {
		var (
			n   int
			err error
		)
		if c.Bool("source") {
			n, err = a.Service.CountSourceRecords(ctx)
		} else {
			n, err = a.Service.CountNotes(ctx)
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(c.App.Writer, n)
		return nil
	})
}

func foldersCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *app.App) error {
		folders, err := a.Service.ListFolders(ctx)
		if err != nil {
			return err
		}
		for _, f := range folders {
			_, _ = fmt.Fprintln(c.App.Writer, f)
		}
		return nil
	})
}

func statsCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, a *app.App) error {
		stats, err := a.Service.Stats(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	})
}

func printSummary(w io.Writer, saved, seen, chunks int, took string) {
	_, _ = fmt.Fprintf(w, "ingested %d/%d notes, %d chunks in %s\n", saved, seen, chunks, took)
}

func printResults(w io.Writer, resp rag.QueryResponse) {
	if len(resp.Results) == 0 {
		_, _ = fmt.Fprintf(w, "no chunks within distance %.2f\n", resp.MaxDistance)
		return
	}
	for _, r := range resp.Results {
		_, _ = fmt.Fprintf(w, "%d. %s [%s] distance=%.4f chunk=%d\n", r.Rank, r.NoteTitle, r.FolderName, r.Distance, r.ChunkIndex)
		_, _ = fmt.Fprintf(w, "   %s\n", preview(r.Content, 160))
	}
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
