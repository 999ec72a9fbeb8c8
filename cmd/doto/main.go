package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/dotolabs/doto/internal"
	"github.com/dotolabs/doto/internal/backup"
	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/export"
	"github.com/dotolabs/doto/internal/kvstore"
	"github.com/dotolabs/doto/internal/mcpserver"
	"github.com/dotolabs/doto/internal/notestore"
	"github.com/dotolabs/doto/internal/tagstore"
	pkgconfig "github.com/dotolabs/doto/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openStores opens the key-value store and loads notes and tags from it.
// The logger goes to stderr so stdout stays free for command output.
func openStores(cfg *internal.Config) (*kvstore.SQLite, *notestore.Store, *tagstore.Registry, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	kv, err := kvstore.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	store, tags, err := internal.BuildStores(kv, clock.System{}, logger)
	if err != nil {
		kv.Close()
		return nil, nil, nil, err
	}
	return kv, store, tags, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	kv, store, tags, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	return mcpserver.New(store, tags, clock.System{}).ServeStdio()
}

func exportNotes(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	kv, store, _, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	clk := clock.System{}

	if cmd.Bool("zip") {
		data, name, err := export.Zip(store.Notes())
		if err != nil {
			return fmt.Errorf("zip export: %w", err)
		}
		out := cmd.String("file")
		if out == "" {
			out = name
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintln(os.Stdout, out)
		return nil
	}

	doc := export.All(store.Notes(), clk.Today())

	switch {
	case cmd.Bool("clipboard"):
		if err := clipboard.WriteAll(doc); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	case cmd.String("file") != "":
		out := cmd.String("file")
		if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintln(os.Stdout, out)
	default:
		fmt.Fprint(os.Stdout, doc)
	}
	return nil
}

func importBackup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: doto import <backup.json>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	kv, store, _, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	notes, err := backup.Decode(raw, clock.System{}.Now())
	if err != nil {
		return err
	}
	store.ReplaceAllNotes(notes)
	fmt.Fprintf(os.Stdout, "imported %d notes\n", len(notes))
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "doto",
		Usage:  "Local-first note and task store with a REST API, backup import/export, and Markdown export",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default command)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "export",
				Usage:  "Export all notes as Markdown",
				Action: exportNotes,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Write output to a file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "clipboard",
						Usage: "Copy the Markdown document to the system clipboard",
					},
					&cli.BoolFlag{
						Name:  "zip",
						Usage: "Produce a zip archive with one Markdown file per day",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a backup JSON file, replacing the current collection",
				ArgsUsage: "<backup.json>",
				Action:    importBackup,
				Flags:     []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
