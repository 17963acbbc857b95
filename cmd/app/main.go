package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docgraph/internal"
	pkgconfig "github.com/starford/docgraph/pkg/config"
)

type entrypoint func(ctx context.Context, opts ...internal.Option) error

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("project") {
		cfg.Project.Label = cmd.String("project")
	}
	if cmd.IsSet("docs-path") {
		cfg.Docs.Path = cmd.String("docs-path")
	}
	if cmd.IsSet("exclude") {
		cfg.Docs.Exclude = cmd.StringSlice("exclude")
	}
	if cmd.IsSet("vocabulary") {
		cfg.Docs.Vocabulary = cmd.String("vocabulary")
	}
	if cmd.IsSet("backend") {
		cfg.Graph.Backend = cmd.String("backend")
	}
	if cmd.IsSet("neo4j-uri") {
		cfg.Graph.URI = cmd.String("neo4j-uri")
	}
	if cmd.IsSet("neo4j-user") {
		cfg.Graph.Username = cmd.String("neo4j-user")
	}
	if cmd.IsSet("neo4j-password") {
		cfg.Graph.Password = cmd.String("neo4j-password")
	}
	if cmd.IsSet("sqlite-path") {
		cfg.Graph.SQLitePath = cmd.String("sqlite-path")
	}
	if cmd.Bool("no-reset") {
		cfg.Graph.Reset = false
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func action(run entrypoint) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithDryRun(cmd.Bool("dry-run")),
		}

		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "docgraph",
		Usage:   "Extract documents, decisions, components and concepts from a Markdown docs tree into a property graph",
		Version: internal.Version,
		Action:  action(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "project",
				Usage: "Project label applied to every node",
				Value: internal.DefaultProject,
			},
			&cli.StringFlag{
				Name:  "docs-path",
				Usage: "Root of the Markdown docs tree",
				Value: "./docs",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob (relative to docs-path) of files or directories to skip; repeatable",
			},
			&cli.StringFlag{
				Name:  "vocabulary",
				Usage: "YAML file mapping component names to surface forms",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Parse and print a sample without writing to the graph",
			},
			&cli.BoolFlag{
				Name:  "no-reset",
				Usage: "Do not delete the project's existing nodes before writing",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Graph store backend: neo4j or sqlite",
				Value: "neo4j",
			},
			&cli.StringFlag{
				Name:    "neo4j-uri",
				Usage:   "Bolt URI of the graph database",
				Value:   "bolt://localhost:7687",
				Sources: cli.EnvVars("NEO4J_URI"),
			},
			&cli.StringFlag{
				Name:    "neo4j-user",
				Usage:   "Graph database username (empty for no auth)",
				Sources: cli.EnvVars("NEO4J_USER"),
			},
			&cli.StringFlag{
				Name:    "neo4j-password",
				Usage:   "Graph database password",
				Sources: cli.EnvVars("NEO4J_PASSWORD"),
			},
			&cli.StringFlag{
				Name:  "sqlite-path",
				Usage: "SQLite file used by the sqlite backend",
				Value: "./docgraph.db",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "Populate the graph, then repopulate whenever Markdown files change",
				Action: action(internal.Watch),
			},
			{
				Name:   "serve",
				Usage:  "Serve the parsed docs over a read-only HTTP API with live updates",
				Action: action(internal.Serve),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Usage:   "HTTP port",
						Value:   8080,
						Sources: cli.EnvVars("APP_HTTP_PORT"),
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the parsed docs to an MCP client over stdio",
				Action: action(internal.ServeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
