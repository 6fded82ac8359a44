package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/taproom/internal"
	"github.com/starford/taproom/internal/auth"
	pkgconfig "github.com/starford/taproom/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
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

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func createUser(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.CreateUser(ctx, cfg, auth.NewUser{
		Email:    cmd.String("email"),
		Name:     cmd.String("name"),
		Password: cmd.String("password"),
		Role:     cmd.String("role"),
	})
}

func main() {
	cmd := &cli.Command{
		Name:   "taproom",
		Usage:  "Content management for a bar: pages built from blocks, menu, staff and images",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve page builder tools over MCP on stdio",
				Action: mcp,
			},
			{
				Name:  "admin",
				Usage: "Manage accounts",
				Commands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create an account",
						Action: createUser,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "email", Required: true, Usage: "Sign-in email"},
							&cli.StringFlag{Name: "name", Usage: "Display name"},
							&cli.StringFlag{Name: "password", Required: true, Usage: "Password (at least 8 characters)", Sources: cli.EnvVars("TAPROOM_ADMIN_PASSWORD")},
							&cli.StringFlag{Name: "role", Value: "admin", Usage: "admin or viewer"},
						},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
