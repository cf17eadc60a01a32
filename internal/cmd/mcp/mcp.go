// Package mcp parses MCP command flags and serves character tools on stdio.
package mcp

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/swnsheet/internal/platform/cmd"
	mcpservice "github.com/louisbranch/swnsheet/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	APIBaseURL        string `env:"SWN_SHEET_API_BASE_URL"        envDefault:"http://localhost:8087"`
	CharacterGRPCAddr string `env:"SWN_SHEET_CHARACTER_GRPC_ADDR" envDefault:"localhost:8088"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "Character service HTTP base URL")
	fs.StringVar(&cfg.CharacterGRPCAddr, "character-grpc-addr", cfg.CharacterGRPCAddr, "Character service gRPC health address (empty skips the wait)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			APIBaseURL:        cfg.APIBaseURL,
			CharacterGRPCAddr: cfg.CharacterGRPCAddr,
		})
	})
}
