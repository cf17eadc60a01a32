// Package character parses character service flags and launches the service.
package character

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/swnsheet/internal/platform/cmd"
	server "github.com/louisbranch/swnsheet/internal/services/character/app"
)

// Config holds character command configuration.
type Config struct {
	HTTPAddr      string `env:"SWN_SHEET_CHARACTER_HTTP_ADDR" envDefault:"localhost:8087"`
	GRPCAddr      string `env:"SWN_SHEET_CHARACTER_GRPC_ADDR" envDefault:"localhost:8088"`
	DBPath        string `env:"SWN_SHEET_CHARACTER_DB_PATH"   envDefault:"data/character.db"`
	SessionSecret string `env:"SWN_SHEET_SESSION_SECRET"`
	SecureCookies bool   `env:"SWN_SHEET_SECURE_COOKIES"      envDefault:"false"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP API listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", cfg.SecureCookies, "Mark session cookies Secure")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the character API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCharacter, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:      cfg.HTTPAddr,
			GRPCAddr:      cfg.GRPCAddr,
			DBPath:        cfg.DBPath,
			SessionSecret: cfg.SessionSecret,
			SecureCookies: cfg.SecureCookies,
		})
	})
}
