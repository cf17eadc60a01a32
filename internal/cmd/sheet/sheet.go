// Package sheet parses sheet web flags and launches the browser surface.
package sheet

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/swnsheet/internal/platform/cmd"
	server "github.com/louisbranch/swnsheet/internal/services/sheet/app"
)

// Config holds sheet command configuration.
type Config struct {
	HTTPAddr          string        `env:"SWN_SHEET_HTTP_ADDR"           envDefault:"localhost:8080"`
	APIBaseURL        string        `env:"SWN_SHEET_API_BASE_URL"        envDefault:"http://localhost:8087"`
	CharacterGRPCAddr string        `env:"SWN_SHEET_CHARACTER_GRPC_ADDR" envDefault:"localhost:8088"`
	SecureCookies     bool          `env:"SWN_SHEET_SECURE_COOKIES"      envDefault:"false"`
	SessionIdle       time.Duration `env:"SWN_SHEET_SESSION_IDLE"        envDefault:"2h"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "Character service HTTP base URL")
	fs.StringVar(&cfg.CharacterGRPCAddr, "character-grpc-addr", cfg.CharacterGRPCAddr, "Character service gRPC health address (empty skips the wait)")
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", cfg.SecureCookies, "Mark session cookies Secure")
	fs.DurationVar(&cfg.SessionIdle, "session-idle", cfg.SessionIdle, "Drop browser sessions idle this long")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the sheet web server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSheet, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:          cfg.HTTPAddr,
			APIBaseURL:        cfg.APIBaseURL,
			CharacterGRPCAddr: cfg.CharacterGRPCAddr,
			SecureCookies:     cfg.SecureCookies,
			SessionIdle:       cfg.SessionIdle,
		})
	})
}
