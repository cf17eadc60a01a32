// Package app wires the character service runtime: the /api HTTP surface,
// the gRPC health endpoint, and SQLite storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/louisbranch/swnsheet/internal/platform/httpx"
	"github.com/louisbranch/swnsheet/internal/platform/random"
	"github.com/louisbranch/swnsheet/internal/platform/timeouts"
	"github.com/louisbranch/swnsheet/internal/services/character/api/httpapi"
	"github.com/louisbranch/swnsheet/internal/services/character/service"
	"github.com/louisbranch/swnsheet/internal/services/character/storage"
	charactersqlite "github.com/louisbranch/swnsheet/internal/services/character/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the gRPC health service name reported for the API.
const HealthServiceName = "swnsheet.character.v1.CharacterAPI"

// Config describes the character runtime.
type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	DBPath        string
	SessionSecret string
	SecureCookies bool
	// Store overrides DBPath when set.
	Store storage.CharacterStore
	// Seed overrides crypto-random roll seeds when set.
	Seed random.SeedFunc
}

// Server hosts the character HTTP API and gRPC health lifecycle.
type Server struct {
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener
	health       *health.Server
	sqliteStore  *charactersqlite.Store
}

// New opens storage and binds both listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Server{}
	store := cfg.Store
	if store == nil {
		if strings.TrimSpace(cfg.DBPath) == "" {
			return nil, errors.New("db path is required")
		}
		sqliteStore, err := charactersqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open character sqlite store: %w", err)
		}
		s.sqliteStore = sqliteStore
		store = sqliteStore
	}

	sessions, err := httpapi.NewSessions(cfg.SessionSecret, cfg.SecureCookies)
	if err != nil {
		s.Close()
		return nil, err
	}
	api, err := httpapi.NewHandler(service.New(store, cfg.Seed), sessions)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	s.grpcListener, err = net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	s.httpServer = &http.Server{
		Handler:           newHandler(api),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	s.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(HealthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s, nil
}

func newHandler(api http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID("character"),
		httpx.Trace("swnsheet/character"),
		httpx.RequestLogger(),
	)
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a character server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both servers until ctx is canceled or either fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("character api listening at %v", s.httpListener.Addr())
	log.Printf("character health listening at %v", s.grpcListener.Addr())

	httpErr := make(chan error, 1)
	grpcErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	go func() {
		grpcErr <- s.grpcServer.Serve(s.grpcListener)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-httpErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-grpcErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

func (s *Server) shutdown() error {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.sqliteStore != nil {
		if err := s.sqliteStore.Close(); err != nil {
			log.Printf("close character store: %v", err)
		}
	}
}
