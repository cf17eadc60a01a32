// Package app wires the sheet runtime: session registry, HTMX handler, API
// proxy, and the optional wait on character service health.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/swnsheet/internal/platform/grpc"
	"github.com/louisbranch/swnsheet/internal/platform/httpx"
	"github.com/louisbranch/swnsheet/internal/platform/timeouts"
	"github.com/louisbranch/swnsheet/internal/services/sheet/web"
)

const (
	defaultSessionIdle   = 2 * time.Hour
	defaultSweepInterval = 10 * time.Minute
)

// Config describes the sheet runtime.
type Config struct {
	HTTPAddr string
	// APIBaseURL is the character service HTTP root, e.g. http://localhost:8087.
	APIBaseURL string
	// CharacterGRPCAddr, when set, is polled until the character service
	// reports SERVING.
	CharacterGRPCAddr string
	SecureCookies     bool
	SessionIdle       time.Duration
	SweepInterval     time.Duration
}

// Server hosts the sheet HTTP surface.
type Server struct {
	httpServer    *http.Server
	listener      net.Listener
	sessions      *web.SessionRegistry
	sessionIdle   time.Duration
	sweepInterval time.Duration
}

// New validates cfg, waits for the character service when configured, and
// binds the listener.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	apiTarget, err := parseAPIBaseURL(cfg.APIBaseURL)
	if err != nil {
		return nil, err
	}

	if addr := strings.TrimSpace(cfg.CharacterGRPCAddr); addr != "" {
		logf := func(format string, args ...any) {
			log.Printf("character %s", fmt.Sprintf(format, args...))
		}
		if err := grpc.AwaitServing(ctx, addr, timeouts.HealthWait, logf); err != nil {
			return nil, fmt.Errorf("wait for character service: %w", err)
		}
	}

	sessions, err := web.NewSessionRegistry(web.ClientBackendFactory(apiTarget.String()), cfg.SecureCookies)
	if err != nil {
		return nil, err
	}
	handler, err := web.NewHandler(sessions, apiTarget)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	s := &Server{
		listener:      listener,
		sessions:      sessions,
		sessionIdle:   cfg.SessionIdle,
		sweepInterval: cfg.SweepInterval,
		httpServer: &http.Server{
			Handler: httpx.Chain(handler,
				httpx.RecoverPanic(),
				httpx.RequestID("sheet"),
				httpx.Trace("swnsheet/sheet"),
				httpx.RequestLogger(),
			),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}
	if s.sessionIdle <= 0 {
		s.sessionIdle = defaultSessionIdle
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = defaultSweepInterval
	}
	return s, nil
}

func parseAPIBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", raw)
	}
	return target, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a sheet server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer server.Close()
	return server.ListenAndServe(ctx)
}

// ListenAndServe serves until ctx is canceled, sweeping idle sessions in the
// background.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("sheet server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sweep(sweepCtx)

	serveErr := make(chan error, 1)
	log.Printf("sheet listening on %s", s.listener.Addr())
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sessions.Sweep(s.sessionIdle); removed > 0 {
				log.Printf("sheet sessions swept=%d live=%d", removed, s.sessions.Len())
			}
		}
	}
}

// Close releases the listener.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}
