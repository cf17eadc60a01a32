package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	platformgrpc "github.com/louisbranch/swnsheet/internal/platform/grpc"
	"github.com/louisbranch/swnsheet/internal/platform/timeouts"
	"github.com/louisbranch/swnsheet/internal/services/mcp/domain"
	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "swnsheet"
	serverVersion = "0.1.0"
)

// Config describes the MCP runtime.
type Config struct {
	// APIBaseURL is the character service HTTP root.
	APIBaseURL string
	// CharacterGRPCAddr, when set, is polled until the character service
	// reports SERVING.
	CharacterGRPCAddr string
}

// Server binds the character tools to one MCP server. All tool calls share
// a single API client, so one MCP process edits one character.
type Server struct {
	mcpServer *mcp.Server
}

// New registers the character tools against c.
func New(c domain.CharacterClient) (*Server, error) {
	if c == nil {
		return nil, errors.New("character client is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, domain.GetCharacterTool(), domain.GetCharacterHandler(c))
	mcp.AddTool(mcpServer, domain.NewCharacterTool(), domain.NewCharacterHandler(c))
	mcp.AddTool(mcpServer, domain.RollAttributesTool(), domain.RollAttributesHandler(c))
	mcp.AddTool(mcpServer, domain.PinAttributeTool(), domain.PinAttributeHandler(c))
	mcp.AddTool(mcpServer, domain.SetNameTool(), domain.SetNameHandler(c))
	return &Server{mcpServer: mcpServer}, nil
}

// Run connects to the character service and serves tools on stdio.
func Run(ctx context.Context, cfg Config) error {
	return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
}

func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if addr := strings.TrimSpace(cfg.CharacterGRPCAddr); addr != "" {
		logf := func(format string, args ...any) {
			log.Printf("character %s", fmt.Sprintf(format, args...))
		}
		if err := platformgrpc.AwaitServing(ctx, addr, timeouts.HealthWait, logf); err != nil {
			return fmt.Errorf("wait for character service: %w", err)
		}
	}
	apiClient, err := client.New(cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("character api client: %w", err)
	}
	server, err := New(apiClient)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// Serve runs the MCP server on stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return errors.New("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log.Printf("mcp serving %s %s", serverName, serverVersion)
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
