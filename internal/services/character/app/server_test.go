package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"path/filepath"
	"testing"
	"time"

	platformgrpc "github.com/louisbranch/swnsheet/internal/platform/grpc"
	"github.com/louisbranch/swnsheet/internal/platform/random"
	"github.com/louisbranch/swnsheet/internal/services/character/domain"
	"github.com/louisbranch/swnsheet/internal/services/character/storage/memory"
)

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	srv, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})
	return srv
}

func TestServerServesAPIAndHealth(t *testing.T) {
	srv := startServer(t, Config{
		HTTPAddr:      "127.0.0.1:0",
		GRPCAddr:      "127.0.0.1:0",
		DBPath:        filepath.Join(t.TempDir(), "data", "character.db"),
		SessionSecret: "test-secret",
		Seed:          random.Fixed(5),
	})

	if err := platformgrpc.AwaitServing(context.Background(), srv.GRPCAddr(), 5*time.Second, t.Logf); err != nil {
		t.Fatalf("await serving: %v", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 5 * time.Second}
	base := "http://" + srv.HTTPAddr()

	resp, err := client.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	rolled := getCharacter(t, client, base+"/api/roll-attributes")
	again := getCharacter(t, client, base+"/api/character")
	if again != rolled {
		t.Fatalf("character = %+v, want %+v", again, rolled)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(context.Background(), Config{
		HTTPAddr: "127.0.0.1:0",
		GRPCAddr: "127.0.0.1:0",
		Store:    memory.New(),
	})
	if err == nil {
		t.Fatal("expected session secret error")
	}
}

func TestNewRequiresStorage(t *testing.T) {
	_, err := New(context.Background(), Config{SessionSecret: "s"})
	if err == nil {
		t.Fatal("expected db path error")
	}
}

func getCharacter(t *testing.T, client *http.Client, url string) domain.Character {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s status = %d", url, resp.StatusCode)
	}
	var character domain.Character
	if err := json.NewDecoder(resp.Body).Decode(&character); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return character
}
