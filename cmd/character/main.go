// Package main starts the character API and its health endpoint.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	charactercmd "github.com/louisbranch/swnsheet/internal/cmd/character"
)

func main() {
	cfg, err := charactercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[CHARACTER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := charactercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve character API: %v", err)
	}
}
