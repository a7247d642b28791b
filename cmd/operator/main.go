// Package main starts the oracle operator process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	operatorcmd "github.com/skysurety/skysurety/internal/cmd/operator"
)

func main() {
	cfg, err := operatorcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[OPERATOR] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := operatorcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to run operator: %v", err)
	}
}
