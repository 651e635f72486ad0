package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	crewdcmd "github.com/tylergberg/crew-core/internal/cmd/crewd"
)

func main() {
	cfg, err := crewdcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[CREWD] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := crewdcmd.Run(ctx, cfg, os.Stdin, log.Default()); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}
