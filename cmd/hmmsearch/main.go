// Command hmmsearch searches profile HMMs against sequence databases.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	// stdout carries results
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}
