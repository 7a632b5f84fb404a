// Package main is the entry point for the tierctl CLI.
//
// tierctl provisions a three-tier web stack on AWS: a public web tier and a
// private API tier on ECS Fargate behind load balancers, and a PostgreSQL
// database whose connection secret is injected into the API tier.
//
// Commands: init, plan, graph, apply, destroy, outputs, version.
//
// For detailed usage information, run:
//
//	tierctl --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tierstack/tierstack/cmd/tierctl/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
