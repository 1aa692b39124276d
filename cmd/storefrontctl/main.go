// Package main runs storefront maintenance commands.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/storefront/internal/cmd/storefrontctl"
	"github.com/louisbranch/storefront/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := storefrontctl.Execute(ctx, os.Args[1:])
	stop()
	config.ExitOnError("storefrontctl", err)
}
