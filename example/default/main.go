package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/MartinSandstromRimsbo/DistroAV"
	_ "github.com/MartinSandstromRimsbo/DistroAV/plugin/debug"
	_ "github.com/MartinSandstromRimsbo/DistroAV/plugin/logrotate"
	_ "github.com/MartinSandstromRimsbo/DistroAV/plugin/ndi"
)

func main() {
	conf := flag.String("c", "config.yaml", "config file")
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := distroav.Run(ctx, *conf); err != nil {
		os.Exit(1)
	}
}
