package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/EgorLis/filedrop/internal/app"
)

var cli struct {
	Port string `help:"Listen address override, e.g. :8080." default:""`
}

func main() {
	kong.Parse(&cli,
		kong.Name("filedrop"),
		kong.Description("Ephemeral blob store: upload a file, share the link, let it expire."))

	if cli.Port != "" {
		os.Setenv("APP_PORT", cli.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}
