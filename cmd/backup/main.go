package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/semmidev/mongovault/internal/app"
	"github.com/semmidev/mongovault/internal/config"
	"github.com/semmidev/mongovault/internal/domain"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, domain.ErrNoProjects) {
			os.Exit(0)
		}
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	projectsDir := flag.String("projects", "./projects", "directory with one file per project")
	envFile := flag.String("env", ".env", "optional env file with common settings")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cfg, *projectsDir)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return application.Run(ctx)
}
