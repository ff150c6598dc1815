// Command docsync keeps repository documentation searchable for AI assistants.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/docsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsync/internal/app"
	"github.com/custodia-labs/docsync/internal/config"
	"github.com/custodia-labs/docsync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*cli.Services, error) {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s := &cli.Services{
		Config:    a.Config,
		Log:       a.Log,
		Retriever: a.Retriever,
		Prompts:   a.Prompts,
		Ingestor:  a.Ingest,
		Sync:      a.Sync,
		Documents: a.Store,
		Scheduler: a.Scheduler,
		Close:     a.Close,
	}
	// A nil *FileService must not become a non-nil interface.
	if a.Files != nil {
		s.Files = a.Files
	}
	return s, nil
}
