package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsync/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docsync/internal/adapters/driving/watcher"
)

var (
	serveAddr        string
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with background sync",
	Long: `Starts the HTTP API and the sync scheduler. When [server] uploads_dir
is set, files dropped into it are ingested as well.

The server stops gracefully on interrupt.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default [server] addr)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "do not sync in the background")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Retriever == nil {
		return errors.New("retrieval service not configured")
	}

	cfg := httpapi.Config{Addr: serveAddr, Defaults: s.retrieveDefaults()}
	if s.Config != nil {
		if cfg.Addr == "" {
			cfg.Addr = s.Config.Server.Addr
		}
		cfg.Token = s.Config.Server.Token
	}
	if cfg.Addr == "" {
		return errors.New("no listen address: use --addr or set [server] addr")
	}

	server := httpapi.NewServer(httpapi.Ports{
		Retriever: s.Retriever,
		Prompts:   s.Prompts,
		Ingestor:  s.Ingestor,
		Sync:      s.Sync,
		Documents: s.Documents,
		Files:     s.Files,
	}, cfg, s.logger())

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx)
	})

	if s.Scheduler != nil && !serveNoScheduler {
		g.Go(func() error {
			if err := s.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return s.Scheduler.Stop()
		})
	}

	if s.Config != nil && s.Config.Server.UploadsDir != "" && s.Ingestor != nil {
		w := watcher.New(s.Config.Server.UploadsDir, s.Ingestor, s.Documents, s.logger())
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	cmd.Printf("docsync API listening on http://%s\n", cfg.Addr)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
