// Package cli provides the docsync command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/config"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Services are the core services driven by the commands. Optional
// services may be nil; commands that need them report so.
type Services struct {
	Config    *config.Config
	Log       *logger.Logger
	Retriever driving.Retriever
	Prompts   driving.PromptBuilder
	Ingestor  driving.Ingestor
	Sync      driving.SyncCoordinator
	Documents driving.DocumentIndex
	Files     driving.RepositoryFiles
	Scheduler driving.Scheduler

	// Close releases the services. May be nil.
	Close func() error
}

// Bootstrap builds the services from a loaded configuration.
type Bootstrap func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Services, error)

var (
	version = "dev"

	cfgPath string
	verbose bool

	bootstrap Bootstrap

	// svc is built on first use by requireServices. Tests assign it directly.
	svc *Services

	// ownedSvc reports whether svc was built by bootstrap and must be closed.
	ownedSvc bool
)

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "Keep repository documentation searchable for AI assistants",
	Long: `docsync mirrors documentation from GitHub repositories into a vector
index and retrieves bounded, deduplicated context for questions.

Run "docsync sync" to index the configured repositories, then
"docsync retrieve <question>" or "docsync serve" to answer queries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.docsync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetBootstrap sets the function that builds services for commands.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by "docsync version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and closes any services it built.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeServices(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}

func newLogger(cmd *cobra.Command) *logger.Logger {
	return logger.New(cmd.ErrOrStderr(), verbose)
}

// requireServices returns the services, bootstrapping them on first use.
func requireServices(cmd *cobra.Command) (*Services, error) {
	if svc != nil {
		return svc, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s, err := bootstrap(cmd.Context(), cfg, newLogger(cmd))
	if err != nil {
		return nil, fmt.Errorf("starting docsync: %w", err)
	}
	svc, ownedSvc = s, true
	return svc, nil
}

func closeServices() error {
	if svc == nil || !ownedSvc {
		return nil
	}
	s := svc
	svc, ownedSvc = nil, false
	if s.Close == nil {
		return nil
	}
	return s.Close()
}

// retrieveDefaults returns the configured retrieval options.
func (s *Services) retrieveDefaults() domain.RetrieveOptions {
	if s.Config == nil {
		return domain.DefaultRetrieveOptions()
	}
	return s.Config.RetrieveOptions()
}

func (s *Services) logger() *logger.Logger {
	if s.Log == nil {
		return logger.Discard()
	}
	return s.Log
}
