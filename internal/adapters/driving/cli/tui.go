package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for docsync.

The TUI lets you ask questions against the index, sync repositories and
browse or remove indexed documents with keyboard navigation.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Retrieve / Select
  Esc      - Back
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Retriever == nil {
		return errors.New("retrieval service not configured")
	}

	app, err := newTUIApp(s)
	if err != nil {
		return err
	}

	// The TUI is long-running, so repositories keep syncing behind it.
	if s.Scheduler != nil {
		schedulerCtx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			if err := s.Scheduler.Start(schedulerCtx); err != nil {
				s.logger().Warn("scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := s.Scheduler.Stop(); err != nil {
				s.logger().Warn("scheduler stop error: %v", err)
			}
		}()
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func newTUIApp(s *Services) (*tui.App, error) {
	app, err := tui.NewApp(&tui.Ports{
		Retriever: s.Retriever,
		Sync:      s.Sync,
		Documents: s.Documents,
		Defaults:  s.retrieveDefaults(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app, nil
}
