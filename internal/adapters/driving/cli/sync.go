package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

var (
	syncBranch string
	syncForce  bool
	syncAll    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [repo-url]",
	Short: "Synchronise documentation from repositories",
	Long: `Brings the vector index in line with a repository branch.
If a repository URL is provided, only that branch is synchronised.
Otherwise, every configured repository is synchronised.

A repository synced within the minimum interval is skipped unless
--force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync state of configured repositories",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	syncCmd.Flags().StringVarP(&syncBranch, "branch", "b", "", "branch to sync (default main)")
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "ignore the minimum sync interval")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync every configured repository")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncAll && len(args) > 0 {
		return errors.New("--all cannot be combined with a repository URL")
	}
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Sync == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()
	opts := driving.SyncOptions{Force: syncForce}

	if len(args) == 1 {
		cmd.Printf("Synchronising %s...\n", args[0])
		out, err := s.Sync.Sync(ctx, args[0], syncBranch, opts)
		if out.State != "" {
			printOutcome(cmd, out)
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		return nil
	}

	cmd.Println("Synchronising all repositories...")
	outcomes, err := s.Sync.SyncAll(ctx, opts)
	for _, out := range outcomes {
		printOutcome(cmd, out)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if len(outcomes) == 0 {
		cmd.Println("No repositories configured.")
	}
	return nil
}

func printOutcome(cmd *cobra.Command, out domain.SyncOutcome) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s\n", out.SourceID, out.Message())
	if out.State == domain.SyncCompleted {
		fmt.Fprintf(w, "  revision %s: %d ingested, %d removed, %d skipped\n",
			shortRevision(out.Revision), out.FilesIngested, out.FilesRemoved, out.FilesSkipped)
	}
	for _, f := range out.FailedFiles {
		fmt.Fprintf(w, "  failed: %s\n", f)
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Sync == nil {
		return errors.New("sync service not configured")
	}

	statuses, err := s.Sync.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read sync status: %w", err)
	}
	if len(statuses) == 0 {
		cmd.Println("No repositories configured.")
		return nil
	}

	p := newPrinter(cmd)
	for _, st := range statuses {
		p.heading(fmt.Sprintf("%s (%s)", st.Source.URL, st.Source.Branch))
		last := "never"
		if !st.LastSync.IsZero() {
			last = st.LastSync.Local().Format(time.DateTime)
		}
		fmt.Fprintf(p.w, "  Last sync: %s\n", last)
		if st.Revision != "" {
			fmt.Fprintf(p.w, "  Revision:  %s\n", st.Revision)
		}
		if st.Running {
			fmt.Fprintln(p.w, "  Running:   yes")
		}
		if n := len(st.FailedFiles); n > 0 {
			fmt.Fprintf(p.w, "  Pending:   %d failed files will be retried\n", n)
		}
		if st.LastOutcome != nil {
			fmt.Fprintf(p.w, "  Last run:  %s\n", st.LastOutcome.Message())
		}
		fmt.Fprintln(p.w)
	}
	return nil
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
