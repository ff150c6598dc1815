package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/adapters/driving/watcher"
)

var (
	ingestWatch bool
	ingestDir   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a local file",
	Long: `Indexes a local Markdown, text or PDF file under its base name.
Re-ingesting a file with the same name replaces its previous chunks.

With --watch, files dropped into a directory are indexed as they appear
and removed from the index when deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch a directory for dropped files")
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory to watch (default [server] uploads_dir)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestWatch == (len(args) == 1) {
		return errors.New("provide a file to ingest, or --watch")
	}
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Ingestor == nil {
		return errors.New("ingest service not configured")
	}

	if ingestWatch {
		return runWatch(cmd, s)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	msg, err := s.Ingestor.IngestUpload(cmd.Context(), data, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Println(msg)
	return nil
}

func runWatch(cmd *cobra.Command, s *Services) error {
	dir := ingestDir
	if dir == "" && s.Config != nil {
		dir = s.Config.Server.UploadsDir
	}
	if dir == "" {
		return errors.New("no directory to watch: use --dir or set [server] uploads_dir")
	}

	w := watcher.New(dir, s.Ingestor, s.Documents, s.logger())
	w.IngestExisting = true
	cmd.Printf("Watching %s for documents (Ctrl+C to stop)\n", dir)
	return w.Run(cmd.Context())
}
