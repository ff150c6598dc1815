package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Inspect indexed documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Print the stored content of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var removeCmd = &cobra.Command{
	Use:   "remove <doc-id>",
	Short: "Remove a document and its chunks from the index",
	Long: `Removes a document from the index. Removing a document that is not
indexed is not an error. Documents that still exist in a synced
repository come back on the next full sync.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(removeCmd)
}

type documentSummary struct {
	DocID        string    `json:"docId"`
	DocumentType string    `json:"documentType,omitempty"`
	Size         int       `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Documents == nil {
		return errors.New("document index not configured")
	}

	docs, err := s.Documents.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		out := make([]documentSummary, len(docs))
		for i, d := range docs {
			out[i] = documentSummary{
				DocID:        d.DocID,
				DocumentType: d.DocumentType,
				Size:         len(d.Content),
				CreatedAt:    d.CreatedAt,
				LastModified: d.LastModified,
			}
		}
		return printJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}
	w := cmd.OutOrStdout()
	for _, d := range docs {
		kind := d.DocumentType
		if kind == "" {
			kind = "repository"
		}
		fmt.Fprintf(w, "  %s\n", d.DocID)
		fmt.Fprintf(w, "    Type:     %s\n", kind)
		fmt.Fprintf(w, "    Size:     %d bytes\n", len(d.Content))
		if !d.LastModified.IsZero() {
			fmt.Fprintf(w, "    Modified: %s\n", d.LastModified.Local().Format(time.DateTime))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Documents == nil {
		return errors.New("document index not configured")
	}

	doc, err := s.Documents.Document(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), doc.Content)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Documents == nil {
		return errors.New("document index not configured")
	}

	if err := s.Documents.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	cmd.Printf("Removed %s from the index.\n", args[0])
	return nil
}
