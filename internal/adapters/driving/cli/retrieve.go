package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

var (
	retrieveMaxResults int
	retrieveMinScore   float64
	retrieveChunkTypes string
	retrieveFull       bool
	retrieveChunks     bool
	retrieveMaxContext int
	retrieveMetadata   bool
	retrieveJSON       bool
	retrieveExplain    bool

	promptJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Retrieve documentation context for a question",
	Long: `Searches the vector index and prints the context assembled for a question,
followed by the files it came from.

By default whole documents are returned; --chunks packs the best matching
chunks into the context budget instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

var promptCmd = &cobra.Command{
	Use:   "prompt <query>",
	Short: "Build the full prompt for a question",
	Long: `Retrieves context for a question and prints the system and user prompt
an assistant would be sent. Prompts are read from the prompts directory
and can be edited there.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrompt,
}

func init() {
	f := retrieveCmd.Flags()
	f.IntVarP(&retrieveMaxResults, "max-results", "n", 0, "maximum number of chunks to consider")
	f.Float64Var(&retrieveMinScore, "min-score", 0, "minimum relevance score (0-1)")
	f.StringVar(&retrieveChunkTypes, "chunk-type", "", "comma-separated chunk types: paragraph,section,code,list")
	f.BoolVar(&retrieveFull, "full", false, "return whole documents")
	f.BoolVar(&retrieveChunks, "chunks", false, "return packed chunks instead of whole documents")
	f.IntVar(&retrieveMaxContext, "max-context", 0, "context budget in characters")
	f.BoolVar(&retrieveMetadata, "metadata", false, "prefix chunks with file, type and score")
	f.BoolVar(&retrieveJSON, "json", false, "output as JSON")
	f.BoolVar(&retrieveExplain, "explain", false, "show score and chunk type diagnostics")
	retrieveCmd.MarkFlagsMutuallyExclusive("full", "chunks")
	rootCmd.AddCommand(retrieveCmd)

	promptCmd.Flags().BoolVar(&promptJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(promptCmd)
}

// retrieveOptions overlays the flags that were set on the configured defaults.
func retrieveOptions(cmd *cobra.Command, base domain.RetrieveOptions) (domain.RetrieveOptions, error) {
	opts := base
	f := cmd.Flags()
	if f.Changed("max-results") {
		opts.MaxResults = retrieveMaxResults
	}
	if f.Changed("min-score") {
		opts.MinRelevanceScore = retrieveMinScore
	}
	if f.Changed("max-context") {
		opts.MaxContextLength = retrieveMaxContext
	}
	if f.Changed("metadata") {
		opts.IncludeMetadata = retrieveMetadata
	}
	if retrieveFull {
		opts.IncludeFullDocuments = true
	}
	if retrieveChunks {
		opts.IncludeFullDocuments = false
	}
	if retrieveChunkTypes != "" {
		opts.FilterByChunkType = nil
		for _, raw := range strings.Split(retrieveChunkTypes, ",") {
			if raw = strings.TrimSpace(raw); raw == "" {
				continue
			}
			t, err := domain.ParseChunkType(raw)
			if err != nil {
				return opts, err
			}
			opts.FilterByChunkType = append(opts.FilterByChunkType, t)
		}
	}
	return opts, nil
}

type retrieveOutput struct {
	domain.RetrievalResult
	Diagnostics *domain.Diagnostics `json:"diagnostics,omitempty"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Retriever == nil {
		return errors.New("retrieval service not configured")
	}
	opts, err := retrieveOptions(cmd, s.retrieveDefaults())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	query := strings.Join(args, " ")
	res, err := s.Retriever.Retrieve(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	out := retrieveOutput{RetrievalResult: res}
	if retrieveExplain {
		d, err := s.Retriever.Diagnose(ctx, query)
		if err != nil {
			return fmt.Errorf("diagnose failed: %w", err)
		}
		out.Diagnostics = &d
	}

	if retrieveJSON {
		return printJSON(cmd, out)
	}

	p := newPrinter(cmd)
	if res.Context == "" {
		fmt.Fprintln(p.w, "No relevant documentation found.")
	} else {
		p.context(res.Context)
		fmt.Fprintln(p.w)
		p.heading("Sources:")
		for _, src := range res.Sources() {
			fmt.Fprintf(p.w, "  - %s\n", src)
		}
	}
	if out.Diagnostics != nil {
		fmt.Fprintln(p.w)
		printDiagnostics(p, *out.Diagnostics)
	}
	return nil
}

func printDiagnostics(p *printer, d domain.Diagnostics) {
	p.heading("Diagnostics:")
	fmt.Fprintf(p.w, "  Normalised query: %q\n", d.NormalizedQuery)
	fmt.Fprintf(p.w, "  Sampled hits:     %d from %d documents\n", d.Sampled, d.Documents)
	fmt.Fprintf(p.w, "  Scores:           mean %.3f, min %.3f, max %.3f\n", d.MeanScore, d.MinScore, d.MaxScore)

	types := make([]string, 0, len(d.ChunkTypes))
	for t, n := range d.ChunkTypes {
		types = append(types, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(types)
	fmt.Fprintf(p.w, "  Chunk types:      %s\n", strings.Join(types, " "))

	docTypes := make([]string, 0, len(d.DocumentTypes))
	for t, n := range d.DocumentTypes {
		docTypes = append(docTypes, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(docTypes)
	fmt.Fprintf(p.w, "  Document types:   %s\n", strings.Join(docTypes, " "))
}

func runPrompt(cmd *cobra.Command, args []string) error {
	s, err := requireServices(cmd)
	if err != nil {
		return err
	}
	if s.Prompts == nil {
		return errors.New("prompt service not configured")
	}

	prompt, err := s.Prompts.BuildPrompt(cmd.Context(), strings.Join(args, " "), s.retrieveDefaults())
	if err != nil {
		return fmt.Errorf("building prompt failed: %w", err)
	}
	if promptJSON {
		return printJSON(cmd, prompt)
	}

	p := newPrinter(cmd)
	p.heading("System:")
	fmt.Fprintln(p.w, prompt.System)
	fmt.Fprintln(p.w)
	p.heading("User:")
	fmt.Fprintln(p.w, prompt.User)
	return nil
}
