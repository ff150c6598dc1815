package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Read component files from the repository",
	Long: `Reads well-known files straight from the configured repository at its
latest revision, without going through the index.`,
}

var filesComponentsListCmd = &cobra.Command{
	Use:   "components-list",
	Short: "Print the component list",
	Args:  cobra.NoArgs,
	RunE: filesRunner(func(ctx context.Context, f driving.RepositoryFiles, _ []string) (string, error) {
		return f.ComponentsList(ctx)
	}),
}

var filesStyleGuideCmd = &cobra.Command{
	Use:   "style-guide",
	Short: "Print the style guide",
	Args:  cobra.NoArgs,
	RunE: filesRunner(func(ctx context.Context, f driving.RepositoryFiles, _ []string) (string, error) {
		return f.StyleGuide(ctx)
	}),
}

var filesComponentCodeCmd = &cobra.Command{
	Use:   "component-code <category/slug>...",
	Short: "Print component source files",
	Args:  cobra.MinimumNArgs(1),
	RunE: filesRunner(func(ctx context.Context, f driving.RepositoryFiles, args []string) (string, error) {
		refs := make([]driving.ComponentRef, 0, len(args))
		for _, arg := range args {
			category, slug, ok := strings.Cut(arg, "/")
			if !ok || category == "" || slug == "" {
				return "", fmt.Errorf("%w: component %q must be category/slug", domain.ErrInvalidInput, arg)
			}
			refs = append(refs, driving.ComponentRef{Category: category, Slug: slug})
		}
		return f.ComponentCode(ctx, refs)
	}),
}

var filesComponentMetadataCmd = &cobra.Command{
	Use:   "component-metadata <name>...",
	Short: "Print component metadata files",
	Args:  cobra.MinimumNArgs(1),
	RunE: filesRunner(func(ctx context.Context, f driving.RepositoryFiles, args []string) (string, error) {
		return f.ComponentMetadata(ctx, args)
	}),
}

func init() {
	filesCmd.AddCommand(filesComponentsListCmd)
	filesCmd.AddCommand(filesStyleGuideCmd)
	filesCmd.AddCommand(filesComponentCodeCmd)
	filesCmd.AddCommand(filesComponentMetadataCmd)
	rootCmd.AddCommand(filesCmd)
}

type filesFunc func(ctx context.Context, f driving.RepositoryFiles, args []string) (string, error)

func filesRunner(fn filesFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := requireServices(cmd)
		if err != nil {
			return err
		}
		if s.Files == nil {
			return errors.New("no repository configured for files")
		}
		text, err := fn(cmd.Context(), s.Files, args)
		if err != nil {
			return fmt.Errorf("%s failed: %w", cmd.Name(), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
}
