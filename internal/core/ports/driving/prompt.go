package driving

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// PromptBuilder assembles answer-model prompts from retrieved context.
type PromptBuilder interface {
	// BuildPrompt retrieves context for question and returns the prompt.
	BuildPrompt(ctx context.Context, question string, opts domain.RetrieveOptions) (domain.Prompt, error)
}
