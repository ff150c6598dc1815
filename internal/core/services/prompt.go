package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure PromptService implements the interface.
var _ driving.PromptBuilder = (*PromptService)(nil)

// PromptService builds prompts from retrieval results. No model is called.
type PromptService struct {
	retriever driving.Retriever
	prompts   driven.PromptStore
	log       *logger.Logger
}

// NewPromptService creates a prompt service. A nil store uses the
// built-in system prompt.
func NewPromptService(retriever driving.Retriever, prompts driven.PromptStore, log *logger.Logger) *PromptService {
	if log == nil {
		log = logger.Discard()
	}
	return &PromptService{retriever: retriever, prompts: prompts, log: log.With("prompt")}
}

// BuildPrompt retrieves context for question and assembles the prompt.
func (s *PromptService) BuildPrompt(
	ctx context.Context, question string, opts domain.RetrieveOptions,
) (domain.Prompt, error) {
	res, err := s.retriever.Retrieve(ctx, question, opts)
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("build prompt: %w", err)
	}

	system := domain.DefaultSystemPrompt
	if s.prompts != nil {
		loaded, err := s.prompts.Load(driven.PromptSystem)
		if err != nil {
			s.log.Warn("load system prompt: %v, using default", err)
		} else {
			system = loaded
		}
	}
	return BuildPrompt(system, question, res), nil
}

// BuildPrompt assembles the prompt for question from a retrieval result.
// An empty system prompt selects domain.DefaultSystemPrompt.
func BuildPrompt(system, question string, res domain.RetrievalResult) domain.Prompt {
	if strings.TrimSpace(system) == "" {
		system = domain.DefaultSystemPrompt
	}

	var sources []string
	if res.SourceFiles != "" {
		sources = strings.Split(res.SourceFiles, "\n")
	}

	return domain.Prompt{
		System:      system,
		User:        "Context:\n" + res.Context + "\n\nQuestion: " + strings.TrimSpace(question) + "\nAnswer:",
		SourceFiles: sources,
	}
}
