package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve_context and build_prompt tools.
type RetrieveInput struct {
	Query                string   `json:"query" jsonschema:"the question or keywords to retrieve documentation for"`
	MaxResults           int      `json:"max_results,omitempty" jsonschema:"maximum number of chunks to consider (default 5)"`
	MinRelevanceScore    *float64 `json:"min_relevance_score,omitempty" jsonschema:"minimum relevance score between 0 and 1 (default 0.3)"`
	ChunkTypes           []string `json:"chunk_types,omitempty" jsonschema:"restrict to chunk types: paragraph, section, code, list"`
	MaxContextLength     int      `json:"max_context_length,omitempty" jsonschema:"maximum context length in characters (default 4000)"`
	IncludeMetadata      bool     `json:"include_metadata,omitempty" jsonschema:"prefix each chunk with its document, type and score"`
	IncludeFullDocuments *bool    `json:"include_full_documents,omitempty" jsonschema:"return whole matched documents instead of chunks (default true)"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Context     string   `json:"context"`
	SourceFiles []string `json:"source_files"`
}

// PromptOutput is the output schema for the build_prompt tool.
type PromptOutput struct {
	System      string `json:"system"`
	User        string `json:"user"`
	SourceFiles string `json:"source_files"`
}

// SyncInput is the input schema for the sync_docs tool.
type SyncInput struct {
	RepoURL string `json:"repo_url,omitempty" jsonschema:"repository URL; empty syncs every configured repository"`
	Branch  string `json:"branch,omitempty" jsonschema:"branch to sync (default main)"`
	Force   bool   `json:"force,omitempty" jsonschema:"ignore the minimum interval between syncs"`
}

// SyncOutput is the output schema for the sync_docs tool.
type SyncOutput struct {
	Message  string          `json:"message"`
	Outcomes []OutcomeOutput `json:"outcomes"`
}

// OutcomeOutput reports one sync pass.
type OutcomeOutput struct {
	Source        string   `json:"source"`
	State         string   `json:"state"`
	Message       string   `json:"message"`
	Revision      string   `json:"revision,omitempty"`
	FilesIngested int      `json:"files_ingested"`
	FilesRemoved  int      `json:"files_removed"`
	FailedFiles   []string `json:"failed_files,omitempty"`
}

// StatusOutput is the output schema for the sync_status tool.
type StatusOutput struct {
	Sources []SourceStatusOutput `json:"sources"`
}

// SourceStatusOutput reports the state of one repository branch.
type SourceStatusOutput struct {
	Source      string   `json:"source"`
	Running     bool     `json:"running"`
	LastSync    string   `json:"last_sync,omitempty"`
	Revision    string   `json:"revision,omitempty"`
	FailedFiles []string `json:"failed_files,omitempty"`
}

// ComponentCodeInput is the input schema for the component_code tool.
type ComponentCodeInput struct {
	Components []driving.ComponentRef `json:"components" jsonschema:"components to fetch, each with category and slug"`
}

// ComponentMetadataInput is the input schema for the component_metadata tool.
type ComponentMetadataInput struct {
	ComponentNames []string `json:"component_names" jsonschema:"component names as listed in the catalogue"`
}

// FileOutput is the output schema of the repository file tools.
type FileOutput struct {
	Context string `json:"context"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve documentation context relevant to a question",
	}, s.handleRetrieve)

	if s.ports.Prompts != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "build_prompt",
			Description: "Build a system and user prompt grounded in retrieved documentation",
		}, s.handleBuildPrompt)
	}

	if s.ports.Sync != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync_docs",
			Description: "Sync documentation from a GitHub repository into the index",
		}, s.handleSync)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync_status",
			Description: "Report the sync state of every configured repository",
		}, s.handleSyncStatus)
	}

	if s.ports.Files != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "components_list",
			Description: "Return the component catalogue of the repository",
		}, s.handleComponentsList)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "style_guide",
			Description: "Return the styling configuration of the repository",
		}, s.handleStyleGuide)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "component_code",
			Description: "Return the markup of the given components",
		}, s.handleComponentCode)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "component_metadata",
			Description: "Return the documentation pages of the named components",
		}, s.handleComponentMetadata)
	}
}

// options overlays the tool input on the server defaults.
func (s *Server) options(input RetrieveInput) (domain.RetrieveOptions, error) {
	opts := s.ports.Defaults
	if input.MaxResults > 0 {
		opts.MaxResults = input.MaxResults
	}
	if input.MinRelevanceScore != nil {
		opts.MinRelevanceScore = *input.MinRelevanceScore
	}
	if input.MaxContextLength > 0 {
		opts.MaxContextLength = input.MaxContextLength
	}
	if input.IncludeFullDocuments != nil {
		opts.IncludeFullDocuments = *input.IncludeFullDocuments
	}
	opts.IncludeMetadata = opts.IncludeMetadata || input.IncludeMetadata
	if len(input.ChunkTypes) > 0 {
		opts.FilterByChunkType = make([]domain.ChunkType, 0, len(input.ChunkTypes))
		for _, raw := range input.ChunkTypes {
			ct, err := domain.ParseChunkType(raw)
			if err != nil {
				return opts, err
			}
			opts.FilterByChunkType = append(opts.FilterByChunkType, ct)
		}
	}
	return opts, nil
}

// handleRetrieve handles the retrieve_context tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	opts, err := s.options(input)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	res, err := s.ports.Retriever.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	return nil, RetrieveOutput{
		Context:     res.Context,
		SourceFiles: res.Sources(),
	}, nil
}

// handleBuildPrompt handles the build_prompt tool invocation.
func (s *Server) handleBuildPrompt(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, PromptOutput, error) {
	opts, err := s.options(input)
	if err != nil {
		return nil, PromptOutput{}, err
	}
	p, err := s.ports.Prompts.BuildPrompt(ctx, input.Query, opts)
	if err != nil {
		return nil, PromptOutput{}, err
	}
	return nil, PromptOutput{System: p.System, User: p.User, SourceFiles: strings.Join(p.SourceFiles, "\n")}, nil
}

func outcomeOutput(o domain.SyncOutcome) OutcomeOutput {
	return OutcomeOutput{
		Source:        o.SourceID,
		State:         string(o.State),
		Message:       o.Message(),
		Revision:      o.Revision,
		FilesIngested: o.FilesIngested,
		FilesRemoved:  o.FilesRemoved,
		FailedFiles:   o.FailedFiles,
	}
}

// handleSync handles the sync_docs tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	opts := driving.SyncOptions{Force: input.Force}

	var out SyncOutput
	if input.RepoURL == "" {
		outcomes, err := s.ports.Sync.SyncAll(ctx, opts)
		if err != nil {
			return nil, SyncOutput{}, err
		}
		out.Message = fmt.Sprintf("Synced %d repositories", len(outcomes))
		for _, o := range outcomes {
			out.Outcomes = append(out.Outcomes, outcomeOutput(o))
		}
		return nil, out, nil
	}

	o, err := s.ports.Sync.Sync(ctx, input.RepoURL, input.Branch, opts)
	if err != nil {
		return nil, SyncOutput{}, err
	}
	out.Message = o.Message()
	out.Outcomes = []OutcomeOutput{outcomeOutput(o)}
	return nil, out, nil
}

// handleSyncStatus handles the sync_status tool invocation.
func (s *Server) handleSyncStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatusOutput, error) {
	statuses, err := s.ports.Sync.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	out := StatusOutput{Sources: make([]SourceStatusOutput, len(statuses))}
	for i, st := range statuses {
		out.Sources[i] = SourceStatusOutput{
			Source:      st.Source.ID(),
			Running:     st.Running,
			Revision:    st.Revision,
			FailedFiles: st.FailedFiles,
		}
		if !st.LastSync.IsZero() {
			out.Sources[i].LastSync = st.LastSync.UTC().Format(time.RFC3339)
		}
	}
	return nil, out, nil
}

func (s *Server) handleComponentsList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, FileOutput, error) {
	return fileResult(s.ports.Files.ComponentsList(ctx))
}

func (s *Server) handleStyleGuide(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, FileOutput, error) {
	return fileResult(s.ports.Files.StyleGuide(ctx))
}

func (s *Server) handleComponentCode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ComponentCodeInput,
) (*mcp.CallToolResult, FileOutput, error) {
	if len(input.Components) == 0 {
		return nil, FileOutput{}, fmt.Errorf("%w: components are required", domain.ErrInvalidInput)
	}
	return fileResult(s.ports.Files.ComponentCode(ctx, input.Components))
}

func (s *Server) handleComponentMetadata(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ComponentMetadataInput,
) (*mcp.CallToolResult, FileOutput, error) {
	if len(input.ComponentNames) == 0 {
		return nil, FileOutput{}, fmt.Errorf("%w: component_names are required", domain.ErrInvalidInput)
	}
	return fileResult(s.ports.Files.ComponentMetadata(ctx, input.ComponentNames))
}

func fileResult(text string, err error) (*mcp.CallToolResult, FileOutput, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, FileOutput{}, fmt.Errorf("file not found in repository: %w", err)
	}
	if err != nil {
		return nil, FileOutput{}, err
	}
	return nil, FileOutput{Context: text}, nil
}
