package httpapi

import (
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

type retrieveRequest struct {
	Query                string             `json:"query"`
	MaxResults           *int               `json:"maxResults"`
	MinRelevanceScore    *float64           `json:"minRelevanceScore"`
	IncludeMetadata      *bool              `json:"includeMetadata"`
	FilterByChunkType    []domain.ChunkType `json:"filterByChunkType"`
	MaxContextLength     *int               `json:"maxContextLength"`
	IncludeFullDocuments *bool              `json:"includeFullDocuments"`
	Explain              bool               `json:"explain"`
}

// options overlays the request on the server defaults.
func (req retrieveRequest) options(base domain.RetrieveOptions) domain.RetrieveOptions {
	opts := base
	if req.MaxResults != nil {
		opts.MaxResults = *req.MaxResults
	}
	if req.MinRelevanceScore != nil {
		opts.MinRelevanceScore = *req.MinRelevanceScore
	}
	if req.IncludeMetadata != nil {
		opts.IncludeMetadata = *req.IncludeMetadata
	}
	if len(req.FilterByChunkType) > 0 {
		opts.FilterByChunkType = req.FilterByChunkType
	}
	if req.MaxContextLength != nil {
		opts.MaxContextLength = *req.MaxContextLength
	}
	if req.IncludeFullDocuments != nil {
		opts.IncludeFullDocuments = *req.IncludeFullDocuments
	}
	return opts
}

type retrieveResponse struct {
	domain.RetrievalResult
	Diagnostics *domain.Diagnostics `json:"diagnostics,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	if s.ports.Retriever == nil {
		notConfigured(w, "retrieval")
		return
	}
	var req retrieveRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := s.ports.Retriever.Retrieve(r.Context(), req.Query, req.options(s.cfg.Defaults))
	if err != nil {
		s.fail(w, r, "retrieval failed", err)
		return
	}
	out := retrieveResponse{RetrievalResult: res}
	if req.Explain {
		d, err := s.ports.Retriever.Diagnose(r.Context(), req.Query)
		if err != nil {
			s.fail(w, r, "retrieval failed", err)
			return
		}
		out.Diagnostics = &d
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if s.ports.Prompts == nil {
		notConfigured(w, "prompt builder")
		return
	}
	var req retrieveRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := s.ports.Prompts.BuildPrompt(r.Context(), req.Query, req.options(s.cfg.Defaults))
	if err != nil {
		s.fail(w, r, "prompt assembly failed", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type uploadRequest struct {
	Filename string `json:"filename"`
	// File is the base64-encoded file body.
	File string `json:"file"`
	// Content is a plain-text alternative to File.
	Content string `json:"content"`
}

// handleUpload accepts multipart/form-data with a "file" part, or JSON.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.ports.Ingestor == nil {
		notConfigured(w, "ingestion")
		return
	}

	var (
		data     []byte
		filename string
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
			return
		}
		filename = r.FormValue("filename")
		if filename == "" {
			filename = hdr.Filename
		}
	} else {
		var req uploadRequest
		// Base64 inflates the body by a third.
		if !decodeLimit(w, r, &req, s.cfg.MaxUploadBytes*4/3+maxJSONBodyBytes, false) {
			return
		}
		filename = req.Filename
		if req.File != "" {
			decoded, err := base64.StdEncoding.DecodeString(req.File)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid base64 file")
				return
			}
			data = decoded
		} else {
			data = []byte(req.Content)
		}
	}

	msg, err := s.ports.Ingestor.IngestUpload(r.Context(), data, filename)
	if err != nil {
		s.fail(w, r, "Failed to parse and ingest document", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type syncRequest struct {
	RepoURL string `json:"repoUrl"`
	Branch  string `json:"branch"`
	Force   bool   `json:"force"`
}

type outcomeView struct {
	Source        string   `json:"source"`
	State         string   `json:"state"`
	Message       string   `json:"message"`
	Revision      string   `json:"revision,omitempty"`
	FilesIngested int      `json:"filesIngested"`
	FilesRemoved  int      `json:"filesRemoved"`
	FilesSkipped  int      `json:"filesSkipped"`
	FailedFiles   []string `json:"failedFiles,omitempty"`
}

func viewOutcome(o domain.SyncOutcome) outcomeView {
	return outcomeView{
		Source:        o.SourceID,
		State:         string(o.State),
		Message:       o.Message(),
		Revision:      o.Revision,
		FilesIngested: o.FilesIngested,
		FilesRemoved:  o.FilesRemoved,
		FilesSkipped:  o.FilesSkipped,
		FailedFiles:   o.FailedFiles,
	}
}

type syncResponse struct {
	Message  string        `json:"message"`
	Outcomes []outcomeView `json:"outcomes"`
}

// handleSync syncs one repository, or every configured one when repoUrl
// is empty. Skips answer 200; failures answer 500 with "Sync failed".
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.ports.Sync == nil {
		notConfigured(w, "sync")
		return
	}
	var req syncRequest
	if !decodeLimit(w, r, &req, maxJSONBodyBytes, true) {
		return
	}
	opts := driving.SyncOptions{Force: req.Force}

	var (
		outcomes []domain.SyncOutcome
		err      error
	)
	if strings.TrimSpace(req.RepoURL) == "" {
		outcomes, err = s.ports.Sync.SyncAll(r.Context(), opts)
	} else {
		var o domain.SyncOutcome
		o, err = s.ports.Sync.Sync(r.Context(), req.RepoURL, req.Branch, opts)
		outcomes = []domain.SyncOutcome{o}
	}

	resp := syncResponse{Outcomes: make([]outcomeView, 0, len(outcomes))}
	for _, o := range outcomes {
		resp.Outcomes = append(resp.Outcomes, viewOutcome(o))
	}

	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error("sync: %v", err)
		resp.Message = domain.SyncOutcome{State: domain.SyncFailed}.Message()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	switch {
	case len(outcomes) == 0:
		resp.Message = "No repo configured"
	case len(outcomes) == 1:
		resp.Message = outcomes[0].Message()
	default:
		resp.Message = domain.SyncOutcome{State: domain.SyncCompleted}.Message()
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusView struct {
	Source      string       `json:"source"`
	Running     bool         `json:"running"`
	LastSync    *time.Time   `json:"lastSync,omitempty"`
	Revision    string       `json:"revision,omitempty"`
	FailedFiles []string     `json:"failedFiles,omitempty"`
	LastOutcome *outcomeView `json:"lastOutcome,omitempty"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if s.ports.Sync == nil {
		notConfigured(w, "sync")
		return
	}
	statuses, err := s.ports.Sync.Status(r.Context())
	if err != nil {
		s.fail(w, r, "status failed", err)
		return
	}
	out := make([]statusView, 0, len(statuses))
	for _, st := range statuses {
		v := statusView{
			Source:      st.Source.ID(),
			Running:     st.Running,
			Revision:    st.Revision,
			FailedFiles: st.FailedFiles,
		}
		if !st.LastSync.IsZero() {
			t := st.LastSync
			v.LastSync = &t
		}
		if st.LastOutcome != nil {
			o := viewOutcome(*st.LastOutcome)
			v.LastOutcome = &o
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

type documentView struct {
	DocID        string    `json:"docId"`
	DocumentType string    `json:"documentType,omitempty"`
	Size         int       `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
	Content      string    `json:"content,omitempty"`
}

func viewDocument(rec domain.DocumentRecord, withContent bool) documentView {
	v := documentView{
		DocID:        rec.DocID,
		DocumentType: rec.DocumentType,
		Size:         len(rec.Content),
		CreatedAt:    rec.CreatedAt,
		LastModified: rec.LastModified,
	}
	if withContent {
		v.Content = rec.Content
	}
	return v
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		notConfigured(w, "document index")
		return
	}
	recs, err := s.ports.Documents.Documents(r.Context())
	if err != nil {
		s.fail(w, r, "listing documents failed", err)
		return
	}
	out := make([]documentView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewDocument(rec, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		notConfigured(w, "document index")
		return
	}
	rec, err := s.ports.Documents.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "loading document failed", err)
		return
	}
	writeJSON(w, http.StatusOK, viewDocument(*rec, true))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		notConfigured(w, "document index")
		return
	}
	if err := s.ports.Documents.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "removing document failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contextResponse struct {
	Context string `json:"context"`
}

func (s *Server) handleComponentsList(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, func() (string, error) { return s.ports.Files.ComponentsList(r.Context()) })
}

func (s *Server) handleStyleGuide(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, func() (string, error) { return s.ports.Files.StyleGuide(r.Context()) })
}

func (s *Server) handleComponentCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Components []driving.ComponentRef `json:"components"`
	}
	if s.ports.Files != nil && !decode(w, r, &req) {
		return
	}
	s.serveFile(w, r, func() (string, error) { return s.ports.Files.ComponentCode(r.Context(), req.Components) })
}

func (s *Server) handleComponentMetadata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ComponentNames []string `json:"componentNames"`
	}
	if s.ports.Files != nil && !decode(w, r, &req) {
		return
	}
	s.serveFile(w, r, func() (string, error) { return s.ports.Files.ComponentMetadata(r.Context(), req.ComponentNames) })
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, fetch func() (string, error)) {
	if s.ports.Files == nil {
		notConfigured(w, "repository files")
		return
	}
	text, err := fetch()
	if err != nil {
		s.fail(w, r, "fetching repository files failed", err)
		return
	}
	writeJSON(w, http.StatusOK, contextResponse{Context: text})
}
