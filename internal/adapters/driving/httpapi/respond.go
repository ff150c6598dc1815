package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrNoText):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrVectorIndexUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server-side failures are logged
// and answered with generic text.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, generic string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, code, generic)
		return
	}
	writeError(w, code, err.Error())
}

// decode reads a JSON body of at most maxJSONBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeLimit(w, r, v, maxJSONBodyBytes, false)
}

// decodeLimit reads a JSON body of at most limit bytes into v. With
// optional set, an empty body leaves v untouched.
func decodeLimit(w http.ResponseWriter, r *http.Request, v any, limit int64, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func notConfigured(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotImplemented, what+" not configured")
}
