package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is returned by the root and health endpoints.
type StatusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("encode response")
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Detail:    detail,
		Timestamp: s.timestamp(),
	})
}

// respondFailure maps an engine error to a status code. Store and analyzer
// outages are 503, invalid input 400, everything else 500.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, what string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internalerr.ErrStoreUnavailable), errors.Is(err, internalerr.ErrAnalyzerUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, internalerr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		status = http.StatusNotFound
	}
	s.log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg(what + " failed")
	s.respondError(w, status, what+" failed: "+err.Error())
}
