// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"coderefine/internal/adapters/observability"
	"coderefine/internal/domain"
)

// Service is the orchestrator surface the handlers need.
type Service interface {
	Review(ctx context.Context, code string) (domain.ReviewResult, error)
	Translate(ctx context.Context, code, targetLanguage string) domain.TranslateResult
}

type Handlers struct {
	S            Service
	MaxBodyBytes int64 // <= 0 means 1 MiB
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/review", h.review)
	s.mux.Post("/translate", h.translate)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// decodeBody writes the problem response itself and returns false on failure.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		// exactly one JSON value; anything after it is rejected
		if extra := dec.Decode(&struct{}{}); extra != io.EOF {
			err = extra
			if err == nil {
				err = errors.New("trailing data after JSON value")
			}
		}
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "request body exceeds limit")
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", "request body must be a single JSON object")
		return false
	}
	return true
}

// errKind labels a failure by the domain error it wraps.
func errKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	case errors.Is(err, domain.ErrEmptyCompletion):
		return "empty_completion"
	case errors.Is(err, domain.ErrInvalidOutput):
		return "invalid_output"
	default:
		return observability.LabelErr(err)
	}
}

func missing(w http.ResponseWriter, field string) {
	writeProblem(w, http.StatusUnprocessableEntity, "Validation Error", field+": field required")
}

func (h *Handlers) review(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Code == nil {
		missing(w, "code")
		return
	}

	res, err := h.S.Review(r.Context(), *req.Code)
	if err != nil {
		log.Error().Err(err).
			Str("err_type", errKind(err)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("review failed")
		writeProblem(w, http.StatusInternalServerError, "Review Failed", err.Error())
		return
	}
	writeJSON(w, res)
}

// translate answers 200 for every well-formed request; failures are embedded in translated_code.
func (h *Handlers) translate(w http.ResponseWriter, r *http.Request) {
	var req domain.TranslateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Code == nil {
		missing(w, "code")
		return
	}
	if req.TargetLanguage == nil {
		missing(w, "target_language")
		return
	}
	writeJSON(w, h.S.Translate(r.Context(), *req.Code, *req.TargetLanguage))
}
