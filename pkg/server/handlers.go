package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vennkit/vennkit/pkg/diagram"
	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/pipeline"
	"github.com/vennkit/vennkit/pkg/renderer"
)

// renderRequest is the body of POST /api/render.
type renderRequest struct {
	Diagrams diagram.Batch    `json:"diagrams"`
	Options  pipeline.Options `json:"options"`
}

// renderResponse is the reply: one settled entry per input diagram, in
// input order, plus batch-level info.
type renderResponse struct {
	BatchHash string          `json:"batch_hash"`
	Results   []renderedEntry `json:"results"`
	Rejected  int             `json:"rejected"`
	Cached    bool            `json:"cached"`
}

type renderedEntry struct {
	Status string  `json:"status"` // "fulfilled" or "rejected"
	ID     string  `json:"id,omitempty"`
	SVG    string  `json:"svg,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	// Screenshot is base64-encoded PNG bytes when screenshots were
	// requested.
	Screenshot []byte      `json:"screenshot,omitempty"`
	Error      *entryError `json:"error,omitempty"`
}

type entryError struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidFormat, "malformed request body")
		return
	}
	if len(req.Diagrams) == 0 {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "no diagrams in request")
		return
	}
	if len(req.Diagrams) > s.cfg.MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput,
			"batch exceeds maximum size")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.runner.Execute(ctx, req.Diagrams, req.Options)
	if err != nil {
		status := http.StatusInternalServerError
		switch errors.GetCode(err) {
		case errors.ErrCodeInvalidDiagram, errors.ErrCodeInvalidInput,
			errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig:
			status = http.StatusBadRequest
		case errors.ErrCodeTimeout:
			status = http.StatusGatewayTimeout
		}
		s.log.Error("render failed", "error", err)
		writeError(w, status, errors.GetCode(err), errors.UserMessage(err))
		return
	}

	resp := renderResponse{
		BatchHash: result.BatchHash,
		Results:   make([]renderedEntry, len(result.Outcomes)),
		Rejected:  result.Stats.Rejected,
		Cached:    result.CacheInfo.FullHit,
	}
	for i, o := range result.Outcomes {
		resp.Results[i] = toEntry(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// toEntry maps a settled outcome onto its wire form. Layout errors keep
// their in-page identity; other rejections collapse to a message.
func toEntry(o renderer.Outcome) renderedEntry {
	if o.Fulfilled() {
		return renderedEntry{
			Status:     "fulfilled",
			ID:         o.Result.ID,
			SVG:        o.Result.SVG,
			Width:      o.Result.Width,
			Height:     o.Result.Height,
			Screenshot: o.Result.Screenshot,
		}
	}

	entry := renderedEntry{Status: "rejected"}
	var le *renderer.LayoutError
	if errors.As(o.Err, &le) {
		entry.Error = &entryError{Name: le.Name, Message: le.Message, Stack: le.Stack}
	} else {
		entry.Error = &entryError{Message: o.Err.Error()}
	}
	return entry
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errors.Code, msg string) {
	writeJSON(w, status, errorResponse{Code: string(code), Message: msg})
}
