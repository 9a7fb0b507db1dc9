package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
)

// HighlightDependencies reads persisted highlights.
type HighlightDependencies interface {
	Highlights(ctx context.Context, f model.HighlightFilter) ([]model.EnrichedHighlight, error)
	Highlight(ctx context.Context, id string) (model.EnrichedHighlight, error)
}

// HighlightsHandler handles highlight reads.
type HighlightsHandler struct {
	deps         HighlightDependencies
	log          logger.Logger
	defaultLimit int
	maxLimit     int
}

// NewHighlightsHandler creates a new highlights handler.
func NewHighlightsHandler(deps HighlightDependencies, log logger.Logger, defaultLimit, maxLimit int) *HighlightsHandler {
	return &HighlightsHandler{deps: deps, log: log, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandleList handles GET /highlights?sourceId=&clipGenerated=&enriched=&limit=.
func (h *HighlightsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_highlights"
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"), h.defaultLimit, h.maxLimit)
	if err != nil {
		respond(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}
	f := model.HighlightFilter{SourceID: q.Get("sourceId"), Limit: limit}
	if f.ClipGenerated, err = parseOptionalBool(q.Get("clipGenerated")); err != nil {
		respond(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}
	if f.EnrichmentComplete, err = parseOptionalBool(q.Get("enriched")); err != nil {
		respond(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, err))
		return
	}

	hs, err := h.deps.Highlights(r.Context(), f)
	if err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(hs))
}

// HandleGet handles GET /highlights/{highlightID}.
func (h *HighlightsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	hl, err := h.deps.Highlight(r.Context(), chi.URLParam(r, "highlightID"))
	if err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, hl)
}

// parseLimit returns def for an empty value and rejects anything outside
// 1..maxLimit.
func parseLimit(v string, def, maxLimit int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit %q must be a positive integer", v)
	}
	if n > maxLimit {
		return 0, fmt.Errorf("limit %d exceeds %d", n, maxLimit)
	}
	return n, nil
}

func parseOptionalBool(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", v)
	}
	return &b, nil
}
