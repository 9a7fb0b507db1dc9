package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
)

// SegmentDependencies submits segments and reports their progress.
type SegmentDependencies interface {
	Submit(ctx context.Context, seg model.Segment) (model.SegmentStatus, error)
	SegmentStatus(ctx context.Context, id string) (model.SegmentStatus, error)
}

// SegmentsHandler handles segment requests.
type SegmentsHandler struct {
	deps SegmentDependencies
	log  logger.Logger
}

// NewSegmentsHandler creates a new segments handler.
func NewSegmentsHandler(deps SegmentDependencies, log logger.Logger) *SegmentsHandler {
	return &SegmentsHandler{deps: deps, log: log}
}

// HandleSubmit handles POST /segments. Accepted segments are processed
// asynchronously; the response carries their queued status.
func (h *SegmentsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var seg model.Segment
	if err := decodeBody(w, r, &seg); err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	st, err := h.deps.Submit(r.Context(), seg)
	if err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	w.Header().Set("Location", "/segments/"+st.SegmentID)
	writeJSON(w, http.StatusAccepted, st)
}

// HandleStatus handles GET /segments/{segmentID}.
func (h *SegmentsHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.SegmentStatus(r.Context(), chi.URLParam(r, "segmentID"))
	if err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
