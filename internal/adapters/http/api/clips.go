package api

import (
	"context"
	"net/http"

	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/pkg/logger"
)

// ClipDependencies drives clip generation.
type ClipDependencies interface {
	RescanClips(ctx context.Context) (int, error)
	CompleteClip(ctx context.Context, c clip.Completion) error
}

type rescanResponse struct {
	Submitted int    `json:"submitted"`
	Error     string `json:"error,omitempty"`
}

// ClipsHandler handles clip requests and transcoder callbacks.
type ClipsHandler struct {
	deps ClipDependencies
	log  logger.Logger
}

// NewClipsHandler creates a new clips handler.
func NewClipsHandler(deps ClipDependencies, log logger.Logger) *ClipsHandler {
	return &ClipsHandler{deps: deps, log: log}
}

// HandleRescan handles POST /clips/rescan. A partial rescan still reports
// how many jobs were submitted.
func (h *ClipsHandler) HandleRescan(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.RescanClips(r.Context())
	if err != nil && n == 0 {
		respond(r.Context(), w, h.log, err)
		return
	}
	resp := rescanResponse{Submitted: n}
	if err != nil {
		h.log.Warn(r.Context(), "clip rescan incomplete", logger.Int("submitted", n), logger.Error(err))
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCompletion handles POST /webhooks/transcoder.
func (h *ClipsHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	var c clip.Completion
	if err := decodeBody(w, r, &c); err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	if err := h.deps.CompleteClip(r.Context(), c); err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
