package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/pkg/logger"
)

// UserDependencies serves viewer preferences and personalized rankings.
type UserDependencies interface {
	Personalized(ctx context.Context, userID string, limit int) ([]model.PersonalizedHighlight, error)
	Preferences(ctx context.Context, userID string) ([]model.UserPreference, error)
	SetPreferences(ctx context.Context, userID string, prefs []model.UserPreference) ([]model.UserPreference, error)
}

type preferencesBody struct {
	Preferences []model.UserPreference `json:"preferences"`
}

// UsersHandler handles per-viewer requests.
type UsersHandler struct {
	deps         UserDependencies
	log          logger.Logger
	defaultLimit int
	maxLimit     int
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies, log logger.Logger, defaultLimit, maxLimit int) *UsersHandler {
	return &UsersHandler{deps: deps, log: log, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandlePersonalized handles GET /users/{userID}/highlights?limit=.
func (h *UsersHandler) HandlePersonalized(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), h.defaultLimit, h.maxLimit)
	if err != nil {
		respond(r.Context(), w, h.log, WrapKind("api.personalized", ErrBadRequest, err))
		return
	}
	ranked, err := h.deps.Personalized(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(ranked))
}

// HandleGetPreferences handles GET /users/{userID}/preferences.
func (h *UsersHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.deps.Preferences(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	if prefs == nil {
		prefs = []model.UserPreference{}
	}
	writeJSON(w, http.StatusOK, preferencesBody{Preferences: prefs})
}

// HandlePutPreferences handles PUT /users/{userID}/preferences. The body
// replaces the stored set.
func (h *UsersHandler) HandlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var body preferencesBody
	if err := decodeBody(w, r, &body); err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	prefs, err := h.deps.SetPreferences(r.Context(), chi.URLParam(r, "userID"), body.Preferences)
	if err != nil {
		respond(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, preferencesBody{Preferences: prefs})
}
