// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/okian/highlights/internal/adapters/http/swagger"
)

// Dependencies required by HTTP handlers. The service satisfies it; tests
// use fakes.
type Dependencies interface {
	SegmentDependencies
	HighlightDependencies
	UserDependencies
	ClipDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	segmentsHandler  *SegmentsHandler
	highlightHandler *HighlightsHandler
	usersHandler     *UsersHandler
	clipsHandler     *ClipsHandler

	rateLimit   int
	corsOrigins []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		segmentsHandler:  NewSegmentsHandler(deps, cfg.logger),
		highlightHandler: NewHighlightsHandler(deps, cfg.logger, cfg.defaultLimit, cfg.maxLimit),
		usersHandler:     NewUsersHandler(deps, cfg.logger, cfg.defaultLimit, cfg.maxLimit),
		clipsHandler:     NewClipsHandler(deps, cfg.logger),
		rateLimit:        cfg.rateLimit,
		corsOrigins:      cfg.corsOrigins,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(MetricsMiddleware)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Location"},
			MaxAge:         300,
		}))
	}

	// Probes stay outside the limiter.
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	swagger.Register(r)

	r.Group(func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.Limit(s.rateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
				})))
		}
		r.Get("/stats", s.statsHandler.HandleStats)

		r.Post("/segments", s.segmentsHandler.HandleSubmit)
		r.Get("/segments/{segmentID}", s.segmentsHandler.HandleStatus)

		r.Get("/highlights", s.highlightHandler.HandleList)
		r.Get("/highlights/{highlightID}", s.highlightHandler.HandleGet)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/highlights", s.usersHandler.HandlePersonalized)
			r.Get("/preferences", s.usersHandler.HandleGetPreferences)
			r.Put("/preferences", s.usersHandler.HandlePutPreferences)
		})

		r.Post("/clips/rescan", s.clipsHandler.HandleRescan)
		r.Post("/webhooks/transcoder", s.clipsHandler.HandleCompletion)
	})
	return r
}

// NewHTTPServer returns an http.Server for addr serving h.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody reads a JSON body capped at maxBodyBytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind("decode body", ErrBadRequest, err)
	}
	return nil
}
