// Package supervisor runs the long-lived parts of the process under a
// suture supervision tree so a crashed component is restarted with backoff
// instead of taking the process down.
package supervisor

import (
	"context"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Tree holds two layers: the pipeline (workers, bus, schedules) and the API
// (HTTP). A failing API server does not restart the pipeline.
type Tree struct {
	root     *suture.Supervisor
	pipeline *suture.Supervisor
	api      *suture.Supervisor
}

// New builds the tree.
func New(opts ...Option) *Tree {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	handler := &sutureslog.Handler{Logger: cfg.slog}
	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.failureThreshold,
		FailureDecay:     cfg.failureDecay,
		FailureBackoff:   cfg.failureBackoff,
		Timeout:          cfg.shutdownTimeout,
	}
	childSpec := rootSpec
	childSpec.EventHook = nil

	t := &Tree{
		root:     suture.New(cfg.name, rootSpec),
		pipeline: suture.New("pipeline", childSpec),
		api:      suture.New("api", childSpec),
	}
	t.root.Add(t.pipeline)
	t.root.Add(t.api)
	return t
}

// AddPipelineService adds svc to the pipeline layer.
func (t *Tree) AddPipelineService(svc suture.Service) suture.ServiceToken {
	return t.pipeline.Add(svc)
}

// AddAPIService adds svc to the API layer.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is done.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel yields the
// result of Serve.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
