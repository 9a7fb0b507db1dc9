package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer is the lifecycle slice of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService runs an HTTP server until its context ends, then shuts it
// down gracefully.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps server. A non-positive timeout defaults to 10s.
func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPService) String() string { return "http-server" }

// Lifecycle is a component started once and stopped on shutdown.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop()
}

// LifecycleService adapts a Lifecycle to suture.Service. A failed Start is
// returned so the supervisor retries it with backoff.
type LifecycleService struct {
	name string
	c    Lifecycle
}

// NewLifecycleService wraps c under name.
func NewLifecycleService(name string, c Lifecycle) *LifecycleService {
	return &LifecycleService{name: name, c: c}
}

// Serve implements suture.Service.
func (l *LifecycleService) Serve(ctx context.Context) error {
	if err := l.c.Start(ctx); err != nil {
		return fmt.Errorf("start %s: %w", l.name, err)
	}
	<-ctx.Done()
	l.c.Stop()
	return ctx.Err()
}

func (l *LifecycleService) String() string { return l.name }
