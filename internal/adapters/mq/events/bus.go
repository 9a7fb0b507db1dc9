// Package events carries pipeline notifications between components over an
// in-process watermill pub/sub.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/okian/highlights/internal/domain/clip"
	"github.com/okian/highlights/pkg/logger"
	"github.com/okian/highlights/pkg/metrics"
)

// Topics.
const (
	TopicHighlightPersisted = "highlights.persisted"
	TopicClipCompleted      = "clips.completed"
)

// HighlightPersisted announces a newly stored highlight.
type HighlightPersisted struct {
	HighlightID string `json:"highlightId"`
	SourceID    string `json:"sourceId"`
}

// Bus publishes and dispatches pipeline events.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger logger.Logger
}

// NewBus creates a bus. Handlers must be registered before Run.
func NewBus(opts ...Option) (*Bus, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	wl := NewLoggerAdapter(cfg.logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.buffer,
	}, wl)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.closeTimeout}, wl)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	b := &Bus{pubsub: pubsub, router: router, logger: cfg.logger}

	// Outermost first: drop what retries could not fix so gochannel does
	// not redeliver forever.
	router.AddMiddleware(b.dropFailed)
	router.AddMiddleware(middleware.Recoverer)
	if cfg.retries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.retries,
			InitialInterval: cfg.initialInterval,
			Multiplier:      2,
			Logger:          wl,
		}
		router.AddMiddleware(retry.Middleware)
	}
	return b, nil
}

func (b *Bus) dropFailed(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			metrics.RecordErrorByComponent("events", message.SubscribeTopicFromCtx(msg.Context()))
			b.logger.Error(msg.Context(), "event handler failed, dropping message",
				logger.String("message_id", msg.UUID),
				logger.String("handler", message.HandlerNameFromCtx(msg.Context())),
				logger.Error(err))
			return nil, nil
		}
		return out, nil
	}
}

// Run starts dispatching and blocks until ctx is done or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once handlers are subscribed.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub.
func (b *Bus) Close() error {
	rerr := b.router.Close()
	perr := b.pubsub.Close()
	if rerr != nil {
		return rerr
	}
	return perr
}

// PublishPersisted publishes a HighlightPersisted event.
func (b *Bus) PublishPersisted(ctx context.Context, e HighlightPersisted) error {
	return publish(ctx, b, TopicHighlightPersisted, e)
}

// PublishCompletion publishes a clip completion.
func (b *Bus) PublishCompletion(ctx context.Context, c clip.Completion) error {
	return publish(ctx, b, TopicClipCompleted, c)
}

// OnPersisted registers a handler for HighlightPersisted events.
func (b *Bus) OnPersisted(name string, fn func(context.Context, HighlightPersisted) error) {
	subscribe(b, name, TopicHighlightPersisted, fn)
}

// OnCompletion registers a handler for clip completions.
func (b *Bus) OnCompletion(name string, fn func(context.Context, clip.Completion) error) {
	subscribe(b, name, TopicClipCompleted, fn)
}

func publish[T any](ctx context.Context, b *Bus, topic string, v T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	middleware.SetCorrelationID(watermill.NewShortUUID(), msg)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

func subscribe[T any](b *Bus, name, topic string, fn func(context.Context, T) error) {
	b.router.AddConsumerHandler(name, topic, b.pubsub, func(msg *message.Message) error {
		var v T
		if err := json.Unmarshal(msg.Payload, &v); err != nil {
			// A payload that cannot decode never will; ack it.
			b.logger.Error(msg.Context(), "undecodable event dropped",
				logger.String("topic", topic),
				logger.String("message_id", msg.UUID),
				logger.Error(err))
			return nil
		}
		return fn(msg.Context(), v)
	})
}
