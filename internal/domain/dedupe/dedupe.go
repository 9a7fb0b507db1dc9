// Package dedupe guards work items against concurrent duplicate submission.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Guard records in-flight keys so the same segment or clip is never
// started twice at once.
type Guard interface {
	// Claim records id and returns true if it was not already held.
	Claim(ctx context.Context, id string) bool

	// Release forgets id so it can be claimed again.
	Release(ctx context.Context, id string)

	// Held reports whether id is currently claimed.
	Held(ctx context.Context, id string) bool

	Size() int
}

// inMemoryGuard keeps claims in insertion order. When bounded, the oldest
// claim is evicted once maxSize is reached.
type inMemoryGuard struct {
	mu      sync.Mutex
	order   *list.List
	index   map[string]*list.Element
	maxSize int
}

// NewInMemoryGuard creates a guard. maxSize <= 0 disables eviction.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		order:   list.New(),
		index:   make(map[string]*list.Element),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *inMemoryGuard) Claim(_ context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.index[id]; held {
		return false
	}
	if g.maxSize > 0 && g.order.Len() >= g.maxSize {
		oldest := g.order.Front()
		g.order.Remove(oldest)
		delete(g.index, oldest.Value.(string))
	}
	g.index[id] = g.order.PushBack(id)
	return true
}

func (g *inMemoryGuard) Release(_ context.Context, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if el, held := g.index[id]; held {
		g.order.Remove(el)
		delete(g.index, id)
	}
}

func (g *inMemoryGuard) Held(_ context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.index[id]
	return held
}

func (g *inMemoryGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.order.Len()
}
