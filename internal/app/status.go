package service

import (
	"container/list"
	"sync"
	"time"

	"github.com/okian/highlights/internal/domain/model"
)

// statusBook keeps the latest status and the first creation time of recent
// segments, evicting the oldest once full.
type statusBook struct {
	mu      sync.Mutex
	order   *list.List
	index   map[string]*list.Element
	maxSize int
	now     func() time.Time
}

type segmentEntry struct {
	status  model.SegmentStatus
	created time.Time
}

func newStatusBook(maxSize int) *statusBook {
	return &statusBook{
		order:   list.New(),
		index:   make(map[string]*list.Element),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (b *statusBook) set(id string, state model.SegmentState, count int, errMsg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := model.SegmentStatus{SegmentID: id, State: state, HighlightCount: count, Error: errMsg, UpdatedAt: b.now().UTC()}
	b.entry(id).status = st
}

// creation returns the creation time of segment id. The first time seen
// wins: a resubmission without its own time reuses it, so highlight IDs
// derived from it stay stable across retries.
func (b *statusBook) creation(id string, want time.Time) time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.entry(id)
	switch {
	case !want.IsZero():
		if e.created.IsZero() {
			e.created = want
		}
		return want
	case e.created.IsZero():
		e.created = b.now().UTC().Truncate(time.Millisecond)
	}
	return e.created
}

// entry returns the entry for id, adding it when missing. Callers hold mu.
func (b *statusBook) entry(id string) *segmentEntry {
	if el, ok := b.index[id]; ok {
		return el.Value.(*segmentEntry)
	}
	e := &segmentEntry{status: model.SegmentStatus{SegmentID: id}}
	b.index[id] = b.order.PushBack(e)
	for b.maxSize > 0 && b.order.Len() > b.maxSize {
		oldest := b.order.Front()
		b.order.Remove(oldest)
		delete(b.index, oldest.Value.(*segmentEntry).status.SegmentID)
	}
	return e
}

func (b *statusBook) get(id string) (model.SegmentStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	el, ok := b.index[id]
	if !ok {
		return model.SegmentStatus{}, false
	}
	return el.Value.(*segmentEntry).status, true
}

func (b *statusBook) counts() map[model.SegmentState]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[model.SegmentState]int, 4)
	for el := b.order.Front(); el != nil; el = el.Next() {
		if st := el.Value.(*segmentEntry).status; st.State != "" {
			out[st.State]++
		}
	}
	return out
}
