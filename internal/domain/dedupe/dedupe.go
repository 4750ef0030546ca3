// Package dedupe tracks idempotency keys so repeated requests are served once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	defaultMaxSize = 4096
	defaultTTL     = time.Minute
)

// Deduper records seen keys for a limited time.
type Deduper interface {
	// SeenAndRecord reports whether key was recorded within the TTL, and
	// records it if not. Check and record happen atomically.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so that a failed request can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key string
	at  time.Time
}

// inMemoryDeduper keeps keys in insertion order. The oldest key is evicted
// when maxSize is reached; expired keys are dropped lazily.
type inMemoryDeduper struct {
	mu      sync.Mutex
	order   *list.List // front is oldest
	keys    map[string]*list.Element
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		order:   list.New(),
		keys:    make(map[string]*list.Element),
		maxSize: defaultMaxSize,
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.expire(now)
	if _, ok := d.keys[key]; ok {
		return true
	}
	for d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.remove(d.order.Front())
	}
	d.keys[key] = d.order.PushBack(entry{key: key, at: now})
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.keys[key]; ok {
		d.remove(el)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expire(d.now())
	return int64(d.order.Len())
}

// expire drops keys older than the TTL. Caller holds mu.
func (d *inMemoryDeduper) expire(now time.Time) {
	if d.ttl <= 0 {
		return
	}
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if now.Sub(el.Value.(entry).at) < d.ttl {
			return
		}
		d.remove(el)
	}
}

func (d *inMemoryDeduper) remove(el *list.Element) {
	delete(d.keys, el.Value.(entry).key)
	d.order.Remove(el)
}
