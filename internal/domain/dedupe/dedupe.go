// Package dedupe tracks which sync jobs are in flight so the same season is
// never imported by two workers at once.
package dedupe

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"time"
)

// Deduper records job keys between enqueue and completion.
type Deduper interface {
	// SeenAndRecord reports whether key is already in flight and records it
	// if not. The check and the record happen under one lock.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key once its job has finished or could not be queued.
	Unrecord(ctx context.Context, key string)

	// Keys lists the keys currently held, sorted.
	Keys() []string

	Size() int64
}

type entry struct {
	key        string
	recordedAt time.Time
}

// inMemoryDeduper keeps keys in insertion order so the oldest can be dropped
// when the tracker is full or an entry outlives its TTL.
type inMemoryDeduper struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List // front is oldest
	maxSize int        // <= 0 means unbounded
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryDeduper creates an in-memory tracker.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 1024,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.index = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expireLocked()
	if _, ok := d.index[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.removeLocked(d.order.Front())
	}
	d.index[key] = d.order.PushBack(&entry{key: key, recordedAt: d.now()})
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		d.removeLocked(el)
	}
}

func (d *inMemoryDeduper) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expireLocked()
	keys := make([]string, 0, len(d.index))
	for k := range d.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

// expireLocked drops entries older than the TTL. A stuck worker therefore
// blocks its season for at most one TTL.
func (d *inMemoryDeduper) expireLocked() {
	if d.ttl <= 0 {
		return
	}
	cutoff := d.now().Add(-d.ttl)
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if el.Value.(*entry).recordedAt.After(cutoff) {
			return
		}
		d.removeLocked(el)
	}
}

func (d *inMemoryDeduper) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	delete(d.index, el.Value.(*entry).key)
	d.order.Remove(el)
}
