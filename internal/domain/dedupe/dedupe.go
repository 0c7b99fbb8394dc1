// Package dedupe tracks ids that were already handled so side effects fire
// at most once.
package dedupe

import (
	"context"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 4096

// Deduper records seen ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if not. The check and the write are atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a later SeenAndRecord returns false again.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper evicts the oldest id once maxSize is reached. A repeated
// SeenAndRecord does not refresh an id. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	maxSize int
	cache   *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a deduper holding up to 4096 ids by default.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	size := d.maxSize
	if size <= 0 {
		size = math.MaxInt
	}
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	d.cache = cache
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	seen, _ := d.cache.ContainsOrAdd(id, struct{}{})
	return seen
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.cache.Remove(id)
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(d.cache.Len())
}
