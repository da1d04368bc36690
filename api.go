package quickleaf

import (
	"fmt"
	"time"

	c "github.com/phlowdotdev/quickleaf/codec"
)

// Options tune the behavior of the cache.
// Only Capacity is required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Capacity int // maximum number of entries; oldest-inserted is evicted when full

	DefaultTTL time.Duration   // applied to Set; 0 => entries do not expire
	Events     chan<- Event[V] // optional single-consumer channel; nil => events disabled
	Clock      Clock           // nil => shared SystemClock
	Logger     Logger          // if nil, NopLogger is used
	Hooks      Hooks           // if nil, NopHooks is used

	// PersistPath enables the write-behind SQLite store at the given file
	// path (created on first use). Codec is required when PersistPath is set
	// and is used only by persistence.
	PersistPath string
	Codec       c.Codec[V]
}

var defaultClock = &SystemClock{}

// New constructs a cache. With PersistPath set it opens (or creates) the
// durable store, replays live rows into memory (oldest first, up to
// Capacity; rows past that are not loaded), and starts the
// write-behind worker before returning; the caller should Close the cache
// to flush and join the worker.
//
// The returned cache is single-owner: no internal locking is performed, and
// sharing across goroutines requires external synchronization.
func New[V any](opts Options[V]) (*Cache[V], error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("quickleaf: capacity must be positive")
	}
	if opts.PersistPath != "" && opts.Codec == nil {
		return nil, fmt.Errorf("quickleaf: codec is required when PersistPath is set")
	}

	cache := newCache[V](opts)

	if opts.PersistPath != "" {
		store, err := openDurableStore(opts.PersistPath)
		if err != nil {
			return nil, err
		}
		rows, err := store.loadAll()
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if err := cache.restore(opts.PersistPath, rows, opts.Codec); err != nil {
			_ = store.Close()
			return nil, err
		}
		cache.persist = newPersister(store, opts.Codec, cache.clock, cache.log, cache.hooks)
	}

	return cache, nil
}
