package quickleaf

import (
	"context"
	"sort"
	"time"

	"github.com/phlowdotdev/quickleaf/codec"
	"github.com/phlowdotdev/quickleaf/internal/ordmap"
)

// noTTL marks an entry (or the default) as non-expiring.
const noTTL = int64(-1)

// entry is one stored record. ttl is in milliseconds; noTTL means the entry
// never expires. An entry is logically absent once now - createdAt > ttl.
type entry[V any] struct {
	value     V
	createdAt int64
	ttl       int64
}

// Cache is the engine. It combines an insertion-ordered entry store with
// lazy TTL expiration, capacity-bound admission, event emission, and the
// optional write-behind durable store.
//
// All methods must be called from one goroutine at a time; the cache holds
// no internal locks for its in-memory state.
type Cache[V any] struct {
	store      *ordmap.Map[entry[V]]
	capacity   int
	defaultTTL int64 // millis; noTTL when unset

	clock  Clock
	events chan<- Event[V]
	log    Logger
	hooks  Hooks

	persist *persister[V] // nil when persistence is disabled
}

func newCache[V any](opts Options[V]) *Cache[V] {
	cache := &Cache[V]{
		store:      ordmap.New[entry[V]](opts.Capacity),
		capacity:   opts.Capacity,
		defaultTTL: noTTL,
		events:     opts.Events,
	}
	if opts.DefaultTTL > 0 {
		cache.defaultTTL = opts.DefaultTTL.Milliseconds()
	}
	cache.clock = coalesce[Clock](opts.Clock, defaultClock)
	cache.log = coalesce[Logger](opts.Logger, NopLogger{})
	cache.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return cache
}

// Set upserts key. An existing key keeps its value and TTL replaced but its
// insertion-order position unchanged; a new key is appended, evicting the
// oldest-inserted entry first when the cache is full. The entry's creation
// time is taken from the Clock at this call, and its TTL is the cache's
// default TTL (none if unconfigured).
func (c *Cache[V]) Set(key string, value V) {
	c.set(key, value, c.defaultTTL)
}

// SetWithTTL is Set with an explicit TTL overriding the default.
// Negative durations are treated as zero (the entry expires on the first
// read at least one millisecond later).
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	ms := ttl.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	c.set(key, value, ms)
}

func (c *Cache[V]) set(key string, value V, ttlMillis int64) {
	now := c.clock.NowMillis()

	if !c.store.Contains(key) && c.store.Len() >= c.capacity {
		if k, e, ok := c.store.PopOldest(); ok {
			c.hooks.Evicted(k)
			c.emit(removeEvent(k, e.value))
			c.persistDelete(k)
		}
	}

	c.store.Set(key, entry[V]{value: value, createdAt: now, ttl: ttlMillis})
	c.emit(insertEvent(key, value))
	c.persistUpsert(key, value, now, ttlMillis)
}

// Get returns the value stored under key, removing it first when it has
// expired (emitting a Remove event). The fast path performs a single
// associative lookup.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	e := c.store.Ptr(key)
	if e == nil {
		return zero, false
	}
	if c.expired(e) {
		c.dropExpired(key)
		return zero, false
	}
	return e.value, true
}

// GetMut returns a pointer into the store for in-place mutation. The pointer
// is valid only until the next mutating call on the cache; callers must not
// retain it. Mutations through it do not refresh the entry's creation time
// and are not persisted — re-Set the key if durability is wanted.
func (c *Cache[V]) GetMut(key string) (*V, bool) {
	e := c.store.Ptr(key)
	if e == nil {
		return nil, false
	}
	if c.expired(e) {
		c.dropExpired(key)
		return nil, false
	}
	return &e.value, true
}

// Contains reports whether key is present and not expired. Like Get, it
// removes an expired entry it observes.
func (c *Cache[V]) Contains(key string) bool {
	e := c.store.Ptr(key)
	if e == nil {
		return false
	}
	if c.expired(e) {
		c.dropExpired(key)
		return false
	}
	return true
}

// Remove deletes key, emitting a Remove event. It fails with ErrKeyNotFound
// when the key is not physically present; expiration is not consulted, so an
// expired entry that no read has swept yet still removes cleanly.
func (c *Cache[V]) Remove(key string) error {
	e, ok := c.store.Delete(key)
	if !ok {
		return ErrKeyNotFound
	}
	c.emit(removeEvent(key, e.value))
	c.persistDelete(key)
	return nil
}

// Clear removes every entry, emitting a single Clear event.
func (c *Cache[V]) Clear() {
	c.store.Clear()
	c.emit(clearEvent[V]())
	if c.persist != nil {
		c.persist.enqueue(persistOp{kind: opClear})
	}
}

// Len reports the physical entry count, which may include expired entries no
// read has swept yet.
func (c *Cache[V]) Len() int { return c.store.Len() }

func (c *Cache[V]) IsEmpty() bool { return c.store.Len() == 0 }

func (c *Cache[V]) Capacity() int { return c.capacity }

// SetCapacity changes the admission bound for subsequent inserts. Shrinking
// below the current size does not evict immediately. Each later insert of a
// new key evicts one oldest-inserted entry, so the size stays where it was
// (above the new bound) until entries are removed or expire.
func (c *Cache[V]) SetCapacity(capacity int) {
	if capacity > 0 {
		c.capacity = capacity
	}
}

// SetDefaultTTL configures the TTL applied by Set from now on. It never
// mutates existing entries. A zero or negative duration clears the default.
func (c *Cache[V]) SetDefaultTTL(ttl time.Duration) {
	if ttl > 0 {
		c.defaultTTL = ttl.Milliseconds()
	} else {
		c.defaultTTL = noTTL
	}
}

// DefaultTTL returns the configured default TTL, zero when unset.
func (c *Cache[V]) DefaultTTL() time.Duration {
	if c.defaultTTL < 0 {
		return 0
	}
	return time.Duration(c.defaultTTL) * time.Millisecond
}

// CleanupExpired sweeps the whole store, removing every expired entry and
// emitting a Remove event per key. The Clock is sampled once for the whole
// pass. Returns the number of entries removed.
func (c *Cache[V]) CleanupExpired() int {
	now := c.clock.NowMillis()

	var expiredKeys []string
	c.store.Range(func(key string, e entry[V]) bool {
		if e.ttl >= 0 && now-e.createdAt > e.ttl {
			expiredKeys = append(expiredKeys, key)
		}
		return true
	})

	for _, key := range expiredKeys {
		if e, ok := c.store.Delete(key); ok {
			c.emit(removeEvent(key, e.value))
			c.persistDelete(key)
		}
	}
	return len(expiredKeys)
}

// Keys returns all physically present keys in insertion order, including
// expired entries not yet swept.
func (c *Cache[V]) Keys() []string { return c.store.Keys() }

// Entries returns a snapshot of all live (non-expired) entries in insertion
// order. Unlike List it does not sort, filter, or sweep.
func (c *Cache[V]) Entries() []KV[V] {
	now := c.clock.NowMillis()
	out := make([]KV[V], 0, c.store.Len())
	c.store.Range(func(key string, e entry[V]) bool {
		if e.ttl < 0 || now-e.createdAt <= e.ttl {
			out = append(out, KV[V]{Key: key, Value: e.value})
		}
		return true
	})
	return out
}

// List returns entries matching props, sorted by key bytes in the requested
// order, paginated by StartAfter and truncated to Limit. Expired entries are
// swept (with Remove events) before the scan, so results contain live
// entries only.
func (c *Cache[V]) List(props ListProps) ([]KV[V], error) {
	if props.useStartAfter && props.startAfter == "" {
		return nil, ErrInvalidRange
	}

	c.CleanupExpired()

	keys := c.store.Keys()
	sort.Strings(keys)
	if props.Order == Desc {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	var out []KV[V]
	for _, key := range keys {
		if !props.pastStartAfter(key) {
			continue
		}
		if !props.Filter.Match(key) {
			continue
		}
		e, ok := c.store.Get(key)
		if !ok {
			continue
		}
		out = append(out, KV[V]{Key: key, Value: e.value})
		if props.Limit > 0 && len(out) == props.Limit {
			break
		}
	}
	return out, nil
}

// Close flushes the write-behind queue, joins the persistence worker, and
// closes the durable store. It is a no-op for caches without persistence.
// The context bounds how long to wait for the flush.
func (c *Cache[V]) Close(ctx context.Context) error {
	if c.persist == nil {
		return nil
	}
	return c.persist.Close(ctx)
}

func (c *Cache[V]) expired(e *entry[V]) bool {
	return e.ttl >= 0 && c.clock.NowMillis()-e.createdAt > e.ttl
}

// dropExpired removes an entry a read observed as expired.
func (c *Cache[V]) dropExpired(key string) {
	if e, ok := c.store.Delete(key); ok {
		c.emit(removeEvent(key, e.value))
		c.persistDelete(key)
	}
}

// emit delivers ev without blocking; a full or absent channel drops it.
func (c *Cache[V]) emit(ev Event[V]) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.hooks.EventDropped(ev.Kind, ev.Key)
	}
}

func (c *Cache[V]) persistUpsert(key string, value V, createdAt, ttlMillis int64) {
	if c.persist == nil {
		return
	}
	blob, err := c.persist.codec.Encode(value)
	if err != nil {
		c.log.Warn("persist encode failed; durable upsert dropped", Fields{"key": key, "err": err})
		c.hooks.PersistEncodeError(key, err)
		return
	}
	c.persist.enqueue(persistOp{kind: opUpsert, key: key, blob: blob, createdAt: createdAt, ttlMillis: ttlMillis})
}

func (c *Cache[V]) persistDelete(key string) {
	if c.persist == nil {
		return
	}
	c.persist.enqueue(persistOp{kind: opDelete, key: key})
}

// restore materializes recovered rows (ordered by creation time, then key)
// into the entry store. Expired rows are dropped; rows that fail to decode
// are logged and skipped. When rows were live but none decoded, recovery
// fails rather than silently starting empty.
func (c *Cache[V]) restore(path string, rows []durableRow, cd codec.Codec[V]) error {
	now := c.clock.NowMillis()

	live, decoded := 0, 0
	var lastErr error
	for _, r := range rows {
		if r.ttl.Valid && now-r.createdAt > r.ttl.Int64 {
			continue
		}
		live++
		v, err := cd.Decode(r.blob)
		if err != nil {
			lastErr = err
			c.log.Warn("recovery: row skipped (decode failed)", Fields{"key": r.key, "err": err})
			c.hooks.RecoverySkippedRow(r.key, err)
			continue
		}
		decoded++
		if c.store.Len() < c.capacity {
			ttl := noTTL
			if r.ttl.Valid {
				ttl = r.ttl.Int64
			}
			c.store.Set(r.key, entry[V]{value: v, createdAt: r.createdAt, ttl: ttl})
		}
	}

	if live > 0 && decoded == 0 {
		return &RecoveryError{Path: path, Rows: live, LastErr: lastErr}
	}
	return nil
}
