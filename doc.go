// Package quickleaf implements a bounded, insertion-ordered, in-process
// key/value cache with per-entry TTL, filtered/ordered listing, change
// notifications, and an optional write-behind SQLite store.
//
// Components:
//   - Cache[V]: the engine. Single-owner; callers serialize access themselves
//     (wrap in a mutex to share across goroutines).
//   - Clock: millisecond time source used for expiration arithmetic.
//     Injectable so tests can drive time by hand.
//   - Filter / ListProps: key predicates plus ordering and pagination for List.
//   - Event[V]: Insert/Remove/Clear notifications on an optional channel.
//     Delivery is lossy: a full or absent channel drops the event.
//   - codec.Codec[V]: (de)serializes V <-> []byte for the durable store.
//     Only required when persistence is enabled.
//
// Semantics:
//
//	capacity  - set at construction (adjustable with SetCapacity); inserting
//	            a new key at capacity evicts the oldest-inserted entry.
//	            Re-setting an existing key keeps its position.
//	TTL       - lazy: expired entries are removed by the read that observes
//	            them, or in bulk by CleanupExpired. An entry expires strictly
//	            after its TTL elapses (now - created > ttl).
//	persist   - write-behind: mutations are acknowledged in memory and applied
//	            to SQLite by a background worker. On construction the engine
//	            reloads live rows, oldest first and up to capacity, before
//	            returning to the caller.
//
// Basic use:
//
//	cache, _ := quickleaf.New[string](quickleaf.Options[string]{Capacity: 100})
//	cache.Set("user:1", "ada")
//	v, ok := cache.Get("user:1")
//
// With persistence:
//
//	cache, err := quickleaf.New[User](quickleaf.Options[User]{
//	    Capacity:    1000,
//	    PersistPath: "data/cache.db",
//	    Codec:       codec.JSON[User]{},
//	})
//	defer cache.Close(context.Background())
package quickleaf
