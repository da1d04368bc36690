package quickleaf

// Order selects the direction List sorts keys in. Sorting is by lexicographic
// byte order of keys, not by insertion order (insertion order governs
// eviction only).
type Order uint8

const (
	// Asc sorts keys in ascending byte order (default).
	Asc Order = iota
	// Desc sorts keys in descending byte order.
	Desc
)

// KV is one List result. Value is the stored value at the time of the call.
type KV[V any] struct {
	Key   string
	Value V
}

// ListProps configures List: filtering, ordering and pagination.
// The zero value lists everything in ascending order.
//
//	props := quickleaf.ListProps{Filter: quickleaf.StartsWith("user:"), Limit: 20}.
//	    StartAfter("user:0042")
type ListProps struct {
	// Filter restricts which keys appear. Zero value matches all.
	Filter Filter
	// Order is the sort direction over key bytes.
	Order Order
	// Limit caps the number of results. 0 means unbounded.
	Limit int

	startAfter    string
	useStartAfter bool
}

// StartAfter makes results begin with the first key strictly greater than key
// (Asc) or strictly less than it (Desc), under the same byte comparator.
// The key does not need to exist in the cache. List fails with
// ErrInvalidRange when key is empty.
func (p ListProps) StartAfter(key string) ListProps {
	p.startAfter = key
	p.useStartAfter = true
	return p
}

// pastStartAfter reports whether key lies strictly past the pagination
// cursor in the given direction.
func (p ListProps) pastStartAfter(key string) bool {
	if !p.useStartAfter {
		return true
	}
	if p.Order == Desc {
		return key < p.startAfter
	}
	return key > p.startAfter
}
