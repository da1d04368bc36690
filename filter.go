package quickleaf

import "strings"

type filterKind uint8

const (
	filterNone filterKind = iota
	filterPrefix
	filterSuffix
	filterPrefixSuffix
)

// Filter is a pure predicate over keys used by List. The zero value matches
// every key. Matching is byte-wise; no Unicode normalization is applied.
type Filter struct {
	kind   filterKind
	prefix string
	suffix string
}

// StartsWith matches keys beginning with prefix.
func StartsWith(prefix string) Filter {
	return Filter{kind: filterPrefix, prefix: prefix}
}

// EndsWith matches keys ending with suffix.
func EndsWith(suffix string) Filter {
	return Filter{kind: filterSuffix, suffix: suffix}
}

// StartsAndEndsWith matches keys that begin with prefix and end with suffix.
// The two parts may not overlap: a key shorter than len(prefix)+len(suffix)
// never matches.
func StartsAndEndsWith(prefix, suffix string) Filter {
	return Filter{kind: filterPrefixSuffix, prefix: prefix, suffix: suffix}
}

// Match reports whether key satisfies the filter.
func (f Filter) Match(key string) bool {
	switch f.kind {
	case filterPrefix:
		return strings.HasPrefix(key, f.prefix)
	case filterSuffix:
		return strings.HasSuffix(key, f.suffix)
	case filterPrefixSuffix:
		if len(f.prefix)+len(f.suffix) > len(key) {
			return false
		}
		return strings.HasPrefix(key, f.prefix) && strings.HasSuffix(key, f.suffix)
	default:
		return true
	}
}
