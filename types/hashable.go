package types

type Hashable interface {
	GetHashCode() uint64
}

// Distinct reports whether the item's hash code has not been seen before and
// records it in the given set.
func Distinct(seen map[uint64]bool, item Hashable) bool {
	code := item.GetHashCode()
	if seen[code] {
		return false
	}

	seen[code] = true
	return true
}
