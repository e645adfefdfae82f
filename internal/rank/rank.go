// Package rank centralizes ranking so every ranking site shares one
// tie-break policy: descending metric, then ascending natural key. Given the
// same input the assigned ranks are always reproducible.
package rank

import "sort"

// Ranked wraps an item with its assigned 1-based rank.
type Ranked[T any] struct {
	Item T
	Rank int
}

// Assign sorts items by metric descending and assigns sequential ranks.
// Items with equal metrics are ordered by their natural key ascending, so
// the result is deterministic for any input order.
func Assign[T any](items []T, metric func(T) float64, key func(T) string) []Ranked[T] {
	sorted := make([]T, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		mi, mj := metric(sorted[i]), metric(sorted[j])
		if mi != mj {
			return mi > mj
		}
		return key(sorted[i]) < key(sorted[j])
	})

	ranked := make([]Ranked[T], len(sorted))
	for i, item := range sorted {
		ranked[i] = Ranked[T]{Item: item, Rank: i + 1}
	}
	return ranked
}

// AssignPartitioned ranks items independently within each partition.
func AssignPartitioned[T any](items []T, partition func(T) string, metric func(T) float64, key func(T) string) map[string][]Ranked[T] {
	groups := make(map[string][]T)
	for _, item := range items {
		p := partition(item)
		groups[p] = append(groups[p], item)
	}

	out := make(map[string][]Ranked[T], len(groups))
	for p, group := range groups {
		out[p] = Assign(group, metric, key)
	}
	return out
}
