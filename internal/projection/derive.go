// Package projection implements the derivation pipeline shared by the
// search, favorites and exchange views: a snapshot store fed by a live
// collection stream, plus the filter, group and sort stages that turn a
// snapshot into the grouped structure the views render. The whole pipeline
// is recomputed synchronously on every snapshot or predicate change; there
// is no caching and no incremental recomputation.
package projection

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
)

// Field extracts a string field from an entity. ok reports whether the
// field is present and non-empty.
type Field[T any] func(T) (value string, ok bool)

// Predicate is a case-insensitive substring match against one field.
type Predicate[T any] struct {
	Field  Field[T]
	Needle string
}

// Filter returns the items matching every predicate, preserving relative
// order. An empty needle matches every item, including those missing the
// field; a non-empty needle never matches a missing field.
func Filter[T any](items []T, preds []Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matches(item, preds) {
			out = append(out, item)
		}
	}
	return out
}

func matches[T any](item T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if p.Needle == "" {
			continue
		}
		v, ok := p.Field(item)
		if !ok {
			return false
		}
		if !strings.Contains(strings.ToLower(v), strings.ToLower(p.Needle)) {
			return false
		}
	}
	return true
}

// Grouped is a partition of a list into named buckets. Keys keep their
// first-encounter order until Sort runs; members keep input order within
// a bucket.
type Grouped[T any] struct {
	keys   []string
	groups map[string][]T
}

// GroupBy partitions items by the lower-cased key field in a single pass.
// Items missing the key field go under the fallback label, or are dropped
// when fallback is empty. Every retained item lands in exactly one group.
func GroupBy[T any](items []T, key Field[T], fallback string) *Grouped[T] {
	g := &Grouped[T]{groups: make(map[string][]T)}
	for _, item := range items {
		k, ok := key(item)
		if !ok {
			if fallback == "" {
				continue
			}
			k = fallback
		}
		k = strings.ToLower(k)
		if _, seen := g.groups[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.groups[k] = append(g.groups[k], item)
	}
	return g
}

// Partition groups items by the key field kept verbatim, in a single
// pass. GroupBy folds keys to lower case because its keys are display
// labels; Partition is for identifier keys that must survive a round
// trip through a lookup map. Items missing the key field are dropped.
func Partition[T any](items []T, key Field[T]) *Grouped[T] {
	g := &Grouped[T]{groups: make(map[string][]T)}
	for _, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		if _, seen := g.groups[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.groups[k] = append(g.groups[k], item)
	}
	return g
}

// Keys returns the group keys in their current order.
func (g *Grouped[T]) Keys() []string {
	return g.keys
}

// Group returns the members of one bucket.
func (g *Grouped[T]) Group(key string) []T {
	return g.groups[key]
}

// Len returns the number of groups.
func (g *Grouped[T]) Len() int {
	return len(g.keys)
}

// Total returns the number of members across all groups.
func (g *Grouped[T]) Total() int {
	n := 0
	for _, members := range g.groups {
		n += len(members)
	}
	return n
}

// SortKeys orders the group keys ascending without touching the members.
func (g *Grouped[T]) SortKeys() {
	sort.Strings(g.keys)
}

// Sort orders the group keys ascending and the members of each group
// ascending by the name field, using the collator for locale-aware
// comparison when one is given. Members missing the name field sort after
// all named members and keep their relative input order among themselves.
func (g *Grouped[T]) Sort(name Field[T], col *collate.Collator) {
	sort.Strings(g.keys)
	for _, members := range g.groups {
		SortMembers(members, name, col)
	}
}

// SortMembers sorts items in place, ascending by the name field, missing
// names last with their relative input order preserved.
func SortMembers[T any](items []T, name Field[T], col *collate.Collator) {
	sort.SliceStable(items, func(i, j int) bool {
		a, aok := name(items[i])
		b, bok := name(items[j])
		switch {
		case !aok:
			return false
		case !bok:
			return true
		}
		if col != nil {
			return col.CompareString(a, b) < 0
		}
		return a < b
	})
}
