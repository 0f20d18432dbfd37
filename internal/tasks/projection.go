package tasks

import "github.com/desertthunder/alignx/internal/models"

// Projection is an ordered, derived view over a cache with a selection cursor.
//
// Active is the key of the selected item and ActiveIndex its position; both are zero values (""/-1) when the
// projection is empty.
type Projection[T any] struct {
	Items       []T
	Active      string
	ActiveIndex int
}

// Empty reports whether the projection has no items and therefore no selection.
func (p Projection[T]) Empty() bool {
	return len(p.Items) == 0
}

// Selected returns the active item.
func (p Projection[T]) Selected() (T, bool) {
	var zero T
	if p.ActiveIndex < 0 || p.ActiveIndex >= len(p.Items) {
		return zero, false
	}
	return p.Items[p.ActiveIndex], true
}

// Keys returns the key of every item, in order.
func (p Projection[T]) Keys(key func(T) string) []string {
	keys := make([]string, len(p.Items))
	for i, item := range p.Items {
		keys[i] = key(item)
	}
	return keys
}

// project builds a projection, keeping previous selected when it is still present and falling back to the first
// item otherwise.
func project[T any](items []T, key func(T) string, previous string) Projection[T] {
	p := Projection[T]{Items: items, ActiveIndex: -1}
	if len(items) == 0 {
		return p
	}
	p.ActiveIndex = 0
	if previous != "" {
		for i, item := range items {
			if key(item) == previous {
				p.ActiveIndex = i
				break
			}
		}
	}
	p.Active = key(items[p.ActiveIndex])
	return p
}

// TaskKey is the selection key of a task projection.
func TaskKey(t *models.Task) string { return t.ID }

// AssetKey is the selection key of an asset projection.
func AssetKey(a models.Asset) string { return a.Src }
