package cache

import (
	"context"
	"slices"
)

// FetchFn loads the complete collection from the source of truth.
type FetchFn[T any] func(ctx context.Context) ([]T, error)

// Snapshot is an in-memory copy of a whole collection. It is either empty
// (never populated) or holds the complete result of the last fetch. It is owned
// by a single cached repository and is not safe for concurrent use.
type Snapshot[T any] struct {
	items     []T
	populated bool
	refreshes int
}

// Populated reports whether a fetch has completed. An empty collection that
// was fetched counts as populated.
func (s *Snapshot[T]) Populated() bool {
	return s.populated
}

// Len returns the number of cached items.
func (s *Snapshot[T]) Len() int {
	return len(s.items)
}

// Refreshes counts completed fetches.
func (s *Snapshot[T]) Refreshes() int {
	return s.refreshes
}

// Items returns a copy of the cached items in fetch order.
func (s *Snapshot[T]) Items() []T {
	if s.items == nil {
		return []T{}
	}
	return slices.Clone(s.items)
}

// Filter returns copies of the items matching fn, in fetch order.
func (s *Snapshot[T]) Filter(fn func(T) bool) []T {
	out := make([]T, 0)
	for _, item := range s.items {
		if fn(item) {
			out = append(out, item)
		}
	}
	return out
}

// First returns the first item matching fn.
func (s *Snapshot[T]) First(fn func(T) bool) (T, bool) {
	for _, item := range s.items {
		if fn(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Any reports whether an item matches fn.
func (s *Snapshot[T]) Any(fn func(T) bool) bool {
	return slices.ContainsFunc(s.items, fn)
}

// Replace swaps the whole contents and marks the snapshot populated.
func (s *Snapshot[T]) Replace(items []T) {
	s.items = slices.Clone(items)
	s.populated = true
	s.refreshes++
}

// Reset returns the snapshot to the empty state.
func (s *Snapshot[T]) Reset() {
	s.items = nil
	s.populated = false
}

// Refresh fetches unconditionally and replaces the snapshot. When the fetch
// fails the previous contents are kept and the error is returned unchanged.
func Refresh[T any](ctx context.Context, s *Snapshot[T], fetch FetchFn[T]) error {
	items, err := fetch(ctx)
	if err != nil {
		return err
	}
	s.Replace(items)
	return nil
}

// Ensure fills an empty snapshot with a single fetch. A populated snapshot is
// left alone and fetch is not called.
func Ensure[T any](ctx context.Context, s *Snapshot[T], fetch FetchFn[T]) error {
	if s.populated {
		return nil
	}
	return Refresh(ctx, s, fetch)
}

// GetOrFetch returns the snapshot contents, filling the snapshot first when it
// is empty.
func GetOrFetch[T any](ctx context.Context, s *Snapshot[T], fetch FetchFn[T]) ([]T, error) {
	if err := Ensure(ctx, s, fetch); err != nil {
		return nil, err
	}
	return s.Items(), nil
}
