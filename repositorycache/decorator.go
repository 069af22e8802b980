package repositorycache

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-repository-scaffold/cache"
	"github.com/goliatone/go-repository-scaffold/repository"
	"github.com/uptrace/bun"
)

var (
	_ repository.CachedRepository[any] = (*CachedRepository[any])(nil)
	_ repository.Repository[any]       = (*CachedRepository[any])(nil)
)

// CachedRepository decorates a base repository with a whole-collection
// snapshot. The first read loads every row; later reads are answered from
// memory until Refresh is called.
type CachedRepository[T any] struct {
	base repository.Repository[T]
	snap cache.Snapshot[T]
	name string
}

// New creates a CachedRepository over base. Nothing is loaded until the first
// read.
func New[T any](base repository.Repository[T]) *CachedRepository[T] {
	return &CachedRepository[T]{
		base: base,
		name: fmt.Sprintf("CachedRepository[%s]", reflect.TypeFor[T]().Name()),
	}
}

// Populated reports whether the snapshot has been loaded.
func (c *CachedRepository[T]) Populated() bool {
	return c.snap.Populated()
}

// Refreshes returns how many times the snapshot has been loaded.
func (c *CachedRepository[T]) Refreshes() int {
	return c.snap.Refreshes()
}

// Query builders are not cached; they pass through to the base repository.

func (c *CachedRepository[T]) Query() *bun.SelectQuery {
	return c.base.Query()
}

func (c *CachedRepository[T]) QueryWhere(p repository.Predicate[T]) *bun.SelectQuery {
	return c.base.QueryWhere(p)
}

func (c *CachedRepository[T]) QueryInto(dest any) *bun.SelectQuery {
	return c.base.QueryInto(dest)
}

// GetAll returns a copy of the snapshot, loading it on first use.
func (c *CachedRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	return cache.GetOrFetch(ctx, &c.snap, c.base.GetAll)
}

// GetAllWhere filters the snapshot. Predicates carrying SQL criteria cannot be
// evaluated in memory and go to the base repository.
func (c *CachedRepository[T]) GetAllWhere(ctx context.Context, p repository.Predicate[T]) ([]T, error) {
	if p.HasCriteria() {
		return c.base.GetAllWhere(ctx, p)
	}
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	return c.snap.Filter(p.Matches), nil
}

func (c *CachedRepository[T]) GetOne(ctx context.Context, p repository.Predicate[T]) (T, bool, error) {
	if p.HasCriteria() {
		return c.base.GetOne(ctx, p)
	}
	if err := c.ensure(ctx); err != nil {
		var zero T
		return zero, false, err
	}
	item, ok := c.snap.First(p.Matches)
	return item, ok, nil
}

func (c *CachedRepository[T]) Exists(ctx context.Context, p repository.Predicate[T]) (bool, error) {
	if p.HasCriteria() {
		return c.base.Exists(ctx, p)
	}
	if err := c.ensure(ctx); err != nil {
		return false, err
	}
	return c.snap.Any(p.Matches), nil
}

// Refresh reloads the snapshot from the base repository, whether or not it
// was loaded before. On failure the previous snapshot is kept.
func (c *CachedRepository[T]) Refresh(ctx context.Context) error {
	return cache.Refresh(ctx, &c.snap, c.base.GetAll)
}

func (c *CachedRepository[T]) Add(ctx context.Context, items ...*T) error {
	return c.unsupported("Add")
}

func (c *CachedRepository[T]) Update(ctx context.Context, items ...*T) error {
	return c.unsupported("Update")
}

func (c *CachedRepository[T]) Delete(ctx context.Context, items ...*T) error {
	return c.unsupported("Delete")
}

func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, p repository.Predicate[T]) (int64, error) {
	return 0, c.unsupported("DeleteWhere")
}

func (c *CachedRepository[T]) ApplyPendingChanges(ctx context.Context) (int64, error) {
	return 0, c.unsupported("ApplyPendingChanges")
}

func (c *CachedRepository[T]) ensure(ctx context.Context) error {
	return cache.Ensure(ctx, &c.snap, c.base.GetAll)
}

func (c *CachedRepository[T]) unsupported(op string) error {
	return repository.NewUnsupportedOperationError(c.name, op)
}
