package repository

import (
	"context"

	bunrepo "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-scaffold/store"
	"github.com/uptrace/bun"
)

// BunKeyedRepository adds key lookups and key deletes on top of BunRepository.
// column is the database column holding the key.
type BunKeyedRepository[T any, K comparable] struct {
	*BunRepository[T]
	column string
}

var (
	_ KeyedRepository[any, int]         = (*BunKeyedRepository[any, int])(nil)
	_ KeyedReadOnlyRepository[any, int] = (*BunKeyedRepository[any, int])(nil)
)

// NewKeyed creates a keyed repository for T on session.
func NewKeyed[T any, K comparable](session *store.Session, column string) *BunKeyedRepository[T, K] {
	return &BunKeyedRepository[T, K]{
		BunRepository: New[T](session),
		column:        column,
	}
}

// KeyColumn returns the column keys are matched against.
func (r *BunKeyedRepository[T, K]) KeyColumn() string {
	return r.column
}

func (r *BunKeyedRepository[T, K]) GetByKey(ctx context.Context, key K) (T, bool, error) {
	return r.get(ctx, r.db(), r.keyIs(key))
}

func (r *BunKeyedRepository[T, K]) GetByKeys(ctx context.Context, keys ...K) ([]T, error) {
	unique := distinct(keys)
	if len(unique) == 0 {
		return []T{}, ctx.Err()
	}

	rows, err := r.list(ctx, r.db(), bunrepo.SelectColumnIn(r.column, unique))
	if err != nil {
		return nil, err
	}
	return values(rows), nil
}

func (r *BunKeyedRepository[T, K]) ExistsByKey(ctx context.Context, key K) (bool, error) {
	n, err := r.count(ctx, r.db(), r.keyIs(key))
	return n > 0, err
}

// ExistsByKeys is vacuously true for zero keys. Duplicate keys count once.
func (r *BunKeyedRepository[T, K]) ExistsByKeys(ctx context.Context, keys ...K) (bool, error) {
	unique := distinct(keys)
	if len(unique) == 0 {
		return true, ctx.Err()
	}

	n, err := r.count(ctx, r.db(), bunrepo.SelectColumnIn(r.column, unique))
	if err != nil {
		return false, err
	}
	return n == len(unique), nil
}

// DeleteByKeys deletes the rows holding keys in one transaction and reports
// how many there were. Zero keys is a no-op that touches nothing.
func (r *BunKeyedRepository[T, K]) DeleteByKeys(ctx context.Context, keys ...K) (int64, error) {
	unique := distinct(keys)
	if len(unique) == 0 {
		return 0, ctx.Err()
	}

	return r.session.Exec(ctx, func(ctx context.Context, db bun.IDB) (int64, error) {
		n, err := r.count(ctx, db, bunrepo.SelectColumnIn(r.column, unique))
		if err != nil || n == 0 {
			return 0, err
		}
		// DeleteManyTx runs on the repository's own handle, not db
		err = r.records.DeleteWhereTx(ctx, db, func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("? IN (?)", bun.Ident(r.column), bun.In(unique))
		})
		if err != nil {
			return 0, err
		}
		return int64(n), nil
	})
}

func (r *BunKeyedRepository[T, K]) keyIs(key K) bunrepo.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(r.column), key)
	}
}

func distinct[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
