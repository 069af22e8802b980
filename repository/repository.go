package repository

import (
	"context"

	"github.com/uptrace/bun"
)

// KeyedEntity is implemented by entities that expose an identifying key.
// The registration layer only derives keyed repositories for entities whose
// EntityKey result type matches their Id field type.
type KeyedEntity[K comparable] interface {
	EntityKey() K
}

// Reader is the read capability shared by every repository shape.
type Reader[T any] interface {
	// Query returns a select over the whole collection.
	Query() *bun.SelectQuery
	// QueryWhere returns a select narrowed by the SQL criteria of p. The
	// in-memory half of p cannot be expressed in SQL and is not applied.
	QueryWhere(p Predicate[T]) *bun.SelectQuery
	// QueryInto returns a select over the collection's table scanning into
	// dest, a projection model of T.
	QueryInto(dest any) *bun.SelectQuery

	GetAll(ctx context.Context) ([]T, error)
	GetAllWhere(ctx context.Context, p Predicate[T]) ([]T, error)
	// GetOne returns the first match. Absence is reported as false, not as an error.
	GetOne(ctx context.Context, p Predicate[T]) (T, bool, error)
	Exists(ctx context.Context, p Predicate[T]) (bool, error)
}

// Writer is the write capability. Every call is atomic: either all items are
// written or none are.
type Writer[T any] interface {
	Add(ctx context.Context, items ...*T) error
	Update(ctx context.Context, items ...*T) error
	Delete(ctx context.Context, items ...*T) error
	DeleteWhere(ctx context.Context, p Predicate[T]) (int64, error)
	// ApplyPendingChanges flushes writes queued on a deferred session and
	// returns the number of affected rows.
	ApplyPendingChanges(ctx context.Context) (int64, error)
}

// KeyLookup reads entities by key. Missing keys are absence, not errors.
type KeyLookup[T any, K comparable] interface {
	GetByKey(ctx context.Context, key K) (T, bool, error)
	GetByKeys(ctx context.Context, keys ...K) ([]T, error)
	ExistsByKey(ctx context.Context, key K) (bool, error)
	// ExistsByKeys is true only when every distinct key has a row.
	ExistsByKeys(ctx context.Context, keys ...K) (bool, error)
}

// KeyDeleter removes entities by key.
type KeyDeleter[K comparable] interface {
	DeleteByKeys(ctx context.Context, keys ...K) (int64, error)
}

// Refresher reloads a cached collection from its source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ReadOnlyRepository is the read-only shape.
type ReadOnlyRepository[T any] interface {
	Reader[T]
}

// Repository is the plain read+write shape.
type Repository[T any] interface {
	Reader[T]
	Writer[T]
}

// KeyedReadOnlyRepository is the read-only shape with key lookups.
type KeyedReadOnlyRepository[T any, K comparable] interface {
	Reader[T]
	KeyLookup[T, K]
}

// KeyedRepository is the read+write shape with key lookups and deletes.
type KeyedRepository[T any, K comparable] interface {
	Repository[T]
	KeyLookup[T, K]
	KeyDeleter[K]
}

// CachedRepository is a Repository answering reads from an in-memory
// snapshot that is only reloaded by Refresh. Reads whose predicate carries
// SQL criteria are the exception: they always go to the database, even when
// the snapshot is loaded, and they never load an empty snapshot. Writes
// return an error matching errors.ErrUnsupported.
type CachedRepository[T any] interface {
	Repository[T]
	Refresher
}

// Projector is anything that can scan its collection into a projection model.
type Projector interface {
	QueryInto(dest any) *bun.SelectQuery
}

// QueryAs scans the collection behind r into projection type P.
func QueryAs[P any](ctx context.Context, r Projector) ([]P, error) {
	out := make([]P, 0)
	if err := r.QueryInto(&out).Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
