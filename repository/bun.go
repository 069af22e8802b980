package repository

import (
	"context"
	"reflect"

	bunrepo "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-scaffold/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// BunRepository is the database-backed Repository for T. It drives a
// go-repository-bun Repository through its Tx methods: reads use the
// session's handle, writes go through Session.Exec so each call is one
// transaction, or is queued when the session is deferred.
type BunRepository[T any] struct {
	session *store.Session
	records bunrepo.Repository[*T]
	table   *schema.Table
}

var (
	_ Repository[any]         = (*BunRepository[any])(nil)
	_ ReadOnlyRepository[any] = (*BunRepository[any])(nil)
)

// New creates a repository for T on session.
func New[T any](session *store.Session) *BunRepository[T] {
	db := session.Root()
	table := db.Table(reflect.TypeFor[T]())
	return &BunRepository[T]{
		session: session,
		records: bunrepo.NewRepository[*T](db, handlers[T](table)),
		table:   table,
	}
}

// handlers hands go-repository-bun a record constructor. Entities whose
// single primary key is a uuid.UUID get a fresh key on insert when theirs is
// zero; every other key is left to the caller or the database.
func handlers[T any](table *schema.Table) bunrepo.ModelHandlers[*T] {
	var pk *schema.Field
	if len(table.PKs) == 1 && table.PKs[0].IndirectType == reflect.TypeFor[uuid.UUID]() {
		pk = table.PKs[0]
	}

	return bunrepo.ModelHandlers[*T]{
		NewRecord: func() *T { return new(T) },
		GetID: func(item *T) uuid.UUID {
			if pk == nil {
				return uuid.Nil
			}
			id, _ := pk.Value(reflect.ValueOf(item).Elem()).Interface().(uuid.UUID)
			return id
		},
		SetID: func(item *T, id uuid.UUID) {
			if pk == nil {
				return
			}
			pk.Value(reflect.ValueOf(item).Elem()).Set(reflect.ValueOf(id))
		},
		GetIdentifier: func() string { return "id" },
	}
}

// Session returns the session the repository was created with.
func (r *BunRepository[T]) Session() *store.Session {
	return r.session
}

func (r *BunRepository[T]) db() bun.IDB {
	return r.session.DB()
}

func (r *BunRepository[T]) Query() *bun.SelectQuery {
	return store.Collection[T](r.db())
}

func (r *BunRepository[T]) QueryWhere(p Predicate[T]) *bun.SelectQuery {
	return p.Apply(r.Query())
}

func (r *BunRepository[T]) QueryInto(dest any) *bun.SelectQuery {
	return r.db().NewSelect().
		Model(dest).
		ModelTableExpr("? AS ?TableAlias", bun.Ident(r.table.Name))
}

func (r *BunRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	return r.find(ctx, Predicate[T]{})
}

func (r *BunRepository[T]) GetAllWhere(ctx context.Context, p Predicate[T]) ([]T, error) {
	return r.find(ctx, p)
}

func (r *BunRepository[T]) GetOne(ctx context.Context, p Predicate[T]) (T, bool, error) {
	var zero T
	if p.HasMatch() {
		items, err := r.find(ctx, p)
		if err != nil || len(items) == 0 {
			return zero, false, err
		}
		return items[0], true, nil
	}
	return r.get(ctx, r.db(), p.criteria...)
}

func (r *BunRepository[T]) Exists(ctx context.Context, p Predicate[T]) (bool, error) {
	if p.HasMatch() {
		_, ok, err := r.GetOne(ctx, p)
		return ok, err
	}
	n, err := r.count(ctx, r.db(), p.criteria...)
	return n > 0, err
}

// find lists every row narrowed by the SQL half of p and filters them with
// the in-memory half.
func (r *BunRepository[T]) find(ctx context.Context, p Predicate[T]) ([]T, error) {
	rows, err := r.list(ctx, r.db(), p.criteria...)
	if err != nil {
		return nil, err
	}
	return p.filter(values(rows), 0), nil
}

// go-repository-bun maps driver errors into types that do not unwrap, so a
// context that is already done is reported before the query runs.

func (r *BunRepository[T]) list(ctx context.Context, db bun.IDB, criteria ...bunrepo.SelectCriteria) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// ListTx pages by default; an explicit page in criteria still wins.
	criteria = append([]bunrepo.SelectCriteria{bunrepo.SelectPaginate(0, 0)}, criteria...)
	rows, _, err := r.records.ListTx(ctx, db, criteria...)
	return rows, err
}

func (r *BunRepository[T]) get(ctx context.Context, db bun.IDB, criteria ...bunrepo.SelectCriteria) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	row, err := r.records.GetTx(ctx, db, criteria...)
	if bunrepo.IsRecordNotFound(err) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return *row, true, nil
}

func (r *BunRepository[T]) count(ctx context.Context, db bun.IDB, criteria ...bunrepo.SelectCriteria) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.records.CountTx(ctx, db, criteria...)
}

func (r *BunRepository[T]) Add(ctx context.Context, items ...*T) error {
	return r.each(ctx, items, func(ctx context.Context, db bun.IDB, item *T) error {
		_, err := r.records.CreateTx(ctx, db, item)
		return err
	})
}

// Update writes every column of each item, zero values included. An item
// whose row no longer exists fails the whole call.
func (r *BunRepository[T]) Update(ctx context.Context, items ...*T) error {
	return r.each(ctx, items, func(ctx context.Context, db bun.IDB, item *T) error {
		_, err := r.records.UpdateTx(ctx, db, item, r.setColumns(item))
		return err
	})
}

func (r *BunRepository[T]) Delete(ctx context.Context, items ...*T) error {
	return r.each(ctx, items, func(ctx context.Context, db bun.IDB, item *T) error {
		return r.records.DeleteTx(ctx, db, item)
	})
}

// DeleteWhere selects the matching rows and deletes them by primary key in
// the same transaction.
func (r *BunRepository[T]) DeleteWhere(ctx context.Context, p Predicate[T]) (int64, error) {
	return r.session.Exec(ctx, func(ctx context.Context, db bun.IDB) (int64, error) {
		rows, err := r.list(ctx, db, p.criteria...)
		if err != nil {
			return 0, err
		}
		var n int64
		for _, row := range rows {
			if !p.Matches(*row) {
				continue
			}
			if err := r.records.DeleteTx(ctx, db, row); err != nil {
				return 0, err
			}
			n++
		}
		return n, nil
	})
}

func (r *BunRepository[T]) ApplyPendingChanges(ctx context.Context) (int64, error) {
	return r.session.SaveChanges(ctx)
}

// setColumns sets every data column explicitly. UpdateTx omits zero values
// when it builds SET from the model, which would drop writes like Name = "".
func (r *BunRepository[T]) setColumns(item *T) bunrepo.UpdateCriteria {
	return func(q *bun.UpdateQuery) *bun.UpdateQuery {
		v := reflect.ValueOf(item).Elem()
		for _, f := range r.table.DataFields {
			q = q.Set("? = ?", bun.Ident(f.Name), f.Value(v).Interface())
		}
		return q
	}
}

// each runs write for every non-nil item inside one session operation. Each
// written item counts as one affected row.
func (r *BunRepository[T]) each(ctx context.Context, items []*T, write func(context.Context, bun.IDB, *T) error) error {
	batch := make([]*T, 0, len(items))
	for _, item := range items {
		if item != nil {
			batch = append(batch, item)
		}
	}
	if len(batch) == 0 {
		return ctx.Err()
	}

	_, err := r.session.Exec(ctx, func(ctx context.Context, db bun.IDB) (int64, error) {
		for _, item := range batch {
			if err := write(ctx, db, item); err != nil {
				return 0, err
			}
		}
		return int64(len(batch)), nil
	})
	return err
}

func values[T any](rows []*T) []T {
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out
}
