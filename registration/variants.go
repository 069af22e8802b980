package registration

import (
	"reflect"

	"github.com/goliatone/go-repository-scaffold/pkg/di"
	"github.com/goliatone/go-repository-scaffold/repository"
	"github.com/goliatone/go-repository-scaffold/repositorycache"
	"github.com/goliatone/go-repository-scaffold/store"
	"github.com/google/uuid"
)

// binder knows how to bind every repository shape for one entity type. The
// values returned by Entity and Keyed are binders; they are handed to
// store.NewModel so each EntityType carries its own binder as Source.
type binder interface {
	store.Entity
	bindPlain(c *di.Container, et store.EntityType, r *Report)
	// bindKeyed reports false when the key type has no binding.
	bindKeyed(c *di.Container, kb KeyBinding, r *Report) bool
	bindCached(c *di.Container, et store.EntityType, r *Report)
}

type entity[T any] struct{}

// Entity describes T for store.NewModel. Keyed shapes are bound when T is
// keyed by one of the built-in key types: the predeclared integer types,
// string or uuid.UUID. Use Keyed for any other key type, including named
// types such as type UserID int64.
func Entity[T any]() store.Entity {
	return entity[T]{}
}

func (entity[T]) ModelType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (entity[T]) bindPlain(c *di.Container, et store.EntityType, r *Report) {
	bindPlain[T](c, et, r)
}

func (entity[T]) bindCached(c *di.Container, et store.EntityType, r *Report) {
	bindCached[T](c, et, r)
}

func (entity[T]) bindKeyed(c *di.Container, kb KeyBinding, r *Report) bool {
	switch kb.KeyType {
	case reflect.TypeFor[int]():
		bindKeyed[T, int](c, kb, r)
	case reflect.TypeFor[int8]():
		bindKeyed[T, int8](c, kb, r)
	case reflect.TypeFor[int16]():
		bindKeyed[T, int16](c, kb, r)
	case reflect.TypeFor[int32]():
		bindKeyed[T, int32](c, kb, r)
	case reflect.TypeFor[int64]():
		bindKeyed[T, int64](c, kb, r)
	case reflect.TypeFor[uint]():
		bindKeyed[T, uint](c, kb, r)
	case reflect.TypeFor[uint8]():
		bindKeyed[T, uint8](c, kb, r)
	case reflect.TypeFor[uint16]():
		bindKeyed[T, uint16](c, kb, r)
	case reflect.TypeFor[uint32]():
		bindKeyed[T, uint32](c, kb, r)
	case reflect.TypeFor[uint64]():
		bindKeyed[T, uint64](c, kb, r)
	case reflect.TypeFor[string]():
		bindKeyed[T, string](c, kb, r)
	case reflect.TypeFor[uuid.UUID]():
		bindKeyed[T, uuid.UUID](c, kb, r)
	default:
		return false
	}
	return true
}

type keyed[T repository.KeyedEntity[K], K comparable] struct {
	entity[T]
}

// Keyed describes T for store.NewModel with an explicit key type K. The key
// inspector must still find an Id field of type K for keyed shapes to bind.
func Keyed[T repository.KeyedEntity[K], K comparable]() store.Entity {
	return keyed[T, K]{}
}

func (keyed[T, K]) bindKeyed(c *di.Container, kb KeyBinding, r *Report) bool {
	if kb.KeyType != reflect.TypeFor[K]() {
		return false
	}
	bindKeyed[T, K](c, kb, r)
	return true
}

func sessionOf(s *di.Scope) (*store.Session, error) {
	return di.Resolve[*store.Session](s)
}

func bindPlain[T any](c *di.Container, et store.EntityType, r *Report) {
	factory := func(s *di.Scope) (*repository.BunRepository[T], error) {
		sess, err := sessionOf(s)
		if err != nil {
			return nil, err
		}
		return repository.New[T](sess), nil
	}

	r.record(c, et.Name, ShapeRepository, "",
		di.ServiceOf[repository.Repository[T]](),
		di.TryAddTransient[repository.Repository[T]](c, di.DependsOnSession, factory))
	r.record(c, et.Name, ShapeReadOnlyRepository, "",
		di.ServiceOf[repository.ReadOnlyRepository[T]](),
		di.TryAddTransient[repository.ReadOnlyRepository[T]](c, di.DependsOnSession, factory))
}

func bindKeyed[T any, K comparable](c *di.Container, kb KeyBinding, r *Report) {
	factory := func(s *di.Scope) (*repository.BunKeyedRepository[T, K], error) {
		sess, err := sessionOf(s)
		if err != nil {
			return nil, err
		}
		return repository.NewKeyed[T, K](sess, kb.Column), nil
	}

	key := kb.KeyType.String()
	r.record(c, kb.Entity, ShapeKeyedRepository, key,
		di.ServiceOf[repository.KeyedRepository[T, K]](),
		di.TryAddTransient[repository.KeyedRepository[T, K]](c, di.DependsOnSession, factory))
	r.record(c, kb.Entity, ShapeKeyedReadOnlyRepository, key,
		di.ServiceOf[repository.KeyedReadOnlyRepository[T, K]](),
		di.TryAddTransient[repository.KeyedReadOnlyRepository[T, K]](c, di.DependsOnSession, factory))
}

// bindCached gives every cached repository its own session from the
// registered factory, so instances never share a connection handle.
func bindCached[T any](c *di.Container, et store.EntityType, r *Report) {
	factory := func(s *di.Scope) (*repositorycache.CachedRepository[T], error) {
		f, err := di.Resolve[store.ConnFactory](s)
		if err != nil {
			return nil, err
		}
		sess, err := f.NewSession(s.Context())
		if err != nil {
			return nil, err
		}
		return repositorycache.New[T](repository.New[T](sess)), nil
	}

	r.record(c, et.Name, ShapeCachedRepository, "",
		di.ServiceOf[repository.CachedRepository[T]](),
		di.TryAddScoped[repository.CachedRepository[T]](c, di.DependsOnFactory, factory))
}
