package di

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrNotRegistered is returned when a service has no binding.
var ErrNotRegistered = errors.New("di: service not registered")

// Lifetime controls how often a binding's factory runs.
type Lifetime int

const (
	// Transient builds a new instance on every resolution.
	Transient Lifetime = iota
	// Scoped builds one instance per Scope.
	Scoped
	// Singleton builds one instance per Container.
	Singleton
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	case Singleton:
		return "singleton"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// Dependency records what a binding's factory draws from the scope. It is
// informational: factories resolve their own dependencies.
type Dependency int

const (
	DependsOnNothing Dependency = iota
	// DependsOnSession marks factories that use the scoped *store.Session.
	DependsOnSession
	// DependsOnFactory marks factories that open their own session through
	// the registered store.ConnFactory.
	DependsOnFactory
)

func (d Dependency) String() string {
	switch d {
	case DependsOnNothing:
		return "none"
	case DependsOnSession:
		return "session"
	case DependsOnFactory:
		return "factory"
	default:
		return fmt.Sprintf("dependency(%d)", int(d))
	}
}

// Factory builds an instance within a scope.
type Factory func(s *Scope) (any, error)

// Binding maps a service type to the factory that implements it.
type Binding struct {
	Service        reflect.Type
	Implementation reflect.Type
	Lifetime       Lifetime
	Dependency     Dependency

	factory Factory
	seq     uint64
}

// Container holds service bindings. The first binding registered for a
// service wins; later attempts are ignored. It is safe for concurrent use.
type Container struct {
	bindings   *xsync.MapOf[reflect.Type, *Binding]
	singletons *xsync.MapOf[reflect.Type, any]
	seq        atomic.Uint64
}

// New creates an empty container.
func New() *Container {
	return &Container{
		bindings:   xsync.NewMapOf[reflect.Type, *Binding](),
		singletons: xsync.NewMapOf[reflect.Type, any](),
	}
}

// ServiceOf returns the service key for S.
func ServiceOf[S any]() reflect.Type {
	return reflect.TypeFor[S]()
}

// TryAdd registers a binding from service S to implementation I unless S is
// already bound. It reports whether the binding was installed. I must be
// assignable to S.
//
//	di.TryAdd[repository.Repository[User]](c, di.Transient, di.DependsOnSession,
//		func(s *di.Scope) (*repository.BunRepository[User], error) { ... })
func TryAdd[S, I any](c *Container, lifetime Lifetime, dep Dependency, factory func(*Scope) (I, error)) bool {
	service, impl := reflect.TypeFor[S](), reflect.TypeFor[I]()
	if !impl.AssignableTo(service) {
		panic(fmt.Sprintf("di: %s is not assignable to %s", impl, service))
	}

	b := &Binding{
		Service:        service,
		Implementation: impl,
		Lifetime:       lifetime,
		Dependency:     dep,
		factory: func(s *Scope) (any, error) {
			return factory(s)
		},
	}
	return c.add(b)
}

// TryAddTransient is TryAdd with a transient lifetime.
func TryAddTransient[S, I any](c *Container, dep Dependency, factory func(*Scope) (I, error)) bool {
	return TryAdd[S](c, Transient, dep, factory)
}

// TryAddScoped is TryAdd with a scoped lifetime.
func TryAddScoped[S, I any](c *Container, dep Dependency, factory func(*Scope) (I, error)) bool {
	return TryAdd[S](c, Scoped, dep, factory)
}

// TryAddSingleton is TryAdd with a singleton lifetime.
func TryAddSingleton[S, I any](c *Container, dep Dependency, factory func(*Scope) (I, error)) bool {
	return TryAdd[S](c, Singleton, dep, factory)
}

// TryAddInstance binds S to an existing value.
func TryAddInstance[S any](c *Container, v S) bool {
	installed := TryAdd[S](c, Singleton, DependsOnNothing, func(*Scope) (S, error) {
		return v, nil
	})
	if installed {
		c.singletons.LoadOrStore(reflect.TypeFor[S](), v)
	}
	return installed
}

func (c *Container) add(b *Binding) bool {
	b.seq = c.seq.Add(1)
	_, loaded := c.bindings.LoadOrStore(b.Service, b)
	return !loaded
}

// Has reports whether service is bound.
func (c *Container) Has(service reflect.Type) bool {
	_, ok := c.bindings.Load(service)
	return ok
}

// Lookup returns the binding for service.
func (c *Container) Lookup(service reflect.Type) (Binding, bool) {
	b, ok := c.bindings.Load(service)
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// Len returns the number of bindings.
func (c *Container) Len() int {
	return c.bindings.Size()
}

// Bindings lists every binding in registration order.
func (c *Container) Bindings() []Binding {
	out := make([]*Binding, 0, c.bindings.Size())
	c.bindings.Range(func(_ reflect.Type, b *Binding) bool {
		out = append(out, b)
		return true
	})
	slices.SortFunc(out, func(a, b *Binding) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	bindings := make([]Binding, len(out))
	for i, b := range out {
		bindings[i] = *b
	}
	return bindings
}

// NewScope starts a resolution scope. Scoped services are built at most once
// per scope. ctx is handed to factories through Scope.Context; a nil ctx
// means context.Background.
func (c *Container) NewScope(ctx context.Context) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Scope{
		container: c,
		ctx:       ctx,
		instances: xsync.NewMapOf[reflect.Type, any](),
	}
}
