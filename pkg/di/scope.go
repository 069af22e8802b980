package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// ResolveError reports a failed resolution.
type ResolveError struct {
	Service reflect.Type
	Err     error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("di: resolve %v: %v", e.Service, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Scope is one unit of work. Services bound as Scoped are shared by every
// resolution made through the same Scope.
type Scope struct {
	container *Container
	ctx       context.Context
	instances *xsync.MapOf[reflect.Type, any]
}

// Context returns the context the scope was created with.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Container returns the container the scope resolves from.
func (s *Scope) Container() *Container {
	return s.container
}

// Resolve builds or reuses the instance bound to S.
func Resolve[S any](s *Scope) (S, error) {
	var zero S
	service := reflect.TypeFor[S]()

	v, err := s.resolve(service)
	if err != nil {
		return zero, err
	}
	out, ok := v.(S)
	if !ok {
		return zero, &ResolveError{Service: service, Err: fmt.Errorf("factory returned %T", v)}
	}
	return out, nil
}

// MustResolve is Resolve that panics on failure.
func MustResolve[S any](s *Scope) S {
	v, err := Resolve[S](s)
	if err != nil {
		panic(err)
	}
	return v
}

func (s *Scope) resolve(service reflect.Type) (any, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, &ResolveError{Service: service, Err: err}
	}

	b, ok := s.container.bindings.Load(service)
	if !ok {
		return nil, &ResolveError{Service: service, Err: ErrNotRegistered}
	}

	switch b.Lifetime {
	case Singleton:
		return s.cached(s.container.singletons, b)
	case Scoped:
		return s.cached(s.instances, b)
	default:
		return s.build(b)
	}
}

// cached returns the instance stored in instances, building it on first use.
// When two resolutions race the first stored instance wins.
func (s *Scope) cached(instances *xsync.MapOf[reflect.Type, any], b *Binding) (any, error) {
	if v, ok := instances.Load(b.Service); ok {
		return v, nil
	}
	v, err := s.build(b)
	if err != nil {
		return nil, err
	}
	actual, _ := instances.LoadOrStore(b.Service, v)
	return actual, nil
}

func (s *Scope) build(b *Binding) (any, error) {
	v, err := b.factory(s)
	if err != nil {
		return nil, &ResolveError{Service: b.Service, Err: err}
	}
	return v, nil
}
