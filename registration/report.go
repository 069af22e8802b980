package registration

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/goliatone/go-repository-scaffold/pkg/di"
)

// Shape names one repository service shape.
type Shape string

const (
	ShapeRepository              Shape = "Repository"
	ShapeReadOnlyRepository      Shape = "ReadOnlyRepository"
	ShapeKeyedRepository         Shape = "KeyedRepository"
	ShapeKeyedReadOnlyRepository Shape = "KeyedReadOnlyRepository"
	ShapeCachedRepository        Shape = "CachedRepository"
)

// Entry is one binding attempt. Installed is false when the service was
// already bound, in which case Lifetime and Dependency describe the existing
// binding.
type Entry struct {
	Entity     string
	Shape      Shape
	Key        string
	Service    reflect.Type
	Lifetime   di.Lifetime
	Dependency di.Dependency
	Installed  bool
}

// Report describes what AddRepositories did.
type Report struct {
	Entries []Entry
	// Keyless lists entity types that got no keyed shapes.
	Keyless []string
	// Unsupported lists keyed entity types whose key type has no binding.
	Unsupported []string
	// Unbound lists entity types that were not described with Entity or Keyed.
	Unbound []string
}

func (r *Report) record(c *di.Container, entity string, shape Shape, key string, service reflect.Type, installed bool) {
	e := Entry{
		Entity:    entity,
		Shape:     shape,
		Key:       key,
		Service:   service,
		Installed: installed,
	}
	if b, ok := c.Lookup(service); ok {
		e.Lifetime = b.Lifetime
		e.Dependency = b.Dependency
	}
	r.Entries = append(r.Entries, e)
}

// Installed returns the entries that added a binding.
func (r *Report) Installed() []Entry {
	return r.filter(true)
}

// Skipped returns the entries whose service was already bound.
func (r *Report) Skipped() []Entry {
	return r.filter(false)
}

func (r *Report) filter(installed bool) []Entry {
	out := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Installed == installed {
			out = append(out, e)
		}
	}
	return out
}

// WriteTo renders the report as a fixed-width table.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	row := func(entity, shape, key, lifetime, dep, status string) {
		fmt.Fprintf(&b, "%-10s %-24s %-10s %-9s %-8s %s\n", entity, shape, key, lifetime, dep, status)
	}

	row("entity", "shape", "key", "lifetime", "needs", "status")
	for _, e := range r.Entries {
		key := e.Key
		if key == "" {
			key = "-"
		}
		status := "installed"
		if !e.Installed {
			status = "skipped"
		}
		row(e.Entity, string(e.Shape), key, e.Lifetime.String(), e.Dependency.String(), status)
	}

	section := func(name string, entities []string) {
		if len(entities) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", name, strings.Join(entities, ", "))
		}
	}
	section("keyless", r.Keyless)
	section("unsupported key", r.Unsupported)
	section("unbound", r.Unbound)

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (r *Report) String() string {
	var b strings.Builder
	r.WriteTo(&b)
	return b.String()
}
