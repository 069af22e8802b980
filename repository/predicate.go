package repository

import (
	bunrepo "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Predicate filters a collection. It has two halves: SQL criteria that narrow
// the select sent to the database, and an optional Go function evaluated
// against loaded values. The zero value matches everything.
type Predicate[T any] struct {
	criteria []bunrepo.SelectCriteria
	match    func(T) bool
}

// Where builds a predicate from a bun WHERE fragment.
//
//	repository.Where[User]("?TableAlias.active = ?", true)
func Where[T any](query string, args ...any) Predicate[T] {
	return Criteria[T](func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(query, args...)
	})
}

// Criteria builds a predicate from go-repository-bun select criteria.
func Criteria[T any](criteria ...bunrepo.SelectCriteria) Predicate[T] {
	return Predicate[T]{criteria: criteria}
}

// Match builds an in-memory predicate. Cached repositories can answer it from
// their snapshot; database-backed repositories load rows and filter them.
func Match[T any](fn func(T) bool) Predicate[T] {
	return Predicate[T]{match: fn}
}

// And returns a predicate requiring both p and other.
func (p Predicate[T]) And(other Predicate[T]) Predicate[T] {
	out := Predicate[T]{
		criteria: append(append([]bunrepo.SelectCriteria{}, p.criteria...), other.criteria...),
	}

	switch {
	case p.match == nil:
		out.match = other.match
	case other.match == nil:
		out.match = p.match
	default:
		left, right := p.match, other.match
		out.match = func(v T) bool { return left(v) && right(v) }
	}
	return out
}

// HasCriteria reports whether p carries SQL criteria, which only the database
// can evaluate.
func (p Predicate[T]) HasCriteria() bool {
	return len(p.criteria) > 0
}

// HasMatch reports whether p carries an in-memory function.
func (p Predicate[T]) HasMatch() bool {
	return p.match != nil
}

// Matches evaluates the in-memory half against v.
func (p Predicate[T]) Matches(v T) bool {
	return p.match == nil || p.match(v)
}

// Apply adds the SQL criteria to q.
func (p Predicate[T]) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, c := range p.criteria {
		if c != nil {
			q = c(q)
		}
	}
	return q
}

func (p Predicate[T]) filter(items []T, limit int) []T {
	if p.match == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if p.match(item) {
			out = append(out, item)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}
