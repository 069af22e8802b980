package registration

import (
	"github.com/goliatone/go-repository-scaffold/pkg/di"
	"github.com/goliatone/go-repository-scaffold/store"
	"github.com/uptrace/bun"
)

// AddScopedSession binds *store.Session as a scoped service over db, so every
// plain and keyed repository resolved in one scope shares one session.
func AddScopedSession(c *di.Container, db bun.IDB, opts ...store.SessionOption) bool {
	return di.TryAddScoped[*store.Session](c, di.DependsOnNothing, func(*di.Scope) (*store.Session, error) {
		return store.NewSession(db, opts...), nil
	})
}

// AddPooledFactory binds f as the store.ConnFactory cached repositories draw
// their sessions from.
func AddPooledFactory(c *di.Container, f store.ConnFactory) bool {
	return di.TryAddInstance[store.ConnFactory](c, f)
}
