// Package store is the backing-store side of the repository scaffold.
//
// It opens a bun database for a configured driver, exposes the entity model
// metadata the registration layer enumerates, and hands out sessions: explicit
// connection handles that repositories receive at construction time.
//
//	db, err := store.Open(cfg, logger)
//	model, err := store.NewModel(db, registration.Entity[User]())
//	sess := store.NewSession(db)
//
// A Session is the unit of work for one repository instance. In the default
// immediate mode every write runs in its own transaction. A deferred session
// queues writes until SaveChanges runs them together and reports the number of
// affected rows.
//
// PooledFactory is the pooled connection factory. Cached repositories require
// one because each cached instance owns a session created for it alone.
package store
