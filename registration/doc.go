// Package registration wires repositories for every entity of a store.Model
// into a di.Container.
//
// Entities are described with Entity or Keyed when the model is built:
//
//	model, err := store.NewModel(db,
//		registration.Entity[User](),
//		registration.Keyed[Order, uuid.UUID](),
//	)
//
//	c := di.New()
//	registration.AddScopedSession(c, db)
//	registration.AddPooledFactory(c, store.NewPooledFactory(db, cfg.Pool))
//
//	report, err := registration.AddRepositories(c, model)
//
// An entity is keyed when it has a field named Id (see WithKeyField) and an
// EntityKey method returning that field's type.
package registration
