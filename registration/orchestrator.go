package registration

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-repository-scaffold/pkg/di"
	"github.com/goliatone/go-repository-scaffold/store"
	"go.uber.org/zap"
)

// AddRepositories binds the repository shapes of every entity type in model:
//
//   - Repository[T] and ReadOnlyRepository[T] for every type
//   - KeyedRepository[T, K] and KeyedReadOnlyRepository[T, K] for keyed types
//   - CachedRepository[T] for every type when cached repositories are enabled
//
// Plain and keyed shapes are transient and draw the scoped *store.Session.
// Cached shapes are scoped and open their own session through the
// store.ConnFactory, which must already be bound; otherwise a
// *ConfigurationError is returned and no cached shape is bound. Bindings made
// before the error stay in place.
//
// Services that are already bound are left alone, so calling AddRepositories
// again is harmless.
func AddRepositories(c *di.Container, model *store.Model, opts ...Option) (*Report, error) {
	if c == nil {
		return nil, errors.New("registration: nil container")
	}
	if model == nil {
		return nil, errors.New("registration: nil model")
	}

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	log := o.Logger.Named("registration")

	type bound struct {
		et     store.EntityType
		binder binder
	}

	report := &Report{}
	entities := make([]bound, 0)

	for _, et := range model.EntityTypes() {
		b, ok := et.Source.(binder)
		if !ok {
			log.Warn("entity type has no repository binder, skipping",
				zap.String("entity", et.Name),
				zap.Stringer("type", et.Type),
			)
			report.Unbound = append(report.Unbound, et.Name)
			continue
		}

		b.bindPlain(c, et, report)

		kb, ok := FindKeyBinding(et, o.KeyField)
		switch {
		case !ok:
			log.Debug("entity type is keyless", zap.String("entity", et.Name), zap.String("key_field", o.KeyField))
			report.Keyless = append(report.Keyless, et.Name)
		case !b.bindKeyed(c, kb, report):
			log.Warn("unsupported key type, keyed repositories not bound",
				zap.String("entity", et.Name),
				zap.Stringer("key_type", kb.KeyType),
				zap.String("hint", fmt.Sprintf("describe the entity with registration.Keyed[%s, %s]", et.Type.Name(), kb.KeyType)),
			)
			report.Unsupported = append(report.Unsupported, et.Name)
		}

		entities = append(entities, bound{et: et, binder: b})
	}

	if o.EnableCachedRepositories {
		if !c.Has(di.ServiceOf[store.ConnFactory]()) {
			err := &ConfigurationError{
				Option:      "EnableCachedRepositories",
				Requirement: "a store.ConnFactory binding",
				Message:     "bind a session factory before adding repositories, or disable cached repositories",
			}
			log.Error("cached repositories not bound", zap.Error(err))
			logEntries(log, report)
			return report, err
		}

		for _, e := range entities {
			e.binder.bindCached(c, e.et, report)
		}
	}

	logEntries(log, report)
	return report, nil
}

func logEntries(log *zap.Logger, report *Report) {
	for _, e := range report.Entries {
		msg := "repository bound"
		if !e.Installed {
			msg = "repository already bound, skipped"
		}
		log.Debug(msg,
			zap.String("entity", e.Entity),
			zap.String("shape", string(e.Shape)),
			zap.Stringer("lifetime", e.Lifetime),
		)
	}
	log.Info("repositories registered",
		zap.Int("installed", len(report.Installed())),
		zap.Int("skipped", len(report.Skipped())),
	)
}
