package store

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/uptrace/bun"
)

// Entity is anything that names a persisted struct type. Registration binders
// implement it so one value both describes the model and knows how to bind
// repositories for it.
type Entity interface {
	ModelType() reflect.Type
}

// Field is one declared, persisted field of an entity.
type Field struct {
	GoName string
	Column string
	Type   reflect.Type
	PK     bool
}

// EntityType describes an entity known to the backing store.
type EntityType struct {
	Name   string
	Type   reflect.Type
	Table  string
	Fields []Field
	Source Entity
}

// Field looks up a declared field by its exact Go name.
func (et EntityType) Field(goName string) (Field, bool) {
	for _, f := range et.Fields {
		if f.GoName == goName {
			return f, true
		}
	}
	return Field{}, false
}

// Model is the entity metadata of one backing store. It is built once at
// startup and never mutated afterwards.
type Model struct {
	db    *bun.DB
	types []EntityType
	index map[reflect.Type]int
}

// NewModel reads bun's table metadata for each entity. Entities registered
// more than once keep their first registration.
func NewModel(db *bun.DB, entities ...Entity) (*Model, error) {
	m := &Model{
		db:    db,
		index: make(map[reflect.Type]int, len(entities)),
	}

	for _, e := range entities {
		if e == nil {
			return nil, fmt.Errorf("store: nil entity")
		}

		typ := e.ModelType()
		if typ == nil || typ.Kind() != reflect.Struct {
			return nil, fmt.Errorf("store: entity model must be a struct type, got %v", typ)
		}
		if _, ok := m.index[typ]; ok {
			continue
		}

		table := db.Table(typ)
		et := EntityType{
			Name:   table.ModelName,
			Type:   typ,
			Table:  table.Name,
			Source: e,
		}
		for _, f := range table.Fields {
			et.Fields = append(et.Fields, Field{
				GoName: f.GoName,
				Column: f.Name,
				Type:   f.StructField.Type,
				PK:     f.IsPK,
			})
		}

		m.index[typ] = len(m.types)
		m.types = append(m.types, et)
	}

	return m, nil
}

// DB returns the bun handle the model was read from.
func (m *Model) DB() *bun.DB {
	return m.db
}

// EntityTypes lists the known entity types in registration order.
func (m *Model) EntityTypes() []EntityType {
	return slices.Clone(m.types)
}

// Lookup returns the descriptor for typ.
func (m *Model) Lookup(typ reflect.Type) (EntityType, bool) {
	i, ok := m.index[typ]
	if !ok {
		return EntityType{}, false
	}
	return m.types[i], true
}

// CreateTables creates a table for every entity that does not have one yet.
func (m *Model) CreateTables(ctx context.Context) error {
	for _, et := range m.types {
		model := reflect.New(et.Type).Interface()
		if _, err := m.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("store: create table %s: %w", et.Table, err)
		}
	}
	return nil
}

// Collection returns a select query over the whole collection of T.
func Collection[T any](db bun.IDB) *bun.SelectQuery {
	return db.NewSelect().Model((*T)(nil))
}
