package registration

import (
	"reflect"

	"github.com/goliatone/go-repository-scaffold/store"
)

const keyMethod = "EntityKey"

// KeyBinding pairs an entity with the type and column of its key.
type KeyBinding struct {
	Entity  string
	Field   string
	Column  string
	KeyType reflect.Type
}

// FindKeyBinding reports whether et is keyed. An entity is keyed when it
// declares a field named exactly keyField and T or *T has an EntityKey method
// returning that field's type. Anything else is a keyless entity, not an
// error.
func FindKeyBinding(et store.EntityType, keyField string) (KeyBinding, bool) {
	field, ok := et.Field(keyField)
	if !ok || field.Type == nil || !field.Type.Comparable() {
		return KeyBinding{}, false
	}

	if et.Type == nil {
		return KeyBinding{}, false
	}

	for _, typ := range []reflect.Type{et.Type, reflect.PointerTo(et.Type)} {
		m, ok := typ.MethodByName(keyMethod)
		if !ok {
			continue
		}
		// method types obtained from a reflect.Type carry the receiver as
		// their first input
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		if m.Type.Out(0) == field.Type {
			return KeyBinding{
				Entity:  et.Name,
				Field:   field.GoName,
				Column:  field.Column,
				KeyType: field.Type,
			}, true
		}
	}

	return KeyBinding{}, false
}
