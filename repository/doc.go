// Package repository defines the repository shapes handed out by the
// container and their bun-backed implementations.
//
// Shapes are composed from small capability interfaces rather than a type
// ladder:
//
//	Reader[T]            query and load
//	Writer[T]            add, update, delete, flush
//	KeyLookup[T, K]      load and check by key
//	KeyDeleter[K]        delete by key
//	Refresher            reload a cached snapshot
//
// Every implementation is bound to an explicit *store.Session, which decides
// whether a write runs in its own transaction or waits for
// ApplyPendingChanges.
package repository
