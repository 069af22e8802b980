// Package repositorycache provides the cached repository decorator.
//
// # Overview
//
// CachedRepository wraps a repository.Repository[T] and answers reads from an
// in-memory snapshot of the entire collection. The snapshot is loaded by the
// first read and is only reloaded by an explicit Refresh. There is no TTL, no
// eviction and no invalidation on write.
//
// # Basic Usage
//
//	base := repository.New[User](store.NewSession(db))
//	cached := repositorycache.New[User](base)
//
//	users, err := cached.GetAll(ctx)           // loads once
//	active, err := cached.GetAllWhere(ctx,     // answered from memory
//		repository.Match(func(u User) bool { return u.Active }))
//
//	err = cached.Refresh(ctx)                  // reload on demand
//
// # Cached vs Pass-through Operations
//
// Answered from the snapshot:
//   - GetAll
//   - GetAllWhere, GetOne, Exists with in-memory predicates
//
// Passed to the base repository:
//   - Query, QueryWhere, QueryInto
//   - GetAllWhere, GetOne, Exists with predicates carrying SQL criteria
//
// Rejected with an error matching errors.ErrUnsupported:
//   - Add, Update, Delete, DeleteWhere, ApplyPendingChanges
//
// # Concurrency
//
// A CachedRepository is not safe for concurrent use. The container scopes one
// instance per resolution scope, each with its own session from the
// registered store.ConnFactory.
//
// # Error Handling
//
// Errors from the base repository are propagated unchanged. A failed load
// leaves an empty snapshot empty; a failed Refresh keeps the previous one.
package repositorycache
