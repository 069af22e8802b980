// Package cache provides the whole-collection snapshot used by cached
// repositories.
//
// # Overview
//
// A Snapshot holds one complete copy of a collection. It has two states:
//
//   - Empty: nothing fetched yet
//   - Populated: holds the complete result of the last fetch
//
// GetOrFetch and Ensure move an empty snapshot to populated with exactly one
// fetch. Refresh fetches unconditionally and replaces the contents wholesale.
// Nothing in this package ever invalidates a snapshot on its own; staleness
// lasts until the owner calls Refresh.
//
// # Basic Usage
//
//	var snap cache.Snapshot[User]
//	users, err := cache.GetOrFetch(ctx, &snap, func(ctx context.Context) ([]User, error) {
//		return repo.GetAll(ctx)
//	})
//
// # Empty collections
//
// The populated state is an explicit flag, not "has at least one item". A
// fetch that returns no rows still populates the snapshot, so reads against an
// empty table do not hit the database again until the next Refresh.
//
// # Ownership
//
// A snapshot belongs to exactly one cached repository instance and has no
// locking. Items, Filter and First return copies so callers cannot mutate the
// cached contents.
package cache
