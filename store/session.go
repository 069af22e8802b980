package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Op is one unit of write work. It reports the rows it affected.
type Op func(ctx context.Context, db bun.IDB) (int64, error)

// Session is an explicit connection handle owned by a single repository
// instance for the length of one unit of work. It is not safe for concurrent
// use.
type Session struct {
	id       uuid.UUID
	db       bun.IDB
	deferred bool
	pending  []Op
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// Deferred makes writes queue until SaveChanges.
func Deferred() SessionOption {
	return func(s *Session) {
		s.deferred = true
	}
}

// NewSession wraps db. db may be a *bun.DB, a bun.Tx or a bun.Conn.
func NewSession(db bun.IDB, opts ...SessionOption) *Session {
	s := &Session{
		id: uuid.New(),
		db: db,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// DB returns the handle reads should use.
func (s *Session) DB() bun.IDB {
	return s.db
}

// Root returns the *bun.DB behind the session's handle, for code that needs
// the database's schema and dialect rather than a connection.
func (s *Session) Root() *bun.DB {
	return s.db.NewSelect().DB()
}

// IsDeferred reports whether writes are queued.
func (s *Session) IsDeferred() bool {
	return s.deferred
}

// Pending returns the number of queued writes.
func (s *Session) Pending() int {
	return len(s.pending)
}

// Exec runs op in its own transaction, or queues it on a deferred session.
// A queued op reports zero affected rows until SaveChanges runs it.
func (s *Session) Exec(ctx context.Context, op Op) (int64, error) {
	if s.deferred {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		s.pending = append(s.pending, op)
		return 0, nil
	}
	return s.run(ctx, []Op{op})
}

// SaveChanges runs every queued write in one transaction and returns the
// total affected rows. On failure nothing is committed and the queue is kept.
func (s *Session) SaveChanges(ctx context.Context) (int64, error) {
	if len(s.pending) == 0 {
		return 0, ctx.Err()
	}

	ops := s.pending
	s.pending = nil

	n, err := s.run(ctx, ops)
	if err != nil {
		s.pending = append(ops, s.pending...)
		return 0, err
	}
	return n, nil
}

func (s *Session) run(ctx context.Context, ops []Op) (int64, error) {
	var total int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, op := range ops {
			n, err := op(ctx, tx)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Affected adapts a bun Exec result to the Op return shape.
func Affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
