package store

import (
	"context"

	"github.com/uptrace/bun"
)

// ConnFactory creates independent sessions on demand. Cached repositories
// depend on one so every cached instance owns its own connection handle.
type ConnFactory interface {
	NewSession(ctx context.Context) (*Session, error)
}

// PooledFactory hands out sessions backed by a tuned connection pool.
type PooledFactory struct {
	db   *bun.DB
	opts []SessionOption
}

var _ ConnFactory = (*PooledFactory)(nil)

// NewPooledFactory applies pool to db and returns a factory over it. Every
// session it creates gets opts.
func NewPooledFactory(db *bun.DB, pool PoolConfig, opts ...SessionOption) *PooledFactory {
	pool.apply(db.DB)
	return &PooledFactory{db: db, opts: opts}
}

func (f *PooledFactory) NewSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewSession(f.db, f.opts...), nil
}
