package db

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool hands out a process-wide pgx pool, established lazily on first use.
// Concurrent callers during establishment share the single in-flight attempt
// instead of racing to create duplicate pools.
type Pool struct {
	url  string
	once sync.Once
	pool *pgxpool.Pool
	err  error
}

// NewPool prepares a lazy pool for the given connection URL. No connection is
// made until Get is called.
func NewPool(url string) *Pool {
	return &Pool{url: url}
}

// Get returns the shared pool, connecting on first call. A failed attempt is
// memoized for the process lifetime; restart to retry.
func (p *Pool) Get(ctx context.Context) (*pgxpool.Pool, error) {
	p.once.Do(func() {
		cfg, err := pgxpool.ParseConfig(p.url)
		if err != nil {
			p.err = err
			return
		}
		p.pool, p.err = pgxpool.NewWithConfig(ctx, cfg)
	})
	return p.pool, p.err
}

// Close releases the pool if it was ever established.
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
