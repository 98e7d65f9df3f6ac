// Package postgres implements the store against PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"team-sso/internal/config"
	"team-sso/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// Postgres wraps a pgx pool.
type Postgres struct {
	log *zap.SugaredLogger
	db  *pgxpool.Pool
}

var _ store.Store = (*Postgres)(nil)

// New wraps an existing pool.
func New(pool *pgxpool.Pool, log *zap.SugaredLogger) *Postgres {
	return &Postgres{
		log: log.Named("store.postgres"),
		db:  pool,
	}
}

// Connect opens and pings a pool configured from cfg.
func Connect(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	connectCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pool: %w", err)
	}
	return pool, nil
}

// Close releases pool connections.
func (p *Postgres) Close() {
	if p.db != nil {
		p.db.Close()
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
