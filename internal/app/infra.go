package app

import (
	"context"
	"errors"
	"fmt"

	"team-sso/internal/config"
	"team-sso/internal/db"
	"team-sso/internal/redis"
	"team-sso/internal/store/postgres"

	"go.uber.org/zap"
)

type Infra struct {
	Store *postgres.Postgres
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*Infra, error) {
	migrateCtx, cancel := context.WithTimeout(ctx, cfg.Postgres.MigrateTimeout)
	defer cancel()
	if err := db.Migrate(migrateCtx, cfg.Postgres.DSN); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Infow("migrations applied")

	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	st := postgres.New(pool, log)
	log.Infow("database ready", "max_conns", cfg.Postgres.MaxConns)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		st.Close()
		return nil, err
	}
	log.Infow("redis ready", "addr", cfg.Redis.Addr)

	return &Infra{Store: st, Redis: redisClient}, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.Store != nil {
		i.Store.Close()
	}
	return errors.Join(errs...)
}
