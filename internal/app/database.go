package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobboard/verification/internal/pkg/config"
)

// NewDatabasePool builds a pgx pool from the database.* settings.
func NewDatabasePool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.GetString("database.url"))
	if err != nil {
		return nil, err
	}

	if v := cfg.GetInt32("database.pool.max_conns"); v > 0 {
		pc.MaxConns = v
	}
	if v := cfg.GetInt32("database.pool.min_conns"); v > 0 {
		pc.MinConns = v
	}
	if v := cfg.GetSecond("database.pool.max_conn_lifetime_seconds"); v > 0 {
		pc.MaxConnLifetime = v
	}
	if v := cfg.GetSecond("database.pool.max_conn_idle_seconds"); v > 0 {
		pc.MaxConnIdleTime = v
	}
	if v := cfg.GetSecond("database.pool.health_check_period_seconds"); v > 0 {
		pc.HealthCheckPeriod = v
	}

	return pgxpool.NewWithConfig(ctx, pc)
}
