package db

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalyonekenobe/funders-sub000/internal/config"
)

// Connect opens the pgx connection pool and verifies it with a ping.
// Fatal on failure: the server cannot run without its relational store.
func Connect(cfg *config.Config) *pgxpool.Pool {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	poolCfg.MaxConns = cfg.Database.MaxConns

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database %s:%d: %v", cfg.Database.Host, cfg.Database.Port, err)
	}

	log.Printf("Connected to database %s at %s:%d", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)
	return pool
}
