package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Chat traffic is one short transaction per turn; a small pool is enough.
const (
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 30 * time.Minute
	connectTimeout  = 5 * time.Second
	healthTimeout   = 2 * time.Second
)

// DB is the PostgreSQL handle backing ChatRepository.
type DB struct {
	*sql.DB
}

// Connect opens the chat database and waits for a successful ping.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach chat database: %w", err)
	}

	log.Info().Int("max_open_conns", maxOpenConns).Msg("Chat database connected")

	return &DB{DB: db}, nil
}

func (db *DB) Close() error {
	log.Info().Msg("Closing chat database")
	return db.DB.Close()
}

// Health pings the database; it backs GET /healthz.
func (db *DB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("chat database unreachable: %w", err)
	}
	return nil
}
