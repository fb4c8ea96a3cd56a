package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const (
	pingAttempts = 5
	pingDelay    = 2 * time.Second
)

// OpenPostgres connects to PostgreSQL through lib/pq with a bounded pool.
// The first ping is retried so the service can start alongside its database.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	var lastErr error
	for i := range pingAttempts {
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		lastErr = db.PingContext(pctx)
		cancel()
		if lastErr == nil {
			return db, nil
		}
		if i == pingAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(pingDelay):
		}
	}

	db.Close()
	return nil, fmt.Errorf("pinging database after %d attempts: %w", pingAttempts, lastErr)
}
