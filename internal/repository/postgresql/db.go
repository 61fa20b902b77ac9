package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"garage_config/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func NewDB(cfg *config.Config) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	driver := cfg.DBDriver
	if driver == "" {
		driver = "pgx"
	}
	// "pgx" (jackc/pgx stdlib) or "postgres" (lib/pq)
	db, err := sql.Open(driver, psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS garages (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'active',
	doc         JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS garages_created_at_idx ON garages (created_at DESC);

CREATE TABLE IF NOT EXISTS deployments (
	id           TEXT PRIMARY KEY,
	garage_id    TEXT NOT NULL,
	garage_name  TEXT NOT NULL,
	version      TEXT NOT NULL,
	topic        TEXT NOT NULL,
	status       TEXT NOT NULL,
	error        TEXT,
	deployed_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// EnsureSchema creates the tables the repositories use when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
