package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/orgball2608/insta-post-analyzer/internal/migrations"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/pressly/goose/v3"
)

// MigrationsDir is where goose creates new migration files
const MigrationsDir = "internal/migrations"

// Open returns a database/sql handle for goose
func Open(cfg *config.Config) (*sql.DB, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	conn, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	if err = conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

// MigrateUp applies the compiled-in migrations
func MigrateUp(cfg *config.Config, log logger.Logger) error {
	conn, err := Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect for migrations: %w", err)
	}
	defer conn.Close()

	if err := goose.Up(conn, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(conn)
	if err == nil {
		log.Info("Database schema is up to date", "version", version)
	}
	return nil
}
