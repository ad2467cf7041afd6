// Package database opens the configured SQL backend and builds its user repository.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"users-api/internal/config"
	"users-api/internal/migrations"
	"users-api/internal/repository"
	"users-api/internal/repository/postgres"
	"users-api/internal/repository/sqlite"
)

// Open connects to the database selected by cfg.Database.Driver.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case migrations.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		return db, nil
	case migrations.DriverPostgres:
		return postgres.Open(ctx, postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// NewUserRepository returns the repository implementation matching driver.
func NewUserRepository(db *sql.DB, driver string) (repository.UserRepository, error) {
	switch driver {
	case migrations.DriverSQLite:
		return sqlite.NewUserRepository(db), nil
	case migrations.DriverPostgres:
		return postgres.NewUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
