package repository

import (
	"database/sql"
	"embed"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to the latest embedded migration.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(db, "migrations"); err != nil {
		slog.Info(err.Error())
		return err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "version", version)
	return nil
}
