// Package migrations embeds the SQL schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"docket/internal/errors"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

const defaultTableName = "goose_db_version"

// Migrator applies the embedded migrations to a PostgreSQL database.
type Migrator struct {
	db     *sql.DB
	logger *slog.Logger
}

// New prepares goose for the embedded files. tableName may be empty.
func New(db *sql.DB, tableName string, logger *slog.Logger) (*Migrator, error) {
	if tableName == "" {
		tableName = defaultTableName
	}

	goose.SetBaseFS(FS)
	goose.SetTableName(tableName)
	goose.SetLogger(&gooseLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, errors.Wrap(err, "set goose dialect")
	}

	return &Migrator{db: db, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return errors.Wrap(err, "apply migrations")
	}

	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}
	m.logger.Info("Database schema is up to date", slog.Int64("version", version))

	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return errors.Wrap(goose.DownContext(ctx, m.db, "."), "roll back migration")
}

// Status logs the applied state of every migration.
func (m *Migrator) Status(ctx context.Context) error {
	return errors.Wrap(goose.StatusContext(ctx, m.db, "."), "migration status")
}

type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(gooseMessage(format, v...))
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(gooseMessage(format, v...))
}

func gooseMessage(format string, v ...any) string {
	return "goose: " + strings.TrimRight(fmt.Sprintf(format, v...), "\n")
}
