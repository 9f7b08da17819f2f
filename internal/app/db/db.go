/*
Package db implements user.Store on top of SQL databases.

PostgreSQL (pgx) is the production backend; SQLite is convenient for a single
machine. Both apply their embedded goose migrations when opened. Open picks the
backend from the DATABASE_URL scheme.
*/
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	"secrets/internal/app/user"
	"secrets/internal/pkg/logx"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// Open returns the user.Store for dsn:
//
//	postgres://... or postgresql://...  PostgresStore
//	sqlite://path/to/file.db             SQLiteStore (sqlite://:memory: for a throwaway database)
//	memory://                            user.MemoryStore
func Open(ctx context.Context, dsn string) (user.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "memory://"):
		logx.Warn("Using in-memory user store; data is lost on restart")
		return user.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q", redact(dsn))
	}
}

// runMigrations applies all pending migrations under dir for dialect.
func runMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		logx.Info("Applied migration", "dialect", string(dialect), "version", r.Source.Version, "duration", r.Duration.String())
	}
	return nil
}

// redact hides the password part of a connection string.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
