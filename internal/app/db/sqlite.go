package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"secrets/internal/app/user"
)

// SQLiteStore is a single-file user.Store.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path and migrates it.
// SQLite serialises writers anyway, so the pool is limited to one connection
// and concurrent requests queue in database/sql instead of failing with SQLITE_BUSY.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	connstr := fmt.Sprintf("file:%v?_busy_timeout=5000&_foreign_keys=on", path)
	if path != ":memory:" {
		connstr += "&_journal=wal&mode=rwc"
	}

	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping %v, cause %w", path, err)
	}

	if err := runMigrations(ctx, conn, goose.DialectSQLite3, "migrations/sqlite"); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteStore{db: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (*user.User, error) {
	var u user.User
	var username, passwordHash, federatedID, secret sql.NullString
	err := row.Scan(&u.ID, &username, &passwordHash, &federatedID, &secret, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.Username = username.String
	u.PasswordHash = passwordHash.String
	u.FederatedID = federatedID.String
	u.Secret = secret.String
	return &u, nil
}

const sqliteUserColumns = `id, username, password_hash, federated_id, secret, created_at, updated_at`

func (s *SQLiteStore) findOne(ctx context.Context, column, value string) (*user.User, error) {
	if value == "" {
		return nil, user.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE `+column+` = ?`, value)
	return scanSQLiteUser(row)
}

func (s *SQLiteStore) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.findOne(ctx, "username", username)
}

func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	return s.findOne(ctx, "id", id)
}

func (s *SQLiteStore) FindByFederatedID(ctx context.Context, federatedID string) (*user.User, error) {
	return s.findOne(ctx, "federated_id", federatedID)
}

func (s *SQLiteStore) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if !u.HasCredential() {
		return nil, user.ErrNoCredential
	}

	created := u.Clone()
	created.ID = uuid.NewString()
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+sqliteUserColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.ID, nullString(created.Username), nullString(created.PasswordHash),
		nullString(created.FederatedID), nullString(created.Secret), created.CreatedAt, created.UpdatedAt)
	if err != nil {
		if mapped := sqliteConstraintToStore(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (s *SQLiteStore) UpdateSecret(ctx context.Context, id, secret string) error {
	return s.updateColumn(ctx, `UPDATE users SET secret = ?, updated_at = ? WHERE id = ?`, id, secret)
}

func (s *SQLiteStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.updateColumn(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, id, hash)
}

func (s *SQLiteStore) updateColumn(ctx context.Context, query, id, value string) error {
	res, err := s.db.ExecContext(ctx, query, nullString(value), s.now(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) FindAllWithSecret(ctx context.Context) ([]*user.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE secret IS NOT NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

var _ user.Store = (*SQLiteStore)(nil)
