package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"secrets/internal/app/user"
)

const userColumns = `id::text, username, password_hash, federated_id, secret, created_at, updated_at`

// PostgresStore is the pgx-backed user.Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPool initializes a new PostgreSQL connection pool and executes database migrations.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(ctx, sqlDB, goose.DialectPostgres, "migrations/postgres"); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func scanPostgresUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var username, passwordHash, federatedID, secret pgtype.Text
	err := row.Scan(&u.ID, &username, &passwordHash, &federatedID, &secret, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg)
	return scanPostgresUser(row)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	if username == "" {
		return nil, user.ErrNotFound
	}
	return s.findOne(ctx, "username", username)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrNotFound
	}
	return s.findOne(ctx, "id", parsed.String())
}

func (s *PostgresStore) FindByFederatedID(ctx context.Context, federatedID string) (*user.User, error) {
	if federatedID == "" {
		return nil, user.ErrNotFound
	}
	return s.findOne(ctx, "federated_id", federatedID)
}

func (s *PostgresStore) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if !u.HasCredential() {
		return nil, user.ErrNoCredential
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, federated_id, secret)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		pgText(u.Username), pgText(u.PasswordHash), pgText(u.FederatedID), pgText(u.Secret))

	created, err := scanPostgresUser(row)
	if err != nil {
		return nil, uniqueViolationToStore(err)
	}
	return created, nil
}

func (s *PostgresStore) UpdateSecret(ctx context.Context, id, secret string) error {
	return s.updateColumn(ctx, `UPDATE users SET secret = $2, updated_at = now() WHERE id = $1`, id, secret)
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.updateColumn(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

// updateColumn runs a single-column UPDATE so concurrent writers of other
// columns never overwrite each other.
func (s *PostgresStore) updateColumn(ctx context.Context, query, id, value string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return user.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, query, parsed.String(), pgText(value))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindAllWithSecret(ctx context.Context) ([]*user.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE secret IS NOT NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanPostgresUser(rows)
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

var _ user.Store = (*PostgresStore)(nil)
