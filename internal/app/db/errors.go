package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"secrets/internal/app/user"
)

const (
	usernameConstraint    = "users_username_unique"
	federatedIDConstraint = "users_federated_id_unique"
)

// IsUniqueViolation checks if the error is a PostgreSQL unique constraint violation (code 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// uniqueViolationToStore maps a PostgreSQL unique violation to the matching user sentinel.
func uniqueViolationToStore(err error) error {
	if !IsUniqueViolation(err) {
		return err
	}
	var pgErr *pgconn.PgError
	errors.As(err, &pgErr)
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return user.ErrUsernameTaken
	case federatedIDConstraint:
		return user.ErrFederatedIDTaken
	}
	return err
}

// sqliteConstraintToStore does the same for SQLite, which only names the
// offending column in the message ("UNIQUE constraint failed: users.username").
func sqliteConstraintToStore(err error) error {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) || sqlErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}
	switch {
	case strings.Contains(sqlErr.Error(), "users.username"):
		return user.ErrUsernameTaken
	case strings.Contains(sqlErr.Error(), "users.federated_id"):
		return user.ErrFederatedIDTaken
	}
	return err
}
