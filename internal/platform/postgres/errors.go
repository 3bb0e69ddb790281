package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tasksync/tasksync-api/internal/store"
)

// SQLSTATE codes the stores translate.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// Unique constraints on users, as named by Postgres for the columns in
// 00001_create_users.sql.
const (
	constraintUsernameUnique = "users_username_key"
	constraintEmailUnique    = "users_email_key"
)

// MapError translates driver errors into store sentinels. The driver error
// stays in the message so logs keep the constraint detail.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		switch pgErr.ConstraintName {
		case constraintUsernameUnique:
			return fmt.Errorf("%w: %v", store.ErrUsernameExists, err)
		case constraintEmailUnique:
			return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
		default:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
	case foreignKeyViolationCode:
		return fmt.Errorf("%w (%s): %v", store.ErrUnknownReference, pgErr.ConstraintName, err)
	case checkViolationCode:
		return fmt.Errorf("%w: violates %s: %v", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: %s is required: %v", store.ErrInvalidEntity, pgErr.ColumnName, err)
	default:
		return err
	}
}

// CheckRowsAffected returns notFound (store.ErrNotFound when nil) if an
// UPDATE or DELETE matched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil sql result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if notFound == nil {
		return store.ErrNotFound
	}
	return notFound
}
