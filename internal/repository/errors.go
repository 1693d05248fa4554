package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// translateError maps lock and serialization failures to transient errors so
// callers can retry them. AppErrors and unrelated errors pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsAppError(err); ok {
		return err
	}
	switch pgCode(err) {
	case pgLockNotAvailable:
		return domain.NewTransientError(domain.CodeBusy, "tour is busy, try again", err)
	case pgSerializationFailure, pgDeadlockDetected:
		return domain.NewTransientError(domain.CodeBusy, "concurrent update conflict, try again", err)
	case pgCheckViolation:
		return domain.NewInternalError("database constraint violated", err)
	}
	return err
}
