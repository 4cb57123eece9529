package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"dbaccess/src/core/domain"
)

// SQLSTATE classes that fail the same way on every attempt.
var permanentClasses = map[string]struct{}{
	"0A": {}, // feature not supported
	"22": {}, // data exception
	"23": {}, // integrity constraint violation
	"28": {}, // invalid authorization
	"2B": {}, // dependent privilege descriptors still exist
	"3D": {}, // invalid catalog name
	"3F": {}, // invalid schema name
	"42": {}, // syntax error or access rule violation
	"44": {}, // with check option violation
}

// Classify decides whether err is worth another attempt.
// Unknown errors, including network faults, are retryable.
func Classify(err error) domain.ErrorClass {
	if err == nil {
		return domain.Retryable
	}

	var dbErr *domain.DBError
	if errors.As(err, &dbErr) {
		return dbErr.Class
	}

	if errors.Is(err, context.Canceled) {
		return domain.Permanent
	}

	var parseErr *pgconn.ParseConfigError
	if errors.As(err, &parseErr) {
		return domain.Permanent
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		if _, ok := permanentClasses[pgErr.Code[:2]]; ok {
			return domain.Permanent
		}
	}

	return domain.Retryable
}

// queryCanceledCode is raised when statement_timeout fires.
const queryCanceledCode = "57014"

// isStatementTimeout reports whether the server cancelled the statement.
func isStatementTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == queryCanceledCode
}

// markTimeout flags server-side statement timeouts so they read like checkout timeouts.
func markTimeout(e *domain.DBError, cause error) *domain.DBError {
	if isStatementTimeout(cause) {
		e.Timeout = true
	}
	return e
}
