// internal/repository/postgres/errors_pg.go
package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// pgCheckViolation is the PostgreSQL error code for check_violation
// (e.g. the wallets.balance >= 0 constraint).
const pgCheckViolation = "23514"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func isCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgCheckViolation
}
