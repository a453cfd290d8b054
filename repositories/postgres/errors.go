package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/upb/crm-control-plane/services"
)

// PostgreSQL error codes the repositories translate
const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"
)

// translate maps driver errors onto domain errors. notFound is returned for
// sql.ErrNoRows; anything unrecognised is wrapped with op.
func translate(err error, op string, notFound *services.DomainError) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return services.ErrDuplicateEmail.WithDetail("constraint", pqErr.Constraint)
		case foreignKeyViolation:
			return services.ErrUnknownReference.WithDetail("constraint", pqErr.Constraint)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// checkAffected turns a zero-row write into notFound
func checkAffected(result sql.Result, notFound *services.DomainError) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
