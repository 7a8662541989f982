package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"dominicanews/internal/apperr"
)

// PostgreSQL error codes the stores translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// wrapErr converts constraint violations into Conflict failures and wraps
// everything else with the operation name.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &apperr.Error{
				Kind:    apperr.KindConflict,
				Message: constraintField(pgErr.TableName, pgErr.ConstraintName) + " already exists",
				Err:     err,
			}
		case pgForeignKeyViolation:
			return &apperr.Error{
				Kind:    apperr.KindConflict,
				Message: "Record is referenced by other records",
				Err:     err,
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// constraintField derives the column from an index named
// "<table>_<column>_key", e.g. "articles_slug_key" -> "slug".
func constraintField(table, constraint string) string {
	field := strings.TrimSuffix(constraint, "_key")
	if table != "" {
		field = strings.TrimPrefix(field, table+"_")
	} else if i := strings.IndexByte(field, '_'); i >= 0 {
		field = field[i+1:]
	}
	if field == "" {
		return "value"
	}
	return field
}
