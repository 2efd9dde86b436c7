// Package repository maps the nine tables to the record types in models.
// Repositories translate driver errors into apperror kinds and hold no business rules.
package repository

import (
	"errors"
	"fmt"
	"sort"

	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type rowScanner interface {
	Scan(dest ...any) error
}

// translate wraps err with the matching apperror kind. entity names the record in the message.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, apperror.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s already exists: %w", entity, apperror.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s references a missing record (%s): %w", entity, pgErr.ConstraintName, apperror.ErrValidation)
		case pgCheckViolation:
			return fmt.Errorf("%s violates %s: %w", entity, pgErr.ConstraintName, apperror.ErrValidation)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

// requireAffected turns a zero-row write into NotFound.
func requireAffected(tag pgconn.CommandTag, entity string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", entity, apperror.ErrNotFound)
	}
	return nil
}

// sortUsage orders records by (year, month ordinal). SQL only orders by year:
// month names have no usable collation.
func sortUsage(records []models.UsageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Period().Before(records[j].Period())
	})
}

func sortCosts(costs []models.CostBreakdown) {
	sort.SliceStable(costs, func(i, j int) bool {
		a := models.YearMonth{Year: costs[i].Year, Month: models.MonthOrdinal(costs[i].Month)}
		b := models.YearMonth{Year: costs[j].Year, Month: models.MonthOrdinal(costs[j].Month)}
		return a.Before(b)
	})
}
