package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrConstraintViolation = errors.New("constraint violation")

const (
	pgNotNullViolation = "23502"
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
)

// translateError переводит ошибки ограничений PostgreSQL в ErrConstraintViolation.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgNotNullViolation, pgUniqueViolation, pgCheckViolation:
		return &ConstraintError{Constraint: pgErr.ConstraintName, Detail: pgErr.Message, err: err}
	default:
		return err
	}
}

// ConstraintError описывает отклонённую запись; errors.Is сопоставляет её с ErrConstraintViolation.
type ConstraintError struct {
	Constraint string
	Detail     string
	err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return "constraint violation (" + e.Constraint + "): " + e.Detail
	}
	return "constraint violation: " + e.Detail
}

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraintViolation
}

func (e *ConstraintError) Unwrap() error {
	return e.err
}

func constraintViolation(constraint, detail string) error {
	return &ConstraintError{Constraint: constraint, Detail: detail}
}
