package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mcash/mcash-api/internal/pkg/apperr"
)

// PostgreSQL error codes the ledger reacts to.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// RunInTx runs fn inside one READ COMMITTED transaction and commits when fn
// returns nil. Row-level locking (SELECT ... FOR UPDATE) inside fn provides
// the serialization the ledger needs.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Classify(err, "begin tx")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return Classify(err, "tx body")
	}

	if err := tx.Commit(); err != nil {
		return Classify(err, "commit")
	}
	return nil
}

// Classify maps driver failures onto apperr kinds. Already classified errors
// pass through untouched.
func Classify(err error, op string) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", apperr.ErrConflict, op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
			return fmt.Errorf("%w: %s: %s", apperr.ErrConflict, op, pqErr.Code)
		}
	}

	return fmt.Errorf("%w: %s: %v", apperr.ErrInternal, op, err)
}

// UniqueViolation reports whether err is a unique-constraint failure and
// returns the violated constraint name.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// CheckViolation reports whether err is a CHECK constraint failure.
func CheckViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeCheckViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
