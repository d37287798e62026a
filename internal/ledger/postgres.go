// AngelaMos | 2026
// postgres.go

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/launchpad/internal/core"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"

	featuredRequiresAccepted = "featured_requires_accepted"
)

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&queries{db: tx})
	})
	return translateTxError(err)
}

func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	err := core.InTxWithOptions(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(tx *sqlx.Tx) error {
		return fn(&queries{db: tx})
	})
	return translateTxError(err)
}

// queries implements Tx over anything satisfying core.DBTX, so the same
// code runs against a pool or an open transaction.
type queries struct {
	db core.DBTX
}

var _ Tx = (*queries)(nil)

func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFail, pgDeadlockDetected:
			return fmt.Errorf("ledger transaction: %w", core.ErrConflict)
		}
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func wrapWriteError(op string, err error) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	case pgForeignKeyViolation:
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case pgCheckViolation:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == featuredRequiresAccepted {
			return fmt.Errorf("%s: %w", op, core.ErrInvalidTransition)
		}
		return fmt.Errorf("%s: %w", op, core.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func wrapReadError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRows(op string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

type whereBuilder struct {
	conditions []string
	args       []any
}

func (w *whereBuilder) add(condition string, arg any) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(condition, len(w.args)))
}

func (w *whereBuilder) addRaw(condition string) {
	w.conditions = append(w.conditions, condition)
}

func (w *whereBuilder) next() int {
	return len(w.args) + 1
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conditions, " AND ")
}
