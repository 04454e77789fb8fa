package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeLockNotAvailable = "55P03"
	codeDeadlockDetected = "40P01"
)

// isLockFailure lock_timeout vencido o víctima de deadlock: ambos se pueden reintentar.
func isLockFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeLockNotAvailable || pgErr.Code == codeDeadlockDetected
	}
	return false
}

// classify traduce errores de pgx a la taxonomía del dominio.
// Cancelación de contexto se devuelve tal cual.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isLockFailure(err):
		return fmt.Errorf("%s: %w", op, domain.ErrLockTimeout)
	default:
		return domain.NewPersistenceError(op, err)
	}
}
