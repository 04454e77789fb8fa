package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback ante cualquier error (incluido el de Commit).
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error) error
}

// Clock fuente de tiempo para las fechas de movimientos y saldos.
type Clock interface {
	Now() time.Time
}

// SystemClock reloj real en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// MovementPublisher difunde movimientos ya confirmados. Un error de publicación no revierte
// el movimiento: el libro mayor es la fuente de verdad.
type MovementPublisher interface {
	PublishMovements(ctx context.Context, entries ...*entity.StockLedgerEntry) error
	Close() error
}
