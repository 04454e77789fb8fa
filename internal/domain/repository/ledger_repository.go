package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerRepository define el puerto de persistencia del libro mayor de inventario.
// Solo inserción: no existe Update ni Delete en el contrato.
type LedgerRepository interface {
	// Append asigna ID y fecha de creación (si viene vacía) y persiste el movimiento.
	Append(ctx context.Context, entry *entity.StockLedgerEntry) (*entity.StockLedgerEntry, error)
	// ListByKey historial paginado de una llave, del más reciente al más antiguo. page inicia en 1.
	ListByKey(ctx context.Context, key entity.BalanceKey, page, pageSize int) ([]*entity.StockLedgerEntry, error)
	// SumByKey suma con signo de todas las cantidades confirmadas para la llave.
	SumByKey(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, error)
}
