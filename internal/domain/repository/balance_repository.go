package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BalanceReader lecturas sin bloqueo de saldos (reportes, consultas).
type BalanceReader interface {
	// Read devuelve el saldo o nil si la llave no tiene saldo.
	Read(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error)
	// ListByTenant lista saldos de una empresa con paginación (limit/offset).
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockBalance, error)
}

// BalanceRepository define el puerto para consultar/actualizar saldos dentro de una transacción.
type BalanceRepository interface {
	BalanceReader
	// LockForUpdate bloquea la llave hasta el fin de la transacción (SELECT FOR UPDATE)
	// y devuelve el saldo actual, o nil si aún no existe.
	LockForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error)
	// Write inserta o reemplaza el saldo. Requiere LockForUpdate previo en la misma transacción.
	Write(ctx context.Context, balance *entity.StockBalance) (*entity.StockBalance, error)
}
