package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// KeySnapshot existencia del saldo y suma con signo del libro mayor leídas de la misma foto.
type KeySnapshot struct {
	Key       entity.BalanceKey
	OnHand    decimal.Decimal
	LedgerSum decimal.Decimal
}

// ReconciliationReader lecturas para conciliar. Cada llave se lee en una sola foto
// consistente: un movimiento confirmado aparece en ambos valores o en ninguno.
type ReconciliationReader interface {
	// SnapshotKey llave sin saldo ni movimientos: ambos valores en cero.
	SnapshotKey(ctx context.Context, key entity.BalanceKey) (*KeySnapshot, error)
	// SnapshotTenant saldos de la empresa ordenados por bodega y producto (limit/offset).
	SnapshotTenant(ctx context.Context, tenantID string, limit, offset int) ([]*KeySnapshot, error)
}
