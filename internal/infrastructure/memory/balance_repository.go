package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BalanceRepository = (*balanceRepo)(nil)

type balanceRepo struct {
	store *Store
	tx    *transaction // nil fuera de transacción
}

// Read foto confirmada, sin bloqueo; no ve escrituras pendientes de ninguna transacción.
func (r *balanceRepo) Read(_ context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	return r.store.committedBalance(key), nil
}

func (r *balanceRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.StockBalance, error) {
	r.store.mu.RLock()
	list := make([]*entity.StockBalance, 0)
	for key, b := range r.store.balances {
		if key.TenantID == tenantID {
			list = append(list, b.Clone())
		}
	}
	r.store.mu.RUnlock()

	sortBalances(list)
	if offset >= len(list) {
		return []*entity.StockBalance{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}

// LockForUpdate bloquea la llave hasta el fin de la transacción. Volver a bloquear una
// llave ya tomada por la misma transacción no espera.
func (r *balanceRepo) LockForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	if r.tx == nil || r.tx.done {
		return nil, domain.ErrLockNotHeld
	}
	if !r.tx.held[key] {
		if err := r.store.acquire(ctx, key); err != nil {
			return nil, err
		}
		r.tx.held[key] = true
		r.tx.order = append(r.tx.order, key)
	}
	if b, ok := r.tx.staged[key]; ok {
		return b.Clone(), nil
	}
	return r.store.committedBalance(key), nil
}

// Write prepara el saldo; se vuelve visible al confirmar la transacción.
func (r *balanceRepo) Write(_ context.Context, balance *entity.StockBalance) (*entity.StockBalance, error) {
	if balance == nil {
		return nil, domain.ErrInvalidInput
	}
	if r.tx == nil || r.tx.done || !r.tx.held[balance.Key()] {
		return nil, domain.ErrLockNotHeld
	}
	r.tx.staged[balance.Key()] = balance.Clone()
	return balance.Clone(), nil
}
