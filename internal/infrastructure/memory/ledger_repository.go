package memory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct {
	store *Store
	tx    *transaction
}

// Append asigna ID (UUIDv7, ordenado por tiempo) y fecha si falta.
// Dentro de transacción el movimiento queda pendiente hasta el Commit.
func (r *ledgerRepo) Append(_ context.Context, entry *entity.StockLedgerEntry) (*entity.StockLedgerEntry, error) {
	if entry == nil || !entry.Type.Valid() || entry.Quantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if r.tx != nil && r.tx.done {
		return nil, domain.NewPersistenceError("append ledger entry", errors.New("transacción finalizada"))
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, domain.NewPersistenceError("append ledger entry", err)
	}
	e := *entry
	e.ID = id.String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = nowUTC()
	}

	if r.tx != nil {
		r.tx.entries = append(r.tx.entries, &e)
	} else {
		r.store.mu.Lock()
		r.store.entries = append(r.store.entries, &e)
		r.store.mu.Unlock()
	}
	out := e
	return &out, nil
}

// ListByKey historial confirmado (más los pendientes de la propia transacción), más reciente primero.
func (r *ledgerRepo) ListByKey(_ context.Context, key entity.BalanceKey, page, pageSize int) ([]*entity.StockLedgerEntry, error) {
	all := r.visible()
	matched := make([]*entity.StockLedgerEntry, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Key() == key {
			c := *all[i]
			matched = append(matched, &c)
		}
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if pageSize <= 0 || start >= len(matched) {
		return []*entity.StockLedgerEntry{}, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *ledgerRepo) SumByKey(_ context.Context, key entity.BalanceKey) (decimal.Decimal, error) {
	return sumSigned(r.visible(), key), nil
}

// Update siempre falla: el libro mayor es inmutable.
func (r *ledgerRepo) Update(_ context.Context, _ *entity.StockLedgerEntry) error {
	return domain.ErrImmutableEntry
}

// Delete siempre falla: el libro mayor es inmutable.
func (r *ledgerRepo) Delete(_ context.Context, _ string) error {
	return domain.ErrImmutableEntry
}

func (r *ledgerRepo) visible() []*entity.StockLedgerEntry {
	r.store.mu.RLock()
	all := make([]*entity.StockLedgerEntry, 0, len(r.store.entries))
	all = append(all, r.store.entries...)
	r.store.mu.RUnlock()
	if r.tx != nil {
		all = append(all, r.tx.entries...)
	}
	return all
}
