package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReconciliationReader = (*reconciliationReader)(nil)

// reconciliationReader lee saldos y movimientos bajo el mismo RLock; commit escribe ambos
// bajo un solo Lock.
type reconciliationReader struct {
	store *Store
}

// Snapshots lector para la conciliación.
func (s *Store) Snapshots() repository.ReconciliationReader {
	return &reconciliationReader{store: s}
}

func (r *reconciliationReader) SnapshotKey(_ context.Context, key entity.BalanceKey) (*repository.KeySnapshot, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	onHand := numeric.Zero
	if b, ok := s.balances[key]; ok {
		onHand = b.QuantityOnHand
	}
	return &repository.KeySnapshot{Key: key, OnHand: onHand, LedgerSum: sumSigned(s.entries, key)}, nil
}

func (r *reconciliationReader) SnapshotTenant(_ context.Context, tenantID string, limit, offset int) ([]*repository.KeySnapshot, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*entity.StockBalance, 0)
	for key, b := range s.balances {
		if key.TenantID == tenantID {
			list = append(list, b)
		}
	}
	sortBalances(list)
	if offset >= len(list) {
		return []*repository.KeySnapshot{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]*repository.KeySnapshot, 0, end-offset)
	for _, b := range list[offset:end] {
		key := b.Key()
		out = append(out, &repository.KeySnapshot{Key: key, OnHand: b.QuantityOnHand, LedgerSum: sumSigned(s.entries, key)})
	}
	return out, nil
}
