package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var testKey = entity.BalanceKey{TenantID: "acme", WarehouseID: "WH-A", ProductID: "SKU-001"}

func receipt(qty int64) *entity.StockLedgerEntry {
	return &entity.StockLedgerEntry{
		TenantID: testKey.TenantID, WarehouseID: testKey.WarehouseID, ProductID: testKey.ProductID,
		Type: entity.LedgerReceipt, Quantity: decimal.NewFromInt(qty), UnitCost: decimal.NewFromInt(1),
	}
}

func TestStore_EscrituraSinBloqueo(t *testing.T) {
	s := NewStore()
	err := s.Run(context.Background(), func(_ repository.LedgerRepository, b repository.BalanceRepository) error {
		_, err := b.Write(context.Background(), entity.NewStockBalance(testKey))
		return err
	})
	assert.ErrorIs(t, err, domain.ErrLockNotHeld)

	// fuera de transacción no se puede bloquear
	repo := &balanceRepo{store: s}
	_, err = repo.LockForUpdate(context.Background(), testKey)
	assert.ErrorIs(t, err, domain.ErrLockNotHeld)
}

func TestStore_RollbackNoDejaRastro(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")
	err := s.Run(context.Background(), func(l repository.LedgerRepository, b repository.BalanceRepository) error {
		cur, err := b.LockForUpdate(context.Background(), testKey)
		require.NoError(t, err)
		assert.Nil(t, cur)

		next := entity.NewStockBalance(testKey)
		next.QuantityOnHand = decimal.NewFromInt(5)
		_, err = b.Write(context.Background(), next)
		require.NoError(t, err)
		_, err = l.Append(context.Background(), receipt(5))
		require.NoError(t, err)

		// la propia transacción ve sus escrituras pendientes
		again, err := b.LockForUpdate(context.Background(), testKey)
		require.NoError(t, err)
		assert.True(t, again.QuantityOnHand.Equal(decimal.NewFromInt(5)))
		sum, err := l.SumByKey(context.Background(), testKey)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(5)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := s.Balances().Read(context.Background(), testKey)
	require.NoError(t, err)
	assert.Nil(t, b)
	sum, err := s.Ledger().SumByKey(context.Background(), testKey)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestStore_CommitVisible(t *testing.T) {
	s := NewStore()
	err := s.Run(context.Background(), func(l repository.LedgerRepository, b repository.BalanceRepository) error {
		if _, err := b.LockForUpdate(context.Background(), testKey); err != nil {
			return err
		}
		next := entity.NewStockBalance(testKey)
		next.QuantityOnHand = decimal.NewFromInt(3)
		if _, err := b.Write(context.Background(), next); err != nil {
			return err
		}
		_, err := l.Append(context.Background(), receipt(3))
		return err
	})
	require.NoError(t, err)

	b, err := s.Balances().Read(context.Background(), testKey)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.QuantityOnHand.Equal(decimal.NewFromInt(3)))

	// la foto devuelta no comparte memoria con el almacenamiento
	b.QuantityOnHand = decimal.NewFromInt(999)
	again, _ := s.Balances().Read(context.Background(), testKey)
	assert.True(t, again.QuantityOnHand.Equal(decimal.NewFromInt(3)))

	list, err := s.Balances().ListByTenant(context.Background(), "acme", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.Balances().ListByTenant(context.Background(), "otra", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLedger_Inmutable(t *testing.T) {
	s := NewStore()
	stored, err := s.Ledger().Append(context.Background(), receipt(1))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	repo := &ledgerRepo{store: s}
	assert.ErrorIs(t, repo.Update(context.Background(), stored), domain.ErrImmutableEntry)
	assert.ErrorIs(t, repo.Delete(context.Background(), stored.ID), domain.ErrImmutableEntry)

	// modificar la copia devuelta no altera el libro
	stored.Quantity = decimal.NewFromInt(100)
	list, err := s.Ledger().ListByKey(context.Background(), testKey, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestLedger_AppendRechazaEntradaInvalida(t *testing.T) {
	s := NewStore()
	_, err := s.Ledger().Append(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := receipt(1)
	bad.Type = "IN"
	_, err = s.Ledger().Append(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// lockedKeys llaves con dueño o en espera.
func (s *Store) lockedKeys() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func lockAndWrite(ctx context.Context, key entity.BalanceKey, qty int64) func(repository.LedgerRepository, repository.BalanceRepository) error {
	return func(_ repository.LedgerRepository, b repository.BalanceRepository) error {
		if _, err := b.LockForUpdate(ctx, key); err != nil {
			return err
		}
		next := entity.NewStockBalance(key)
		next.QuantityOnHand = decimal.NewFromInt(qty)
		_, err := b.Write(ctx, next)
		return err
	}
}

// Cada llave bloqueada alguna vez no debe quedar en el mapa de bloqueos.
func TestStore_BloqueosNoSeAcumulan(t *testing.T) {
	s := NewStore(WithLockTimeout(10 * time.Millisecond))
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		key := entity.BalanceKey{TenantID: "acme", WarehouseID: "WH-A", ProductID: fmt.Sprintf("SKU-%03d", i)}
		require.NoError(t, s.Run(ctx, lockAndWrite(ctx, key, 1)))
	}
	boom := errors.New("boom")
	err := s.Run(ctx, func(l repository.LedgerRepository, b repository.BalanceRepository) error {
		_, _ = b.LockForUpdate(ctx, testKey)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, s.lockedKeys())

	// con un dueño y una espera vencida queda solo la llave del dueño
	held, free := make(chan struct{}), make(chan struct{})
	go func() {
		_ = s.Run(ctx, func(_ repository.LedgerRepository, b repository.BalanceRepository) error {
			_, _ = b.LockForUpdate(ctx, testKey)
			close(held)
			<-free
			return nil
		})
	}()
	<-held
	err = s.Run(ctx, lockAndWrite(ctx, testKey, 2))
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Equal(t, 1, s.lockedKeys())
	close(free)

	require.Eventually(t, func() bool { return s.lockedKeys() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Run(ctx, lockAndWrite(ctx, testKey, 3)), "la llave se puede volver a bloquear")
}

func TestSnapshots_NoVenPendientesYPaginan(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, wh := range []string{"WH-C", "WH-A", "WH-B"} {
		key := entity.BalanceKey{TenantID: "acme", WarehouseID: wh, ProductID: "SKU-001"}
		require.NoError(t, s.Run(ctx, func(l repository.LedgerRepository, b repository.BalanceRepository) error {
			if err := lockAndWrite(ctx, key, 4)(l, b); err != nil {
				return err
			}
			e := receipt(4)
			e.WarehouseID = wh
			_, err := l.Append(ctx, e)
			return err
		}))
	}

	page, err := s.Snapshots().SnapshotTenant(ctx, "acme", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "WH-A", page[0].Key.WarehouseID)
	assert.Equal(t, "WH-B", page[1].Key.WarehouseID)
	page, err = s.Snapshots().SnapshotTenant(ctx, "acme", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.True(t, page[0].OnHand.Equal(page[0].LedgerSum))

	// escrituras de una transacción abierta no se ven en la foto
	held, free := make(chan struct{}), make(chan struct{})
	go func() {
		_ = s.Run(ctx, func(l repository.LedgerRepository, b repository.BalanceRepository) error {
			if err := lockAndWrite(ctx, testKey, 9)(l, b); err != nil {
				return err
			}
			_, _ = l.Append(ctx, receipt(5))
			close(held)
			<-free
			return nil
		})
	}()
	<-held
	snap, err := s.Snapshots().SnapshotKey(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, snap.OnHand.Equal(decimal.NewFromInt(4)))
	assert.True(t, snap.LedgerSum.Equal(decimal.NewFromInt(4)))
	close(free)
}
