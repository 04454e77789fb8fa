package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func transferInput(from, to, qty string) inventory.TransferInput {
	return inventory.TransferInput{
		TenantID: testTenant, ProductID: testProduct,
		FromWarehouseID: from, ToWarehouseID: to,
		Quantity: dec(qty), Notes: "reabastecimiento", CreatedBy: testUser,
	}
}

func TestTransfer_MismaBodegaSeRechazaSinTransaccion(t *testing.T) {
	// Un runner nil haría panic si se abriera una transacción
	uc := inventory.NewTransferUseCase(nil, fixedClock{t: testNow}, nil)
	_, err := uc.Transfer(context.Background(), transferInput(whA, whA, "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidTransfer)
	assert.False(t, domain.IsRetryable(err))
}

func TestTransfer_Validaciones(t *testing.T) {
	h := newHarness(t)
	_, err := h.transfer.Transfer(context.Background(), transferInput(whA, "", "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.transfer.Transfer(context.Background(), transferInput(whA, whB, "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransfer_StockInsuficienteNoDejaRastro(t *testing.T) {
	h := newHarness(t)
	h.receive(t, whA, "10", "4")

	_, err := h.transfer.Transfer(context.Background(), transferInput(whA, whB, "10.0001"))
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "10.0000", numeric.Format(insufficient.Available))

	assert.Equal(t, "10.0000", numeric.Format(h.balance(t, whA).QuantityOnHand))
	assert.Nil(t, h.balance(t, whB))
	assert.Len(t, h.entries(t, whA), 1)
	assert.Empty(t, h.entries(t, whB))
}

func TestTransfer_CostoExplicitoYPromedioDestino(t *testing.T) {
	h := newHarness(t)
	h.receive(t, whA, "10", "4")
	h.receive(t, whB, "10", "8")

	in := transferInput(whA, whB, "10")
	in.UnitCost = ptr(dec("6"))
	res, err := h.transfer.Transfer(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "6.0000", numeric.Format(res.Out.UnitCost))
	assert.Equal(t, "60.0000", numeric.Format(res.In.TotalCost))
	assert.Equal(t, "reabastecimiento", res.In.Notes)

	// (10×8 + 10×6) / 20 = 7; el origen conserva su promedio
	assert.Equal(t, "7.0000", numeric.Format(h.balance(t, whB).AverageCost))
	assert.Equal(t, "4.0000", numeric.Format(h.balance(t, whA).AverageCost))
	assert.True(t, h.balance(t, whA).QuantityOnHand.IsZero())
}

func TestTransfer_CostoExplicitoSeRedondeaAntesDelPromedio(t *testing.T) {
	h := newHarness(t)
	h.receive(t, whA, "10", "4")
	h.receive(t, whB, "10", "8")

	in := transferInput(whA, whB, "10")
	in.UnitCost = ptr(dec("6.00005"))
	res, err := h.transfer.Transfer(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "6.0001", numeric.Format(res.In.UnitCost))
	assert.Equal(t, "60.0010", numeric.Format(res.In.TotalCost))

	// (80.0000 + 60.0010) / 20 = 7.00005 -> 7.0001
	assert.Equal(t, "7.0001", numeric.Format(h.balance(t, whB).AverageCost))
}

// Si falla la escritura del TransferIn, nada del traslado queda visible.
func TestTransfer_AtomicoAnteFallaDePersistencia(t *testing.T) {
	store := memory.NewStore()
	ok := newHarnessWithRunner(store, store)
	ok.receive(t, whA, "120", "12")

	broken := newHarnessWithRunner(store, failingRunner{inner: store, failOn: entity.LedgerTransferIn})
	_, err := broken.transfer.Transfer(context.Background(), transferInput(whA, whB, "50"))
	require.ErrorIs(t, err, domain.ErrPersistence)

	assert.Equal(t, "120.0000", numeric.Format(ok.balance(t, whA).QuantityOnHand))
	assert.Nil(t, ok.balance(t, whB))
	assert.Len(t, ok.entries(t, whA), 1, "el TransferOut no debe confirmarse")
	assert.Empty(t, ok.entries(t, whB))

	// el bloqueo se liberó con el rollback
	_, err = ok.transfer.Transfer(context.Background(), transferInput(whA, whB, "50"))
	require.NoError(t, err)
}

// Traslados concurrentes en sentidos opuestos terminan (sin deadlock) y conservan el total.
func TestTransfer_SentidosOpuestosConservanTotal(t *testing.T) {
	h := newHarness(t)
	h.receive(t, whA, "100", "1")
	h.receive(t, whB, "100", "1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = h.transfer.Transfer(ctx, transferInput(whA, whB, "3"))
		}()
		go func() {
			defer wg.Done()
			_, _ = h.transfer.Transfer(ctx, transferInput(whB, whA, "2"))
		}()
	}
	wg.Wait()
	require.NoError(t, ctx.Err(), "los traslados no deben quedar bloqueados")

	total := h.balance(t, whA).QuantityOnHand.Add(h.balance(t, whB).QuantityOnHand)
	assert.Equal(t, "200.0000", numeric.Format(total))

	for _, wh := range []string{whA, whB} {
		res, err := h.reconcile.ReconcileKey(context.Background(), key(wh))
		require.NoError(t, err)
		assert.True(t, res.Consistent, wh)
	}
}
