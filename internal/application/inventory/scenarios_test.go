package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
)

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios A–F encadenados sobre WH-A / WH-B
// ──────────────────────────────────────────────────────────────────────────────

func TestEscenarios_RecepcionDespachoTrasladoReserva(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// A: saldo vacío, recibir 100 @ 10
	entryA := h.receive(t, whA, "100", "10.0000")
	b := h.balance(t, whA)
	require.NotNil(t, b)
	assert.Equal(t, "100.0000", numeric.Format(b.QuantityOnHand))
	assert.Equal(t, "10.0000", numeric.Format(b.AverageCost))
	assert.Equal(t, "1000.0000", numeric.Format(entryA.TotalCost))
	assert.Equal(t, testNow, entryA.CreatedAt)
	assert.Equal(t, testUser, entryA.CreatedBy)
	assert.NotEmpty(t, entryA.ID)

	// B: recibir 50 @ 16 -> promedio 12
	h.receive(t, whA, "50", "16.0000")
	b = h.balance(t, whA)
	assert.Equal(t, "150.0000", numeric.Format(b.QuantityOnHand))
	assert.Equal(t, "12.0000", numeric.Format(b.AverageCost))

	// C: despachar 30 -> 120, costo sin cambio, un movimiento Shipment al costo promedio
	shipment, err := h.ship(whA, "30")
	require.NoError(t, err)
	assert.Equal(t, entity.LedgerShipment, shipment.Type)
	assert.Equal(t, "30.0000", numeric.Format(shipment.Quantity))
	assert.Equal(t, "12.0000", numeric.Format(shipment.UnitCost))
	assert.Equal(t, "360.0000", numeric.Format(shipment.TotalCost))
	b = h.balance(t, whA)
	assert.Equal(t, "120.0000", numeric.Format(b.QuantityOnHand))
	assert.Equal(t, "12.0000", numeric.Format(b.AverageCost))
	assert.Len(t, h.entries(t, whA), 3)

	// D: despachar 200 -> InsufficientStockError{120, 200}, saldo intacto, sin movimiento
	_, err = h.ship(whA, "200")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "120.0000", numeric.Format(insufficient.Available))
	assert.Equal(t, "200.0000", numeric.Format(insufficient.Requested))
	assert.False(t, domain.IsRetryable(err))
	assert.Equal(t, "120.0000", numeric.Format(h.balance(t, whA).QuantityOnHand))
	assert.Len(t, h.entries(t, whA), 3, "un rechazo no debe dejar movimiento")

	// E: trasladar 50 de WH-A (120) a WH-B (vacío)
	res, err := h.transfer.Transfer(ctx, transferInput(whA, whB, "50"))
	require.NoError(t, err)
	assert.Equal(t, entity.LedgerTransferOut, res.Out.Type)
	assert.Equal(t, entity.LedgerTransferIn, res.In.Type)
	assert.Equal(t, whA, res.Out.WarehouseID)
	assert.Equal(t, whB, res.In.WarehouseID)

	src, dst := h.balance(t, whA), h.balance(t, whB)
	assert.Equal(t, "70.0000", numeric.Format(src.QuantityOnHand))
	assert.Equal(t, "12.0000", numeric.Format(src.AverageCost))
	assert.Equal(t, "50.0000", numeric.Format(dst.QuantityOnHand))
	assert.Equal(t, "12.0000", numeric.Format(dst.AverageCost), "destino al costo trasladado")

	// F: reservar 20 y liberar 25 -> OverRelease, reservado sigue en 20
	_, err = h.reservation.Reserve(ctx, key(whB), dec("20"))
	require.NoError(t, err)
	_, err = h.reservation.Release(ctx, key(whB), dec("25"))
	require.ErrorIs(t, err, domain.ErrOverRelease)
	assert.Equal(t, "20.0000", numeric.Format(h.balance(t, whB).QuantityReserved))

	// Reconciliación de ambas bodegas
	report, err := h.reconcile.ReconcileTenant(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Empty(t, report.Mismatches)
}
