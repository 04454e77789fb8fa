package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestLedgerEntryType_Direccion(t *testing.T) {
	inbound := []entity.LedgerEntryType{
		entity.LedgerReceipt, entity.LedgerAdjustmentAdd, entity.LedgerTransferIn, entity.LedgerReturnIn,
	}
	outbound := []entity.LedgerEntryType{
		entity.LedgerShipment, entity.LedgerAdjustmentRemove, entity.LedgerTransferOut,
	}
	for _, typ := range inbound {
		assert.True(t, typ.IsInbound(), string(typ))
		assert.False(t, typ.IsOutbound(), string(typ))
	}
	for _, typ := range outbound {
		assert.True(t, typ.IsOutbound(), string(typ))
		assert.False(t, typ.IsInbound(), string(typ))
	}
}

func TestLedgerEntryTypes_CubreLaTabla(t *testing.T) {
	all := entity.LedgerEntryTypes()
	assert.Len(t, all, 7)
	for _, typ := range all {
		assert.True(t, typ.Valid(), string(typ))
	}
}

func TestParseLedgerEntryType(t *testing.T) {
	typ, ok := entity.ParseLedgerEntryType("return_in")
	assert.True(t, ok)
	assert.Equal(t, entity.LedgerReturnIn, typ)

	_, ok = entity.ParseLedgerEntryType("IN")
	assert.False(t, ok)
	assert.False(t, entity.LedgerEntryType("IN").IsInbound())
	assert.Panics(t, func() { entity.LedgerEntryType("IN").Direction() })
}

func TestStockLedgerEntry_SignedQuantity(t *testing.T) {
	e := &entity.StockLedgerEntry{Type: entity.LedgerShipment, Quantity: decimal.NewFromInt(30)}
	assert.Equal(t, "-30", e.SignedQuantity().String())

	e.Type = entity.LedgerReceipt
	assert.Equal(t, "30", e.SignedQuantity().String())
}

func TestStockBalance_Available(t *testing.T) {
	b := entity.NewStockBalance(entity.BalanceKey{TenantID: "t", WarehouseID: "w", ProductID: "p"})
	b.QuantityOnHand = decimal.NewFromInt(120)
	b.QuantityReserved = decimal.NewFromInt(20)
	assert.Equal(t, "100", b.Available().String())
	assert.Equal(t, "t/w/p", b.Key().String())

	c := b.Clone()
	c.QuantityOnHand = decimal.Zero
	assert.Equal(t, "120", b.QuantityOnHand.String(), "Clone no debe compartir estado")
}
