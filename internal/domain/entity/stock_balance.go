package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifica un saldo: (empresa, bodega, producto).
type BalanceKey struct {
	TenantID    string
	WarehouseID string
	ProductID   string
}

// Valid indica si los tres componentes están presentes.
func (k BalanceKey) Valid() bool {
	return k.TenantID != "" && k.WarehouseID != "" && k.ProductID != ""
}

// String forma canónica "tenant/warehouse/product" (logs y llaves de mensajes).
func (k BalanceKey) String() string {
	return k.TenantID + "/" + k.WarehouseID + "/" + k.ProductID
}

// StockBalance saldo actual de un producto en una bodega (una fila por llave).
// Derivado del libro mayor; se bloquea (SELECT FOR UPDATE) antes de modificarse.
type StockBalance struct {
	TenantID         string
	WarehouseID      string
	ProductID        string
	QuantityOnHand   decimal.Decimal // existencia física, escala 4
	QuantityReserved decimal.Decimal // apartado para despachos futuros, sin movimiento en el libro
	AverageCost      decimal.Decimal // costo promedio ponderado
	UpdatedAt        time.Time
}

// NewStockBalance crea un saldo vacío para la llave.
func NewStockBalance(key BalanceKey) *StockBalance {
	return &StockBalance{
		TenantID:         key.TenantID,
		WarehouseID:      key.WarehouseID,
		ProductID:        key.ProductID,
		QuantityOnHand:   decimal.Zero,
		QuantityReserved: decimal.Zero,
		AverageCost:      decimal.Zero,
	}
}

func (b *StockBalance) Key() BalanceKey {
	return BalanceKey{TenantID: b.TenantID, WarehouseID: b.WarehouseID, ProductID: b.ProductID}
}

// Available existencia menos reservas.
func (b *StockBalance) Available() decimal.Decimal {
	return b.QuantityOnHand.Sub(b.QuantityReserved)
}

// Clone copia el saldo; los stores entregan copias para que nadie mute su estado interno.
func (b *StockBalance) Clone() *StockBalance {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
