package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType tipo de movimiento del libro mayor de inventario.
type LedgerEntryType string

// Tipos de movimiento. El signo lo define el tipo, no la cantidad guardada.
const (
	LedgerReceipt          LedgerEntryType = "receipt"           // entrada por compra
	LedgerShipment         LedgerEntryType = "shipment"          // salida por venta/despacho
	LedgerAdjustmentAdd    LedgerEntryType = "adjustment_add"    // ajuste positivo
	LedgerAdjustmentRemove LedgerEntryType = "adjustment_remove" // ajuste negativo
	LedgerTransferOut      LedgerEntryType = "transfer_out"      // salida por traslado
	LedgerTransferIn       LedgerEntryType = "transfer_in"       // entrada por traslado
	LedgerReturnIn         LedgerEntryType = "return_in"         // devolución de cliente
)

// Direction sentido del movimiento sobre el saldo.
type Direction int

const (
	Inbound  Direction = 1
	Outbound Direction = -1
)

// ledgerDirections es la única tabla que resuelve el signo de cada tipo.
var ledgerDirections = map[LedgerEntryType]Direction{
	LedgerReceipt:          Inbound,
	LedgerShipment:         Outbound,
	LedgerAdjustmentAdd:    Inbound,
	LedgerAdjustmentRemove: Outbound,
	LedgerTransferOut:      Outbound,
	LedgerTransferIn:       Inbound,
	LedgerReturnIn:         Inbound,
}

// LedgerEntryTypes todos los tipos, en orden estable.
func LedgerEntryTypes() []LedgerEntryType {
	return []LedgerEntryType{
		LedgerReceipt, LedgerShipment, LedgerAdjustmentAdd, LedgerAdjustmentRemove,
		LedgerTransferOut, LedgerTransferIn, LedgerReturnIn,
	}
}

// ParseLedgerEntryType valida un tipo recibido como texto.
func ParseLedgerEntryType(s string) (LedgerEntryType, bool) {
	t := LedgerEntryType(s)
	_, ok := ledgerDirections[t]
	return t, ok
}

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t LedgerEntryType) Valid() bool {
	_, ok := ledgerDirections[t]
	return ok
}

// Direction devuelve el sentido del tipo. Panics si el tipo no es válido.
func (t LedgerEntryType) Direction() Direction {
	d, ok := ledgerDirections[t]
	if !ok {
		panic("entity: tipo de movimiento desconocido " + string(t))
	}
	return d
}

func (t LedgerEntryType) IsInbound() bool  { return t.Valid() && t.Direction() == Inbound }
func (t LedgerEntryType) IsOutbound() bool { return t.Valid() && t.Direction() == Outbound }

// StockLedgerEntry registro inmutable de un evento que afecta el stock.
// Se crea una sola vez dentro de una transacción confirmada; nunca se actualiza ni se borra.
type StockLedgerEntry struct {
	ID            string
	TenantID      string
	ProductID     string
	VariantID     string // opcional
	WarehouseID   string
	Type          LedgerEntryType
	Quantity      decimal.Decimal // siempre >= 0, escala 4
	UnitCost      decimal.Decimal // costo unitario al momento del movimiento
	TotalCost     decimal.Decimal // Quantity * UnitCost
	ReferenceType string          // orden de compra, pedido, ajuste manual...
	ReferenceID   string
	Notes         string
	CreatedBy     string // UserID
	CreatedAt     time.Time
}

// Key devuelve la llave de saldo a la que pertenece el movimiento.
func (e *StockLedgerEntry) Key() BalanceKey {
	return BalanceKey{TenantID: e.TenantID, WarehouseID: e.WarehouseID, ProductID: e.ProductID}
}

// SignedQuantity cantidad con el signo del tipo (+ entradas, - salidas).
func (e *StockLedgerEntry) SignedQuantity() decimal.Decimal {
	if e.Type.Direction() == Outbound {
		return e.Quantity.Neg()
	}
	return e.Quantity
}
