package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
)

// AdjustmentRequest body para POST /api/inventory/adjustments.
// type: receipt | shipment | adjustment_add | adjustment_remove | return_in.
type AdjustmentRequest struct {
	WarehouseID   string  `json:"warehouse_id"`
	ProductID     string  `json:"product_id"`
	VariantID     string  `json:"variant_id,omitempty"`
	Type          string  `json:"type"`
	Quantity      Amount  `json:"quantity"`
	UnitCost      *Amount `json:"unit_cost,omitempty"` // obligatorio en receipt
	Reason        string  `json:"reason,omitempty"`
	ReferenceType string  `json:"reference_type,omitempty"`
	ReferenceID   string  `json:"reference_id,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID       string  `json:"product_id"`
	VariantID       string  `json:"variant_id,omitempty"`
	FromWarehouseID string  `json:"from_warehouse_id"`
	ToWarehouseID   string  `json:"to_warehouse_id"`
	Quantity        Amount  `json:"quantity"`
	UnitCost        *Amount `json:"unit_cost,omitempty"` // por defecto, costo promedio de origen
	Notes           string  `json:"notes,omitempty"`
	ReferenceType   string  `json:"reference_type,omitempty"`
	ReferenceID     string  `json:"reference_id,omitempty"`
}

// ReservationRequest body para reservar o liberar.
type ReservationRequest struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Quantity    Amount `json:"quantity"`
}

// LedgerEntryResponse movimiento del libro mayor.
type LedgerEntryResponse struct {
	ID            string    `json:"id"`
	WarehouseID   string    `json:"warehouse_id"`
	ProductID     string    `json:"product_id"`
	VariantID     string    `json:"variant_id,omitempty"`
	Type          string    `json:"type"`
	Quantity      string    `json:"quantity"`
	UnitCost      string    `json:"unit_cost"`
	TotalCost     string    `json:"total_cost"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransferResponse par de movimientos de un traslado.
type TransferResponse struct {
	Out LedgerEntryResponse `json:"out"`
	In  LedgerEntryResponse `json:"in"`
}

// BalanceResponse saldo de una llave. Valores decimales como texto con 4 decimales.
type BalanceResponse struct {
	WarehouseID      string    `json:"warehouse_id"`
	ProductID        string    `json:"product_id"`
	QuantityOnHand   string    `json:"quantity_on_hand"`
	QuantityReserved string    `json:"quantity_reserved"`
	Available        string    `json:"available"`
	AverageCost      string    `json:"average_cost"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LedgerPageResponse página del historial.
type LedgerPageResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	PageResponse
}

// ReconciliationResponse resultado de conciliar una llave.
type ReconciliationResponse struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	OnHand      string `json:"on_hand"`
	LedgerSum   string `json:"ledger_sum"`
	Consistent  bool   `json:"consistent"`
}

// NewLedgerEntryResponse mapea la entidad al cuerpo de respuesta.
func NewLedgerEntryResponse(e *entity.StockLedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID,
		WarehouseID:   e.WarehouseID,
		ProductID:     e.ProductID,
		VariantID:     e.VariantID,
		Type:          string(e.Type),
		Quantity:      numeric.Format(e.Quantity),
		UnitCost:      numeric.Format(e.UnitCost),
		TotalCost:     numeric.Format(e.TotalCost),
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		Notes:         e.Notes,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
	}
}

// NewBalanceResponse mapea el saldo.
func NewBalanceResponse(b *entity.StockBalance) BalanceResponse {
	return BalanceResponse{
		WarehouseID:      b.WarehouseID,
		ProductID:        b.ProductID,
		QuantityOnHand:   numeric.Format(b.QuantityOnHand),
		QuantityReserved: numeric.Format(b.QuantityReserved),
		Available:        numeric.Format(b.Available()),
		AverageCost:      numeric.Format(b.AverageCost),
		UpdatedAt:        b.UpdatedAt,
	}
}
