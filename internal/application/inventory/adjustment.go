package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// AdjustmentUseCase registra entradas y salidas sobre una sola llave de saldo
// (Receipt, Shipment, AdjustmentAdd, AdjustmentRemove, ReturnIn) con bloqueo de fila y Commit/Rollback.
type AdjustmentUseCase struct {
	txRunner TxRunner
	clock    Clock
	log      *logger.Logger
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(txRunner TxRunner, clock Clock, log *logger.Logger) *AdjustmentUseCase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AdjustmentUseCase{txRunner: txRunner, clock: clock, log: log.Named("adjustment")}
}

// AdjustInput entrada para Adjust. UnitCost es obligatorio en Receipt; en salidas se usa
// el costo promedio vigente cuando no se envía.
type AdjustInput struct {
	TenantID      string
	WarehouseID   string
	ProductID     string
	VariantID     string
	Type          entity.LedgerEntryType
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	Reason        string
	ReferenceType string
	ReferenceID   string
	CreatedBy     string
}

func (in AdjustInput) key() entity.BalanceKey {
	return entity.BalanceKey{TenantID: in.TenantID, WarehouseID: in.WarehouseID, ProductID: in.ProductID}
}

func (in AdjustInput) validate() error {
	if !in.key().Valid() {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.LedgerReceipt, entity.LedgerShipment, entity.LedgerAdjustmentAdd,
		entity.LedgerAdjustmentRemove, entity.LedgerReturnIn:
	default:
		// TransferOut/TransferIn solo los genera TransferUseCase
		return domain.ErrInvalidInput
	}
	if !numeric.Normalize(in.Quantity).IsPositive() {
		return domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	if in.Type == entity.LedgerReceipt && in.UnitCost == nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// Adjust bloquea el saldo (SELECT FOR UPDATE), valida contra la existencia actual, recalcula
// el costo promedio en entradas con costo, guarda el movimiento y el nuevo saldo, y hace Commit.
// Una salida que dejaría la existencia en negativo falla con *domain.InsufficientStockError sin
// escribir nada.
func (uc *AdjustmentUseCase) Adjust(ctx context.Context, in AdjustInput) (*entity.StockLedgerEntry, error) {
	in.UnitCost = normalizeCost(in.UnitCost)
	if err := in.validate(); err != nil {
		return nil, err
	}
	key := in.key()
	qty := numeric.Normalize(in.Quantity)

	var stored *entity.StockLedgerEntry
	err := uc.txRunner.Run(ctx, func(ledgerRepo repository.LedgerRepository, balanceRepo repository.BalanceRepository) error {
		current, err := balanceRepo.LockForUpdate(ctx, key)
		if err != nil {
			return err
		}
		now := uc.clock.Now()
		next, unitCost, err := applyMovement(current, key, in.Type, qty, in.UnitCost)
		if err != nil {
			return err
		}
		next.UpdatedAt = now

		entry := newEntry(key, in.VariantID, in.Type, qty, unitCost, now)
		entry.ReferenceType = in.ReferenceType
		entry.ReferenceID = in.ReferenceID
		entry.Notes = in.Reason
		entry.CreatedBy = in.CreatedBy

		if stored, err = ledgerRepo.Append(ctx, entry); err != nil {
			return err
		}
		_, err = balanceRepo.Write(ctx, next)
		return err
	})
	if err != nil {
		logFailure(uc.log, err, key, string(in.Type))
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", key.TenantID).
		Str("warehouse_id", key.WarehouseID).
		Str("product_id", key.ProductID).
		Str("type", string(in.Type)).
		Str("quantity", numeric.Format(qty)).
		Str("entry_id", stored.ID).
		Msg("movimiento registrado")
	return stored, nil
}

// applyMovement calcula el saldo resultante de un movimiento sobre una llave bloqueada.
// Devuelve también el costo unitario a registrar en el libro mayor.
func applyMovement(
	current *entity.StockBalance,
	key entity.BalanceKey,
	typ entity.LedgerEntryType,
	qty decimal.Decimal,
	unitCost *decimal.Decimal,
) (*entity.StockBalance, decimal.Decimal, error) {
	next := current.Clone()
	if next == nil {
		next = entity.NewStockBalance(key)
	}

	if typ.IsOutbound() {
		newQty := numeric.Sub(next.QuantityOnHand, qty, numeric.Scale)
		if numeric.Compare(newQty, numeric.Zero) < 0 {
			return nil, decimal.Zero, &domain.InsufficientStockError{
				Available: numeric.Normalize(next.QuantityOnHand),
				Requested: qty,
			}
		}
		next.QuantityOnHand = newQty
		// costo histórico: el enviado o el promedio vigente; el promedio no cambia
		cost := next.AverageCost
		if unitCost != nil {
			cost = *unitCost
		}
		return next, numeric.Normalize(cost), nil
	}

	if unitCost == nil {
		next.QuantityOnHand = numeric.Add(next.QuantityOnHand, qty, numeric.Scale)
		return next, numeric.Normalize(next.AverageCost), nil
	}
	next.QuantityOnHand, next.AverageCost = inventory.Reweight(current, qty, *unitCost)
	return next, numeric.Normalize(*unitCost), nil
}

// normalizeCost costo a escala 4; el promedio y el libro mayor usan este mismo valor.
func normalizeCost(c *decimal.Decimal) *decimal.Decimal {
	if c == nil {
		return nil
	}
	n := numeric.Normalize(*c)
	return &n
}

func newEntry(key entity.BalanceKey, variantID string, typ entity.LedgerEntryType, qty, unitCost decimal.Decimal, now time.Time) *entity.StockLedgerEntry {
	return &entity.StockLedgerEntry{
		TenantID:    key.TenantID,
		ProductID:   key.ProductID,
		VariantID:   variantID,
		WarehouseID: key.WarehouseID,
		Type:        typ,
		Quantity:    qty,
		UnitCost:    unitCost,
		TotalCost:   numeric.Mul(qty, unitCost, numeric.Scale),
		CreatedAt:   now,
	}
}

// logFailure registra rechazos de negocio en debug y fallas técnicas en warn/error.
func logFailure(log *logger.Logger, err error, key entity.BalanceKey, op string) {
	switch {
	case domain.IsRetryable(err):
		log.Warn().Err(err).Str("key", key.String()).Str("op", op).Bool("retryable", true).Msg("bloqueo no adquirido")
	case isBusinessRejection(err):
		log.Debug().Err(err).Str("key", key.String()).Str("op", op).Msg("movimiento rechazado")
	default:
		log.Error().Err(err).Str("key", key.String()).Str("op", op).Msg("movimiento revertido")
	}
}
