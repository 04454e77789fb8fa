package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// TransferUseCase traslada cantidad entre dos bodegas como una sola unidad atómica
// (dos movimientos, dos saldos, una transacción).
type TransferUseCase struct {
	txRunner TxRunner
	clock    Clock
	log      *logger.Logger
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(txRunner TxRunner, clock Clock, log *logger.Logger) *TransferUseCase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TransferUseCase{txRunner: txRunner, clock: clock, log: log.Named("transfer")}
}

// TransferInput entrada para Transfer. Sin UnitCost se traslada al costo promedio de origen.
type TransferInput struct {
	TenantID        string
	ProductID       string
	VariantID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal
	Notes           string
	ReferenceType   string
	ReferenceID     string
	CreatedBy       string
}

// TransferResult par de movimientos confirmados.
type TransferResult struct {
	Out *entity.StockLedgerEntry
	In  *entity.StockLedgerEntry
}

// Transfer resta de la bodega origen y suma en la destino dentro de la misma transacción.
// Ambas llaves se bloquean en orden canónico (por ID de bodega) para que dos traslados en
// sentidos opuestos no se bloqueen mutuamente.
func (uc *TransferUseCase) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.TenantID == "" || in.ProductID == "" || in.FromWarehouseID == "" || in.ToWarehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	// Se rechaza antes de abrir la transacción
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, domain.ErrInvalidTransfer
	}
	qty := numeric.Normalize(in.Quantity)
	in.UnitCost = normalizeCost(in.UnitCost)
	if !qty.IsPositive() || (in.UnitCost != nil && in.UnitCost.IsNegative()) {
		return nil, domain.ErrInvalidInput
	}

	srcKey := entity.BalanceKey{TenantID: in.TenantID, WarehouseID: in.FromWarehouseID, ProductID: in.ProductID}
	dstKey := entity.BalanceKey{TenantID: in.TenantID, WarehouseID: in.ToWarehouseID, ProductID: in.ProductID}

	var result TransferResult
	err := uc.txRunner.Run(ctx, func(ledgerRepo repository.LedgerRepository, balanceRepo repository.BalanceRepository) error {
		src, dst, err := lockPair(ctx, balanceRepo, srcKey, dstKey)
		if err != nil {
			return err
		}
		now := uc.clock.Now()

		// Origen: valida y descuenta
		nextSrc, outCost, err := applyMovement(src, srcKey, entity.LedgerTransferOut, qty, in.UnitCost)
		if err != nil {
			return err
		}
		nextSrc.UpdatedAt = now
		out := newEntry(srcKey, in.VariantID, entity.LedgerTransferOut, qty, outCost, now)
		uc.decorate(out, in)
		if result.Out, err = ledgerRepo.Append(ctx, out); err != nil {
			return err
		}
		if _, err := balanceRepo.Write(ctx, nextSrc); err != nil {
			return err
		}

		// Destino: suma y recalcula costo promedio al costo trasladado
		nextDst := dst.Clone()
		if nextDst == nil {
			nextDst = entity.NewStockBalance(dstKey)
		}
		nextDst.QuantityOnHand, nextDst.AverageCost = inventory.Reweight(dst, qty, outCost)
		nextDst.UpdatedAt = now
		inEntry := newEntry(dstKey, in.VariantID, entity.LedgerTransferIn, qty, outCost, now)
		uc.decorate(inEntry, in)
		if result.In, err = ledgerRepo.Append(ctx, inEntry); err != nil {
			return err
		}
		_, err = balanceRepo.Write(ctx, nextDst)
		return err
	})
	if err != nil {
		logFailure(uc.log, err, srcKey, "transfer")
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", in.TenantID).
		Str("product_id", in.ProductID).
		Str("from_warehouse_id", in.FromWarehouseID).
		Str("to_warehouse_id", in.ToWarehouseID).
		Str("quantity", numeric.Format(qty)).
		Msg("traslado registrado")
	return &result, nil
}

func (uc *TransferUseCase) decorate(e *entity.StockLedgerEntry, in TransferInput) {
	e.ReferenceType = in.ReferenceType
	e.ReferenceID = in.ReferenceID
	e.Notes = in.Notes
	e.CreatedBy = in.CreatedBy
}

// lockPair bloquea dos llaves en orden canónico y devuelve (origen, destino).
func lockPair(ctx context.Context, balanceRepo repository.BalanceRepository, srcKey, dstKey entity.BalanceKey) (*entity.StockBalance, *entity.StockBalance, error) {
	first, second := srcKey, dstKey
	if dstKey.WarehouseID < srcKey.WarehouseID {
		first, second = dstKey, srcKey
	}
	a, err := balanceRepo.LockForUpdate(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := balanceRepo.LockForUpdate(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	if first == srcKey {
		return a, b, nil
	}
	return b, a, nil
}
