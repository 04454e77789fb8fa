package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ReservationUseCase aparta y libera cantidad sobre QuantityReserved.
// No toca QuantityOnHand ni escribe en el libro mayor.
type ReservationUseCase struct {
	txRunner TxRunner
	clock    Clock
	log      *logger.Logger
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(txRunner TxRunner, clock Clock, log *logger.Logger) *ReservationUseCase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReservationUseCase{txRunner: txRunner, clock: clock, log: log.Named("reservation")}
}

// Reserve aumenta la reserva. Falla con ErrBalanceNotFound si la llave no tiene saldo y con
// *domain.InsufficientStockError si la reserva superaría la existencia.
func (uc *ReservationUseCase) Reserve(ctx context.Context, key entity.BalanceKey, quantity decimal.Decimal) (*entity.StockBalance, error) {
	return uc.change(ctx, key, quantity, "reserve", func(b *entity.StockBalance, qty decimal.Decimal) error {
		if numeric.Compare(qty, b.Available()) > 0 {
			return &domain.InsufficientStockError{Available: numeric.Normalize(b.Available()), Requested: qty}
		}
		b.QuantityReserved = numeric.Add(b.QuantityReserved, qty, numeric.Scale)
		return nil
	})
}

// Release disminuye la reserva. Falla con ErrOverRelease si qty supera lo reservado.
func (uc *ReservationUseCase) Release(ctx context.Context, key entity.BalanceKey, quantity decimal.Decimal) (*entity.StockBalance, error) {
	return uc.change(ctx, key, quantity, "release", func(b *entity.StockBalance, qty decimal.Decimal) error {
		if numeric.Compare(qty, b.QuantityReserved) > 0 {
			return domain.ErrOverRelease
		}
		b.QuantityReserved = numeric.Sub(b.QuantityReserved, qty, numeric.Scale)
		return nil
	})
}

func (uc *ReservationUseCase) change(
	ctx context.Context,
	key entity.BalanceKey,
	quantity decimal.Decimal,
	op string,
	apply func(b *entity.StockBalance, qty decimal.Decimal) error,
) (*entity.StockBalance, error) {
	qty := numeric.Normalize(quantity)
	if !key.Valid() || !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}

	var updated *entity.StockBalance
	err := uc.txRunner.Run(ctx, func(_ repository.LedgerRepository, balanceRepo repository.BalanceRepository) error {
		current, err := balanceRepo.LockForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrBalanceNotFound
		}
		next := current.Clone()
		if err := apply(next, qty); err != nil {
			return err
		}
		next.UpdatedAt = uc.clock.Now()
		updated, err = balanceRepo.Write(ctx, next)
		return err
	})
	if err != nil {
		logFailure(uc.log, err, key, op)
		return nil, err
	}

	uc.log.Debug().
		Str("key", key.String()).
		Str("op", op).
		Str("quantity", numeric.Format(qty)).
		Str("reserved", numeric.Format(updated.QuantityReserved)).
		Msg("reserva actualizada")
	return updated, nil
}
