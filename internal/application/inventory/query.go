package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Límites de paginación del historial.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// QueryUseCase lecturas sin bloqueo: saldo actual e historial del libro mayor.
type QueryUseCase struct {
	ledgerRepo repository.LedgerRepository
	balances   repository.BalanceReader
}

// NewQueryUseCase construye el caso de uso con repositorios fuera de transacción.
func NewQueryUseCase(ledgerRepo repository.LedgerRepository, balances repository.BalanceReader) *QueryUseCase {
	return &QueryUseCase{ledgerRepo: ledgerRepo, balances: balances}
}

// Read devuelve una foto del saldo; ErrBalanceNotFound si la llave no tiene saldo.
func (uc *QueryUseCase) Read(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	if !key.Valid() {
		return nil, domain.ErrInvalidInput
	}
	b, err := uc.balances.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBalanceNotFound
	}
	return b, nil
}

// ListByKey historial del más reciente al más antiguo. Devuelve la página normalizada.
func (uc *QueryUseCase) ListByKey(ctx context.Context, key entity.BalanceKey, page, pageSize int) ([]*entity.StockLedgerEntry, int, int, error) {
	if !key.Valid() {
		return nil, 0, 0, domain.ErrInvalidInput
	}
	page, pageSize = NormalizePage(page, pageSize)
	list, err := uc.ledgerRepo.ListByKey(ctx, key, page, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	if list == nil {
		list = []*entity.StockLedgerEntry{}
	}
	return list, page, pageSize, nil
}

// NormalizePage aplica valores por defecto: página desde 1, tamaño 20, máximo 100.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
