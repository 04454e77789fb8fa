package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testTenant  = "acme"
	testProduct = "SKU-001"
	whA         = "WH-A"
	whB         = "WH-B"
	testUser    = "user-1"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type harness struct {
	store       *memory.Store
	adjust      *inventory.AdjustmentUseCase
	transfer    *inventory.TransferUseCase
	reservation *inventory.ReservationUseCase
	query       *inventory.QueryUseCase
	reconcile   *inventory.ReconciliationUseCase
}

func newHarness(t *testing.T, opts ...memory.Option) *harness {
	t.Helper()
	store := memory.NewStore(opts...)
	return newHarnessWithRunner(store, store)
}

func newHarnessWithRunner(store *memory.Store, runner inventory.TxRunner) *harness {
	clock := fixedClock{t: testNow}
	log := logger.Nop()
	return &harness{
		store:       store,
		adjust:      inventory.NewAdjustmentUseCase(runner, clock, log),
		transfer:    inventory.NewTransferUseCase(runner, clock, log),
		reservation: inventory.NewReservationUseCase(runner, clock, log),
		query:       inventory.NewQueryUseCase(store.Ledger(), store.Balances()),
		reconcile:   inventory.NewReconciliationUseCase(store.Snapshots(), log),
	}
}

func dec(s string) decimal.Decimal { return numeric.MustParse(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func key(warehouse string) entity.BalanceKey {
	return entity.BalanceKey{TenantID: testTenant, WarehouseID: warehouse, ProductID: testProduct}
}

func receiptInput(warehouse, qty, cost string) inventory.AdjustInput {
	return inventory.AdjustInput{
		TenantID: testTenant, WarehouseID: warehouse, ProductID: testProduct,
		Type: entity.LedgerReceipt, Quantity: dec(qty), UnitCost: ptr(dec(cost)),
		ReferenceType: "purchase_order", ReferenceID: "PO-1", CreatedBy: testUser,
	}
}

func (h *harness) receive(t *testing.T, warehouse, qty, cost string) *entity.StockLedgerEntry {
	t.Helper()
	e, err := h.adjust.Adjust(context.Background(), receiptInput(warehouse, qty, cost))
	require.NoError(t, err)
	return e
}

func (h *harness) ship(warehouse, qty string) (*entity.StockLedgerEntry, error) {
	return h.adjust.Adjust(context.Background(), inventory.AdjustInput{
		TenantID: testTenant, WarehouseID: warehouse, ProductID: testProduct,
		Type: entity.LedgerShipment, Quantity: dec(qty),
		ReferenceType: "sales_order", ReferenceID: "SO-1", CreatedBy: testUser,
	})
}

func (h *harness) balance(t *testing.T, warehouse string) *entity.StockBalance {
	t.Helper()
	b, err := h.store.Balances().Read(context.Background(), key(warehouse))
	require.NoError(t, err)
	return b
}

func (h *harness) entries(t *testing.T, warehouse string) []*entity.StockLedgerEntry {
	t.Helper()
	list, _, _, err := h.query.ListByKey(context.Background(), key(warehouse), 1, inventory.MaxPageSize)
	require.NoError(t, err)
	return list
}

// failingRunner envuelve un TxRunner y hace fallar el Append del tipo indicado,
// simulando una falla de almacenamiento a mitad de la transacción.
type failingRunner struct {
	inner  inventory.TxRunner
	failOn entity.LedgerEntryType
}

func (r failingRunner) Run(ctx context.Context, fn func(repository.LedgerRepository, repository.BalanceRepository) error) error {
	return r.inner.Run(ctx, func(l repository.LedgerRepository, b repository.BalanceRepository) error {
		return fn(failingLedger{LedgerRepository: l, failOn: r.failOn}, b)
	})
}

type failingLedger struct {
	repository.LedgerRepository
	failOn entity.LedgerEntryType
}

func (l failingLedger) Append(ctx context.Context, e *entity.StockLedgerEntry) (*entity.StockLedgerEntry, error) {
	if e.Type == l.failOn {
		return nil, domain.NewPersistenceError("append ledger entry", errors.New("disco lleno"))
	}
	return l.LedgerRepository.Append(ctx, e)
}
