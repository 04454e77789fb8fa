package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, tenant_id, product_id, variant_id, warehouse_id, type, quantity, unit_cost, total_cost,
	reference_type, reference_id, notes, created_by, created_at`

// LedgerRepo libro mayor sobre PostgreSQL (usable con pool o tx). Solo inserta.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append persiste un movimiento. El ID es UUIDv7 para que el orden por ID siga el tiempo.
func (r *LedgerRepo) Append(ctx context.Context, entry *entity.StockLedgerEntry) (*entity.StockLedgerEntry, error) {
	if entry == nil || !entry.Type.Valid() || entry.Quantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	e := *entry
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO stock_ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`
	// ON CONFLICT evita abortar la transacción si el ID choca; se reintenta una vez con otro ID
	for attempt := 0; attempt < 2; attempt++ {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, domain.NewPersistenceError("append ledger entry", err)
		}
		e.ID = id.String()
		tag, err := r.q.Exec(ctx, query,
			e.ID, e.TenantID, e.ProductID, nullable(e.VariantID), e.WarehouseID, string(e.Type),
			e.Quantity, e.UnitCost, e.TotalCost,
			nullable(e.ReferenceType), nullable(e.ReferenceID), nullable(e.Notes), nullable(e.CreatedBy),
			e.CreatedAt,
		)
		if err != nil {
			return nil, classify("append ledger entry", err)
		}
		if tag.RowsAffected() == 1 {
			return &e, nil
		}
	}
	return nil, domain.NewPersistenceError("append ledger entry", fmt.Errorf("id duplicado"))
}

// ListByKey historial de una llave, más reciente primero. page empieza en 1.
func (r *LedgerRepo) ListByKey(ctx context.Context, key entity.BalanceKey, page, pageSize int) ([]*entity.StockLedgerEntry, error) {
	if page < 1 {
		page = 1
	}
	query := `
		SELECT ` + ledgerColumns + `
		FROM stock_ledger_entries
		WHERE tenant_id = $1 AND warehouse_id = $2 AND product_id = $3
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, key.TenantID, key.WarehouseID, key.ProductID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, classify("list ledger entries", err)
	}
	defer rows.Close()

	list := make([]*entity.StockLedgerEntry, 0, pageSize)
	for rows.Next() {
		var (
			e                                      entity.StockLedgerEntry
			typ                                    string
			variant, refType, refID, notes, author *string
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ProductID, &variant, &e.WarehouseID, &typ,
			&e.Quantity, &e.UnitCost, &e.TotalCost, &refType, &refID, &notes, &author, &e.CreatedAt); err != nil {
			return nil, classify("scan ledger entry", err)
		}
		e.Type = entity.LedgerEntryType(typ)
		e.VariantID = deref(variant)
		e.ReferenceType = deref(refType)
		e.ReferenceID = deref(refID)
		e.Notes = deref(notes)
		e.CreatedBy = deref(author)
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list ledger entries", err)
	}
	return list, nil
}

// SumByKey Σ cantidades con signo (entradas +, salidas −) de una llave.
func (r *LedgerRepo) SumByKey(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, error) {
	query := `
		SELECT ` + sumOver("$4") + `
		FROM stock_ledger_entries l
		WHERE l.tenant_id = $1 AND l.warehouse_id = $2 AND l.product_id = $3`
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.ProductID, outboundTypes()).Scan(&sum)
	if err != nil {
		return decimal.Zero, classify("sum ledger entries", err)
	}
	return sum, nil
}

// Update siempre falla: el libro mayor es inmutable.
func (r *LedgerRepo) Update(context.Context, *entity.StockLedgerEntry) error {
	return domain.ErrImmutableEntry
}

// Delete siempre falla: el libro mayor es inmutable.
func (r *LedgerRepo) Delete(context.Context, string) error {
	return domain.ErrImmutableEntry
}

func outboundTypes() []string {
	var out []string
	for _, t := range entity.LedgerEntryTypes() {
		if t.IsOutbound() {
			out = append(out, string(t))
		}
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
