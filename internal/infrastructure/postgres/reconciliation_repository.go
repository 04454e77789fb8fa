package postgres

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReconciliationReader = (*ReconciliationRepo)(nil)

// sumOver Σ cantidades con signo de las filas "l"; param es el parámetro con los tipos de salida.
func sumOver(param string) string {
	return `COALESCE(SUM(CASE WHEN l.type = ANY(` + param + `) THEN -l.quantity ELSE l.quantity END), 0)`
}

// ReconciliationRepo lecturas de conciliación. Cada consulta es una sola sentencia, de modo
// que saldo y suma salen de la misma foto aun en READ COMMITTED.
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador sobre el pool.
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// SnapshotKey existencia y suma del libro mayor de una llave.
func (r *ReconciliationRepo) SnapshotKey(ctx context.Context, key entity.BalanceKey) (*repository.KeySnapshot, error) {
	query := `
		SELECT
			COALESCE((SELECT b.quantity_on_hand FROM stock_balances b
				WHERE b.tenant_id = $1 AND b.warehouse_id = $2 AND b.product_id = $3), 0),
			(SELECT ` + sumOver("$4") + ` FROM stock_ledger_entries l
				WHERE l.tenant_id = $1 AND l.warehouse_id = $2 AND l.product_id = $3)`
	snap := &repository.KeySnapshot{Key: key}
	err := r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.ProductID, outboundTypes()).
		Scan(&snap.OnHand, &snap.LedgerSum)
	if err != nil {
		return nil, classify("snapshot balance", err)
	}
	return snap, nil
}

// SnapshotTenant saldos de la empresa con la suma de su libro mayor, por páginas.
func (r *ReconciliationRepo) SnapshotTenant(ctx context.Context, tenantID string, limit, offset int) ([]*repository.KeySnapshot, error) {
	query := `
		SELECT b.warehouse_id, b.product_id, b.quantity_on_hand, s.total
		FROM stock_balances b
		CROSS JOIN LATERAL (
			SELECT ` + sumOver("$2") + ` AS total
			FROM stock_ledger_entries l
			WHERE l.tenant_id = b.tenant_id AND l.warehouse_id = b.warehouse_id AND l.product_id = b.product_id
		) s
		WHERE b.tenant_id = $1
		ORDER BY b.warehouse_id, b.product_id
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, tenantID, outboundTypes(), limit, offset)
	if err != nil {
		return nil, classify("snapshot tenant", err)
	}
	defer rows.Close()

	list := make([]*repository.KeySnapshot, 0)
	for rows.Next() {
		snap := &repository.KeySnapshot{Key: entity.BalanceKey{TenantID: tenantID}}
		if err := rows.Scan(&snap.Key.WarehouseID, &snap.Key.ProductID, &snap.OnHand, &snap.LedgerSum); err != nil {
			return nil, classify("scan snapshot", err)
		}
		list = append(list, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("snapshot tenant", err)
	}
	return list, nil
}
