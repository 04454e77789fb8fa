package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.BalanceReader     = (*BalanceRepo)(nil)
	_ repository.BalanceRepository = (*BalanceRepo)(nil)
)

const balanceColumns = `tenant_id, warehouse_id, product_id, quantity_on_hand, quantity_reserved, average_cost, updated_at`

// BalanceRepo saldos sobre PostgreSQL. Construido con el pool solo sirve para lecturas;
// dentro de TxRunner además bloquea filas y escribe.
type BalanceRepo struct {
	q      Querier
	inTx   bool
	locked map[entity.BalanceKey]bool
}

// NewBalanceRepository adaptador de lectura sobre el pool.
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

func newTxBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q, inTx: true, locked: make(map[entity.BalanceKey]bool)}
}

// Read foto del saldo sin bloqueo; nil si la llave no tiene fila.
func (r *BalanceRepo) Read(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM stock_balances
		WHERE tenant_id = $1 AND warehouse_id = $2 AND product_id = $3`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.ProductID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("read balance", err)
	}
	return b, nil
}

// ListByTenant saldos de una empresa ordenados por bodega y producto.
func (r *BalanceRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM stock_balances
		WHERE tenant_id = $1
		ORDER BY warehouse_id, product_id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, classify("list balances", err)
	}
	defer rows.Close()
	list := make([]*entity.StockBalance, 0)
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, classify("scan balance", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list balances", err)
	}
	return list, nil
}

// LockForUpdate bloquea la fila del saldo hasta el fin de la transacción (SELECT FOR UPDATE).
// Si la llave no existe se inserta una fila en cero para tener qué bloquear; se devuelve nil
// y, si la transacción no escribe el saldo, el rollback la elimina.
func (r *BalanceRepo) LockForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	if !r.inTx {
		return nil, domain.ErrLockNotHeld
	}
	insert := `
		INSERT INTO stock_balances (` + balanceColumns + `)
		VALUES ($1, $2, $3, 0, 0, 0, now())
		ON CONFLICT (tenant_id, warehouse_id, product_id) DO NOTHING
		RETURNING tenant_id`
	var created string
	err := r.q.QueryRow(ctx, insert, key.TenantID, key.WarehouseID, key.ProductID).Scan(&created)
	switch {
	case err == nil:
		// fila nueva: el INSERT ya la dejó bloqueada para esta transacción
		r.locked[key] = true
		return nil, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, classify("lock balance", err)
	}

	query := `SELECT ` + balanceColumns + ` FROM stock_balances
		WHERE tenant_id = $1 AND warehouse_id = $2 AND product_id = $3
		FOR UPDATE`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.TenantID, key.WarehouseID, key.ProductID))
	if err != nil {
		return nil, classify("lock balance", err)
	}
	r.locked[key] = true
	return b, nil
}

// Write persiste el saldo de una llave bloqueada por esta transacción.
func (r *BalanceRepo) Write(ctx context.Context, balance *entity.StockBalance) (*entity.StockBalance, error) {
	if balance == nil {
		return nil, domain.ErrInvalidInput
	}
	if !r.inTx || !r.locked[balance.Key()] {
		return nil, domain.ErrLockNotHeld
	}
	query := `
		UPDATE stock_balances
		SET quantity_on_hand = $4, quantity_reserved = $5, average_cost = $6, updated_at = $7
		WHERE tenant_id = $1 AND warehouse_id = $2 AND product_id = $3
		RETURNING ` + balanceColumns
	b, err := scanBalance(r.q.QueryRow(ctx, query,
		balance.TenantID, balance.WarehouseID, balance.ProductID,
		balance.QuantityOnHand, balance.QuantityReserved, balance.AverageCost, balance.UpdatedAt,
	))
	if err != nil {
		return nil, classify("write balance", err)
	}
	return b, nil
}

func scanBalance(row pgx.Row) (*entity.StockBalance, error) {
	var b entity.StockBalance
	if err := row.Scan(&b.TenantID, &b.WarehouseID, &b.ProductID,
		&b.QuantityOnHand, &b.QuantityReserved, &b.AverageCost, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
