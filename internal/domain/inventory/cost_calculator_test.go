package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
)

func balance(qty, cost string) *entity.StockBalance {
	b := entity.NewStockBalance(entity.BalanceKey{TenantID: "t", WarehouseID: "w", ProductID: "p"})
	b.QuantityOnHand = numeric.MustParse(qty)
	b.AverageCost = numeric.MustParse(cost)
	return b
}

func TestReweight_SinSaldoPrevio(t *testing.T) {
	qty, avg := inventory.Reweight(nil, numeric.MustParse("100"), numeric.MustParse("10"))
	assert.Equal(t, "100.0000", numeric.Format(qty))
	assert.Equal(t, "10.0000", numeric.Format(avg))
}

// (100×10 + 50×16) / 150 = 12
func TestReweight_PromedioPonderado(t *testing.T) {
	qty, avg := inventory.Reweight(balance("100", "10"), numeric.MustParse("50"), numeric.MustParse("16"))
	assert.Equal(t, "150.0000", numeric.Format(qty))
	assert.Equal(t, "12.0000", numeric.Format(avg))
}

func TestReweight_RedondeoHalfUp(t *testing.T) {
	// (1×1 + 2×2) / 3 = 1.66666... -> 1.6667
	_, avg := inventory.Reweight(balance("1", "1"), numeric.MustParse("2"), numeric.MustParse("2"))
	assert.Equal(t, "1.6667", numeric.Format(avg))
}

func TestReweight_CantidadResultanteCero(t *testing.T) {
	qty, avg := inventory.Reweight(balance("0", "7.5"), decimal.Zero, numeric.MustParse("3"))
	assert.True(t, qty.IsZero())
	assert.Equal(t, "0.0000", numeric.Format(avg))
}

func TestReweight_SaldoEnCeroTomaCostoEntrante(t *testing.T) {
	qty, avg := inventory.Reweight(balance("0", "7.5"), numeric.MustParse("4"), numeric.MustParse("3"))
	assert.Equal(t, "4.0000", numeric.Format(qty))
	assert.Equal(t, "3.0000", numeric.Format(avg))
}

// Lotes con el mismo costo producen el mismo resultado sin importar el orden.
func TestReweight_IndependienteDelOrdenConCostoIgual(t *testing.T) {
	cost := numeric.MustParse("3.3333")
	batches := []string{"7", "0.5", "13.25"}

	apply := func(order []int) (decimal.Decimal, decimal.Decimal) {
		var b *entity.StockBalance
		for _, i := range order {
			q, c := inventory.Reweight(b, numeric.MustParse(batches[i]), cost)
			b = balance(numeric.Format(q), numeric.Format(c))
		}
		return b.QuantityOnHand, b.AverageCost
	}

	q1, c1 := apply([]int{0, 1, 2})
	q2, c2 := apply([]int{2, 0, 1})
	q3, c3 := apply([]int{1, 2, 0})

	assert.True(t, q1.Equal(q2) && q2.Equal(q3))
	assert.True(t, c1.Equal(c2) && c2.Equal(c3))
	assert.Equal(t, "3.3333", numeric.Format(c1))
}
