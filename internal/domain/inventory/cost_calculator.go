package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
)

// Reweight implementa el costo promedio ponderado (servicio de dominio, sin efectos ni bloqueos).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Sin saldo previo el costo es el de la entrada; si la nueva cantidad es cero el costo es cero.
func Reweight(existing *entity.StockBalance, incomingQty, incomingCost decimal.Decimal) (newQty, newAvgCost decimal.Decimal) {
	if existing == nil {
		return numeric.Normalize(incomingQty), numeric.Normalize(incomingCost)
	}
	newQty = numeric.Add(existing.QuantityOnHand, incomingQty, numeric.Scale)
	num := existing.QuantityOnHand.Mul(existing.AverageCost).Add(incomingQty.Mul(incomingCost))
	avg, err := numeric.Div(num, newQty, numeric.Scale)
	if err != nil {
		return newQty, numeric.Zero
	}
	return newQty, avg
}
