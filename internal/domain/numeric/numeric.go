// Package numeric concentra la aritmética decimal de punto fijo usada en cantidades y costos.
// Todos los valores del libro mayor y de los saldos se guardan a escala 4; el redondeo a 2
// decimales para presentación ocurre fuera de este paquete.
package numeric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Scale es la cantidad de dígitos decimales de cantidades y costos.
const Scale int32 = 4

// Zero a escala 4.
var Zero = decimal.Zero

// Normalize redondea half-up a escala 4.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Add suma a la escala indicada.
func Add(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return a.Add(b).Round(scale)
}

// Sub resta a la escala indicada.
func Sub(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return a.Sub(b).Round(scale)
}

// Mul multiplica a la escala indicada.
func Mul(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return a.Mul(b).Round(scale)
}

// Div divide a la escala indicada (half-up). Falla con domain.ErrDivisionByZero si b == 0.
func Div(a, b decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, domain.ErrDivisionByZero
	}
	return a.DivRound(b, scale), nil
}

// Compare devuelve -1, 0 o 1.
func Compare(a, b decimal.Decimal) int {
	return a.Cmp(b)
}

// Parse interpreta texto decimal canónico ("12", "-3.5", "0.0001").
// No acepta notación científica ni separadores de miles.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "eE,_") {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidDecimal, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidDecimal, s)
	}
	return d, nil
}

// MustParse es Parse para constantes conocidas; entra en pánico si el texto es inválido.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format devuelve la representación canónica a escala 4 ("100.0000").
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
