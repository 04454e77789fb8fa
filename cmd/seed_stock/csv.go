package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
)

// openingRow una fila del CSV de saldos iniciales.
type openingRow struct {
	Line        int
	WarehouseID string
	ProductID   string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	ReferenceID string
}

// rowError fila descartada por formato; la carga continúa con las demás.
type rowError struct {
	Line int
	Err  error
}

func (e rowError) Error() string { return fmt.Sprintf("línea %d: %v", e.Line, e.Err) }

func (e rowError) Unwrap() error { return e.Err }

// parseOpeningBalances lee el CSV. La primera fila se toma como encabezado si su tercera
// columna no es un número. Las filas mal formadas se devuelven en bad y no detienen la
// lectura; err solo reporta fallas de E/S.
func parseOpeningBalances(r io.Reader, latin1 bool) (rows []openingRow, bad []rowError, err error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, nil, err
			}
			bad = append(bad, rowError{Line: pe.StartLine, Err: pe.Err})
			first = false
			continue
		}
		line, _ := cr.FieldPos(0)
		header := first
		first = false

		if len(rec) < 4 {
			bad = append(bad, rowError{Line: line, Err: errors.New("se esperan al menos 4 columnas")})
			continue
		}
		qty, qtyErr := numeric.Parse(strings.TrimSpace(rec[2]))
		if header && qtyErr != nil {
			continue
		}
		if qtyErr != nil {
			bad = append(bad, rowError{Line: line, Err: fmt.Errorf("quantity: %w", qtyErr)})
			continue
		}
		cost, err := numeric.Parse(strings.TrimSpace(rec[3]))
		if err != nil {
			bad = append(bad, rowError{Line: line, Err: fmt.Errorf("unit_cost: %w", err)})
			continue
		}
		row := openingRow{
			Line:        line,
			WarehouseID: strings.TrimSpace(rec[0]),
			ProductID:   strings.TrimSpace(rec[1]),
			Quantity:    qty,
			UnitCost:    cost,
		}
		if len(rec) > 4 {
			row.ReferenceID = strings.TrimSpace(rec[4])
		}
		rows = append(rows, row)
	}
	return rows, bad, nil
}
