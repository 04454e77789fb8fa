// seed_stock carga saldos iniciales desde un CSV como recepciones del libro mayor, pasando
// por el mismo motor que la API (bloqueo, costo promedio, conciliación).
//
// Uso: go run ./cmd/seed_stock -tenant acme [-latin1] [-user seed] saldos.csv
// Columnas: warehouse_id,product_id,quantity,unit_cost[,reference_id]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	tenant := flag.String("tenant", "", "empresa (company_id) dueña de los saldos")
	user := flag.String("user", "seed", "valor de created_by")
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1 (exportado desde Excel)")
	flag.Parse()
	if *tenant == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_stock -tenant <company_id> [-latin1] archivo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, bad, err := parseOpeningBalances(f, *latin1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	for _, b := range bad {
		fmt.Fprintf(os.Stderr, "%v (fila omitida)\n", b)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conectar PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	uc := inventory.NewAdjustmentUseCase(postgres.NewTxRunner(pool, cfg.DB.LockTimeout), inventory.SystemClock{}, log)
	loaded, failed := 0, len(bad)
	for _, r := range rows {
		cost := r.UnitCost
		_, err := uc.Adjust(ctx, inventory.AdjustInput{
			TenantID:      *tenant,
			WarehouseID:   r.WarehouseID,
			ProductID:     r.ProductID,
			Type:          entity.LedgerReceipt,
			Quantity:      r.Quantity,
			UnitCost:      &cost,
			Reason:        "saldo inicial",
			ReferenceType: "opening_balance",
			ReferenceID:   r.ReferenceID,
			CreatedBy:     *user,
		})
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "línea %d (%s/%s): %v\n", r.Line, r.WarehouseID, r.ProductID, err)
			continue
		}
		loaded++
	}
	fmt.Printf("Cargados: %d, con error: %d\n", loaded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
