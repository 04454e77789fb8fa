package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const reconcileBatchSize = 200

// ReconciliationResult compara la existencia del saldo con la suma con signo del libro mayor.
type ReconciliationResult struct {
	Key        entity.BalanceKey
	OnHand     decimal.Decimal
	LedgerSum  decimal.Decimal
	Consistent bool
}

// ReconciliationReport resultado de conciliar una empresa completa.
type ReconciliationReport struct {
	TenantID   string
	Checked    int
	Mismatches []ReconciliationResult
}

// ReconciliationUseCase verifica que QuantityOnHand == Σ movimientos con signo. Solo lectura:
// nunca corrige, reporta. Existencia y suma de cada llave vienen de la misma foto.
type ReconciliationUseCase struct {
	snapshots repository.ReconciliationReader
	log       *logger.Logger
}

// NewReconciliationUseCase construye el caso de uso.
func NewReconciliationUseCase(snapshots repository.ReconciliationReader, log *logger.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{snapshots: snapshots, log: log.Named("reconciliation")}
}

// ReconcileKey concilia una llave. Una llave sin saldo ni movimientos es consistente.
func (uc *ReconciliationUseCase) ReconcileKey(ctx context.Context, key entity.BalanceKey) (*ReconciliationResult, error) {
	if !key.Valid() {
		return nil, domain.ErrInvalidInput
	}
	snap, err := uc.snapshots.SnapshotKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return uc.compare(snap), nil
}

// ReconcileTenant recorre todos los saldos de la empresa en lotes.
func (uc *ReconciliationUseCase) ReconcileTenant(ctx context.Context, tenantID string) (*ReconciliationReport, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	report := &ReconciliationReport{TenantID: tenantID}
	for offset := 0; ; offset += reconcileBatchSize {
		batch, err := uc.snapshots.SnapshotTenant(ctx, tenantID, reconcileBatchSize, offset)
		if err != nil {
			return nil, err
		}
		for _, snap := range batch {
			res := uc.compare(snap)
			report.Checked++
			if !res.Consistent {
				report.Mismatches = append(report.Mismatches, *res)
			}
		}
		if len(batch) < reconcileBatchSize {
			break
		}
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Int("checked", report.Checked).
		Int("mismatches", len(report.Mismatches)).
		Msg("conciliación finalizada")
	return report, nil
}

func (uc *ReconciliationUseCase) compare(snap *repository.KeySnapshot) *ReconciliationResult {
	res := &ReconciliationResult{
		Key:        snap.Key,
		OnHand:     numeric.Normalize(snap.OnHand),
		LedgerSum:  numeric.Normalize(snap.LedgerSum),
		Consistent: numeric.Compare(snap.OnHand, snap.LedgerSum) == 0,
	}
	if !res.Consistent {
		uc.log.Error().
			Str("key", snap.Key.String()).
			Str("on_hand", numeric.Format(res.OnHand)).
			Str("ledger_sum", numeric.Format(res.LedgerSum)).
			Msg("saldo no coincide con el libro mayor")
	}
	return res
}
