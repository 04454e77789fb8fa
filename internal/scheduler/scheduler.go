// Package scheduler ejecuta tareas periódicas del motor de inventario.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const reconcileTimeout = 10 * time.Minute

// Reconciler lo que el scheduler necesita de la conciliación.
type Reconciler interface {
	ReconcileTenant(ctx context.Context, tenantID string) (*inventory.ReconciliationReport, error)
}

// Scheduler concilia periódicamente libro mayor vs saldos de las empresas configuradas.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	cfg        config.ReconcileConfig
	log        *logger.Logger
}

// New construye el scheduler; no arranca nada hasta Start.
func New(cfg config.ReconcileConfig, reconciler Reconciler, log *logger.Logger) *Scheduler {
	// cron estándar de 5 campos; un job que sigue corriendo no se solapa con el siguiente
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{cron: c, reconciler: reconciler, cfg: cfg, log: log.Named("scheduler")}
}

// Start registra la conciliación y arranca el cron. Con RECONCILE_CRON vacío o sin empresas
// no programa nada.
func (s *Scheduler) Start() error {
	if s.cfg.Cron == "" || len(s.cfg.Tenants) == 0 {
		s.log.Info().Msg("conciliación periódica deshabilitada")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.Cron, s.reconcileAll); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("cron", s.cfg.Cron).Strs("tenants", s.cfg.Tenants).Msg("conciliación programada")
	return nil
}

// Stop detiene el cron y espera a que termine el job en curso o a que ctx venza.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("conciliación en curso interrumpida por apagado")
	}
}

// reconcileAll concilia cada empresa; el error de una no detiene a las demás.
func (s *Scheduler) reconcileAll() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce concilia todas las empresas configuradas y devuelve los reportes obtenidos.
func (s *Scheduler) RunOnce(ctx context.Context) []*inventory.ReconciliationReport {
	reports := make([]*inventory.ReconciliationReport, 0, len(s.cfg.Tenants))
	for _, tenant := range s.cfg.Tenants {
		report, err := s.reconciler.ReconcileTenant(ctx, tenant)
		if err != nil {
			s.log.Error().Err(err).Str("tenant_id", tenant).Msg("falló la conciliación")
			continue
		}
		if len(report.Mismatches) > 0 {
			s.log.Error().Str("tenant_id", tenant).Int("mismatches", len(report.Mismatches)).Msg("conciliación con diferencias")
		}
		reports = append(reports, report)
	}
	return reports
}
