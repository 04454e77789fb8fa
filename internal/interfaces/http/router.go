package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Adjust      *inventory.AdjustmentUseCase
	Transfer    *inventory.TransferUseCase
	Reservation *inventory.ReservationUseCase
	Query       *inventory.QueryUseCase
	Reconcile   *inventory.ReconciliationUseCase
	Publisher   inventory.MovementPublisher
	Logger      *logger.Logger
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token); el tenant sale del claim company_id
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	writers := RequireRole(RoleAdmin, RoleBodeguero)
	reservers := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor)
	auditors := RequireRole(RoleAdmin, RoleAuditor)
	readers := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor, RoleAuditor)

	invGroup := protected.Group("/inventory")
	h := NewInventoryHandler(deps)
	invGroup.Post("/adjustments", writers, h.Adjust)
	invGroup.Post("/transfers", writers, h.Transfer)
	invGroup.Post("/reservations", reservers, h.Reserve)
	invGroup.Post("/reservations/release", reservers, h.Release)
	invGroup.Get("/balances/:warehouse_id/:product_id", readers, h.GetBalance)
	invGroup.Get("/ledger/:warehouse_id/:product_id", readers, h.ListLedger)
	invGroup.Get("/reconciliation/:warehouse_id/:product_id", auditors, h.Reconcile)
}
