package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP del libro mayor y los saldos (protegido).
type InventoryHandler struct {
	adjust      *inventory.AdjustmentUseCase
	transfer    *inventory.TransferUseCase
	reservation *inventory.ReservationUseCase
	query       *inventory.QueryUseCase
	reconcile   *inventory.ReconciliationUseCase
	publisher   inventory.MovementPublisher
	log         *logger.Logger
}

// NewInventoryHandler construye el handler. publisher nil equivale a no publicar.
func NewInventoryHandler(deps RouterDeps) *InventoryHandler {
	return &InventoryHandler{
		adjust:      deps.Adjust,
		transfer:    deps.Transfer,
		reservation: deps.Reservation,
		query:       deps.Query,
		reconcile:   deps.Reconcile,
		publisher:   deps.Publisher,
		log:         deps.Logger.Named("http"),
	}
}

// Adjust godoc
// @Summary      Registrar entrada o salida sobre un saldo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "warehouse_id, product_id, type, quantity, unit_cost (obligatorio en receipt)"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	typ, ok := entity.ParseLedgerEntryType(in.Type)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "type desconocido"})
	}
	qty, err := parseAmount(in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	cost, err := parseOptionalAmount(in.UnitCost)
	if err != nil {
		return writeError(c, err)
	}

	entry, err := h.adjust.Adjust(c.Context(), inventory.AdjustInput{
		TenantID:      GetCompanyID(c),
		WarehouseID:   in.WarehouseID,
		ProductID:     in.ProductID,
		VariantID:     in.VariantID,
		Type:          typ,
		Quantity:      qty,
		UnitCost:      cost,
		Reason:        in.Reason,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		CreatedBy:     GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	h.publish(c.Context(), entry)
	return c.Status(fiber.StatusCreated).JSON(dto.NewLedgerEntryResponse(entry))
}

// Transfer godoc
// @Summary      Trasladar entre bodegas
// @Description  Registra TransferOut y TransferIn en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_warehouse_id, to_warehouse_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	qty, err := parseAmount(in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	cost, err := parseOptionalAmount(in.UnitCost)
	if err != nil {
		return writeError(c, err)
	}

	res, err := h.transfer.Transfer(c.Context(), inventory.TransferInput{
		TenantID:        GetCompanyID(c),
		ProductID:       in.ProductID,
		VariantID:       in.VariantID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        qty,
		UnitCost:        cost,
		Notes:           in.Notes,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		CreatedBy:       GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	h.publish(c.Context(), res.Out, res.In)
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		Out: dto.NewLedgerEntryResponse(res.Out),
		In:  dto.NewLedgerEntryResponse(res.In),
	})
}

// Reserve godoc
// @Summary      Reservar cantidad disponible
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "warehouse_id, product_id, quantity"
// @Success      200   {object}  dto.BalanceResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	return h.changeReservation(c, h.reservation.Reserve)
}

// Release godoc
// @Summary      Liberar cantidad reservada
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "warehouse_id, product_id, quantity"
// @Success      200   {object}  dto.BalanceResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations/release [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	return h.changeReservation(c, h.reservation.Release)
}

func (h *InventoryHandler) changeReservation(
	c *fiber.Ctx,
	op func(ctx context.Context, key entity.BalanceKey, qty decimal.Decimal) (*entity.StockBalance, error),
) error {
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	qty, err := parseAmount(in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	key := entity.BalanceKey{TenantID: GetCompanyID(c), WarehouseID: in.WarehouseID, ProductID: in.ProductID}
	b, err := op(c.Context(), key, qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewBalanceResponse(b))
}

// GetBalance godoc
// @Summary      Saldo de un producto en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "Bodega"
// @Param        product_id    path  string  true  "Producto"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/balances/{warehouse_id}/{product_id} [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	b, err := h.query.Read(c.Context(), pathKey(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewBalanceResponse(b))
}

// ListLedger godoc
// @Summary      Historial del libro mayor (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path   string  true   "Bodega"
// @Param        product_id    path   string  true   "Producto"
// @Param        page          query  int     false  "Página (desde 1)"
// @Param        page_size     query  int     false  "Tamaño (máx. 100)"
// @Success      200  {object}  dto.LedgerPageResponse
// @Router       /api/inventory/ledger/{warehouse_id}/{product_id} [get]
func (h *InventoryHandler) ListLedger(c *fiber.Ctx) error {
	list, page, size, err := h.query.ListByKey(c.Context(), pathKey(c),
		c.QueryInt("page", 1), c.QueryInt("page_size", inventory.DefaultPageSize))
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.LedgerEntryResponse, 0, len(list))
	for _, e := range list {
		items = append(items, dto.NewLedgerEntryResponse(e))
	}
	return c.JSON(dto.LedgerPageResponse{
		Items:        items,
		PageResponse: dto.PageResponse{Page: page, PageSize: size, Count: len(items)},
	})
}

// Reconcile godoc
// @Summary      Conciliar saldo vs libro mayor
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "Bodega"
// @Param        product_id    path  string  true  "Producto"
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/inventory/reconciliation/{warehouse_id}/{product_id} [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	res, err := h.reconcile.ReconcileKey(c.Context(), pathKey(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReconciliationResponse{
		WarehouseID: res.Key.WarehouseID,
		ProductID:   res.Key.ProductID,
		OnHand:      numeric.Format(res.OnHand),
		LedgerSum:   numeric.Format(res.LedgerSum),
		Consistent:  res.Consistent,
	})
}

// publish difunde movimientos ya confirmados; una falla solo se registra.
func (h *InventoryHandler) publish(ctx context.Context, entries ...*entity.StockLedgerEntry) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishMovements(ctx, entries...); err != nil {
		h.log.Warn().Err(err).Int("count", len(entries)).Msg("movimientos confirmados sin publicar")
	}
}

func pathKey(c *fiber.Ctx) entity.BalanceKey {
	return entity.BalanceKey{
		TenantID:    GetCompanyID(c),
		WarehouseID: c.Params("warehouse_id"),
		ProductID:   c.Params("product_id"),
	}
}

func parseAmount(a dto.Amount) (decimal.Decimal, error) {
	if a == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	return numeric.Parse(string(a))
}

func parseOptionalAmount(a *dto.Amount) (*decimal.Decimal, error) {
	if a == nil || *a == "" {
		return nil, nil
	}
	d, err := numeric.Parse(string(*a))
	if err != nil {
		return nil, err
	}
	return &d, nil
}
