package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario (protegido).
type InventoryHandler struct {
	movements     *inventory.RegisterMovementUseCase
	allocation    *inventory.AllocationUseCase
	balances      *inventory.BalanceUseCase
	replenishment *inventory.ReplenishmentUseCase
	reports       *inventory.ReportUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	movements *inventory.RegisterMovementUseCase,
	allocation *inventory.AllocationUseCase,
	balances *inventory.BalanceUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	reports *inventory.ReportUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		movements:     movements,
		allocation:    allocation,
		balances:      balances,
		replenishment: replenishment,
		reports:       reports,
	}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Anexa un movimiento al libro. Para adjustment_absolute quantity es el conteo físico final.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, warehouse_id, lot_id, kind, quantity, unit_cost/total_cost (entradas)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.movements.RegisterMovementFromRequest(c.UserContext(), companyID, userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        product_id    query  string  false  "Producto"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	q := dto.MovementQuery{
		WarehouseID: c.Query("warehouse_id"),
		ProductID:   c.Query("product_id"),
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)},
	}
	var err error
	if q.From, err = queryTime(c, "from"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	out, err := h.balances.ListMovements(c.UserContext(), companyID, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ReceivePurchase godoc
// @Summary      Recepción de compra en empaques
// @Description  Convierte empaques a unidades base con el tamaño de empaque del producto y registra la entrada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceivePurchaseRequest  true  "packs, total_cost de la factura, lote y vencimiento"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) ReceivePurchase(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReceivePurchaseRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.movements.ReceivePurchase(c.UserContext(), companyID, userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transfer godoc
// @Summary      Traslado entre bodegas
// @Description  Emite el par salida/entrada por lote al costo promedio del lote origen, en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "from_warehouse_id, to_warehouse_id, product_id, quantity, lot_id opcional"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.movements.Transfer(c.UserContext(), companyID, userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Balances godoc
// @Summary      Saldos por bodega, producto y lote
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        product_id    query  string  false  "Producto"
// @Param        lot_id        query  string  false  "Lote exacto"
// @Param        unlotted      query  bool    false  "Solo saldo sin lote"
// @Success      200  {object}  dto.BalanceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/balances [get]
func (h *InventoryHandler) Balances(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	q := dto.BalanceQuery{
		WarehouseID: c.Query("warehouse_id"),
		ProductID:   c.Query("product_id"),
		LotID:       c.Query("lot_id"),
		Unlotted:    c.QueryBool("unlotted", false),
	}
	out, err := h.balances.Balances(c.UserContext(), companyID, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PlanAllocation godoc
// @Summary      Planificar consumo FEFO
// @Description  Calcula qué lotes cubrirían la cantidad sin registrar movimientos.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocationRequest  true  "warehouse_id, product_id, quantity"
// @Success      200   {object}  dto.AllocationResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/allocations/plan [post]
func (h *InventoryHandler) PlanAllocation(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.AllocationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.allocation.Plan(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ConsumeAllocation godoc
// @Summary      Consumir stock FEFO
// @Description  Selecciona lotes y registra las salidas en una sola transacción bloqueada por bodega y producto.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocationRequest  true  "warehouse_id, product_id, quantity, kind (outbound_*)"
// @Success      201   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/allocations/consume [post]
func (h *InventoryHandler) ConsumeAllocation(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AllocationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.allocation.Consume(c.UserContext(), companyID, userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Valuation godoc
// @Summary      Valorización del inventario por bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ValuationResponse
// @Router       /api/inventory/valuation [get]
func (h *InventoryHandler) Valuation(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.balances.Valuation(c.UserContext(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ExportValuationXLSX godoc
// @Summary      Exportar saldos a Excel
// @Tags         inventory
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  binary
// @Router       /api/inventory/valuation/export.xlsx [get]
func (h *InventoryHandler) ExportValuationXLSX(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	data, err := h.reports.ValuationXLSX(c.UserContext(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, data, mimeXLSX, "valorizacion.xlsx")
}

// ValuationPDF godoc
// @Summary      Informe PDF de valorización
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/inventory/valuation/report.pdf [get]
func (h *InventoryHandler) ValuationPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	data, err := h.reports.ValuationPDF(c.UserContext(), companyID)
	if err != nil {
		return respondError(c, err)
	}
	return sendFile(c, data, mimePDF, "valorizacion.pdf")
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Devuelve los productos en o bajo el punto de reorden con la cantidad sugerida
//
//	de pedido redondeada a empaques completos, ordenados por déficit relativo.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega (UUID). Vacío = stock global."
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}

	warehouseID := c.Query("warehouse_id")

	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), companyID, warehouseID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("%s: formato de fecha inválido (RFC3339 o AAAA-MM-DD)", key)
		}
	}
	return &t, nil
}

func sendFile(c *fiber.Ctx, data []byte, contentType, filename string) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
