package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC      *usecase.WarehouseUseCase
	ProductUC        *usecase.ProductUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Allocation       *inventory.AllocationUseCase
	Balances         *inventory.BalanceUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	Reports          *inventory.ReportUseCase
	Auth             AuthConfig
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Auth))

	adminOnly := RequireRole(RoleAdmin)
	stockWriters := RequireRole(RoleAdmin, RoleBodeguero)

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", adminOnly, warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", adminOnly, warehouseHandler.Update)
	warehouses.Delete("/:id", adminOnly, warehouseHandler.Delete)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	// Libro de inventario
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Allocation, deps.Balances, deps.Replenishment, deps.Reports)
	invGroup.Post("/movements", stockWriters, inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Post("/receipts", stockWriters, inventoryHandler.ReceivePurchase)
	invGroup.Post("/transfers", stockWriters, inventoryHandler.Transfer)
	invGroup.Get("/balances", inventoryHandler.Balances)
	invGroup.Post("/allocations/plan", inventoryHandler.PlanAllocation)
	invGroup.Post("/allocations/consume", stockWriters, inventoryHandler.ConsumeAllocation)
	invGroup.Get("/replenishment-list", stockWriters, inventoryHandler.GetReplenishmentList)
	invGroup.Get("/valuation", adminOnly, inventoryHandler.Valuation)
	invGroup.Get("/valuation/export.xlsx", adminOnly, inventoryHandler.ExportValuationXLSX)
	invGroup.Get("/valuation/report.pdf", adminOnly, inventoryHandler.ValuationPDF)
}
