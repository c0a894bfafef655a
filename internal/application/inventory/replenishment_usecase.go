package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

const replenishmentPageSize = 200

// ReplenishmentUseCase genera la lista de reposición para una bodega (o toda la empresa).
// El stock sale del libro; la cantidad sugerida se redondea a empaques completos de compra.
type ReplenishmentUseCase struct {
	movRepo     repository.InventoryMovementRepository
	productRepo repository.ProductRepository
	cfg         EngineConfig
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	cfg EngineConfig,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		movRepo:     movRepo,
		productRepo: productRepo,
		cfg:         cfg,
	}
}

// GenerateReplenishmentList devuelve los productos en o bajo su punto de reorden con la cantidad
// sugerida de pedido, priorizados por déficit relativo.
// warehouseID puede ser vacío para considerar stock global de la empresa.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(
	ctx context.Context,
	companyID, warehouseID string,
) ([]dto.ReplenishmentSuggestionDTO, error) {

	// 1. Stock y valor por producto (todas las bodegas/lotes del alcance)
	records, err := loadRecords(ctx, uc.movRepo, companyID, warehouseID, "")
	if err != nil {
		return nil, err
	}
	balances, err := inventory.ComputeBalances(records, inventory.BalanceFilter{WarehouseID: warehouseID}, uc.cfg.options()...)
	if err != nil {
		return nil, err
	}
	qtyByProduct := map[string]decimal.Decimal{}
	valueByProduct := map[string]decimal.Decimal{}
	for _, b := range balances {
		qtyByProduct[b.ProductID] = qtyByProduct[b.ProductID].Add(b.Quantity)
		valueByProduct[b.ProductID] = valueByProduct[b.ProductID].Add(b.TotalValue)
	}

	// 2. Productos con punto de reorden
	products, err := uc.allProducts(ctx, companyID)
	if err != nil {
		return nil, err
	}

	// 3. Sugerencias
	factor := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, p := range products {
		if !p.ReorderPoint.IsPositive() {
			continue
		}
		stock := qtyByProduct[p.ID]
		if stock.GreaterThan(p.ReorderPoint) {
			continue
		}
		idealStock := p.ReorderPoint.Mul(factor)
		suggestedQty := idealStock.Sub(stock)
		packs := suggestedQty
		if p.UnitsPerPack.IsPositive() {
			if n, err := inventory.ToPurchaseUnits(suggestedQty, p.UnitsPerPack); err == nil {
				packs = n.Ceil()
				suggestedQty = inventory.ToBaseUnits(packs, p.UnitsPerPack)
			}
		}
		unitCost := inventory.AverageCost(valueByProduct[p.ID], stock)

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          p.ID,
			SKU:                p.SKU,
			ProductName:        p.Name,
			CurrentStock:       stock,
			ReorderPoint:       p.ReorderPoint,
			IdealStock:         idealStock,
			SuggestedOrderQty:  suggestedQty,
			SuggestedPacks:     packs,
			PurchaseUnit:       nonEmpty(p.PurchaseUnit, p.BaseUnit),
			UnitCost:           unitCost,
			EstimatedOrderCost: suggestedQty.Mul(unitCost),
		})
	}

	// 4. Ordenar: mayor déficit relativo primero, luego mayor déficit absoluto, luego SKU.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		relA := a.ReorderPoint.Sub(a.CurrentStock).Div(a.ReorderPoint)
		relB := b.ReorderPoint.Sub(b.CurrentStock).Div(b.ReorderPoint)
		if !relA.Equal(relB) {
			return relA.GreaterThan(relB)
		}
		defA := a.ReorderPoint.Sub(a.CurrentStock)
		defB := b.ReorderPoint.Sub(b.CurrentStock)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return a.SKU < b.SKU
	})

	// 5. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}

	return suggestions, nil
}

func (uc *ReplenishmentUseCase) allProducts(ctx context.Context, companyID string) ([]*entity.Product, error) {
	var all []*entity.Product
	for offset := 0; ; offset += replenishmentPageSize {
		page, err := uc.productRepo.ListByCompany(ctx, companyID, replenishmentPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < replenishmentPageSize {
			return all, nil
		}
	}
}
