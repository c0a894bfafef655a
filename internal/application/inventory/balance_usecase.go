package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// BalanceUseCase consultas del libro: historial, saldos y valorización.
// Los saldos nunca se persisten; siempre se reconstruyen desde los movimientos.
type BalanceUseCase struct {
	movRepo       repository.InventoryMovementRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	cfg           EngineConfig
}

// NewBalanceUseCase construye el caso de uso.
func NewBalanceUseCase(
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	cfg EngineConfig,
) *BalanceUseCase {
	return &BalanceUseCase{
		movRepo:       movRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		cfg:           cfg,
	}
}

// ListMovements historial paginado de la empresa.
func (uc *BalanceUseCase) ListMovements(ctx context.Context, companyID string, q dto.MovementQuery) (*dto.MovementListResponse, error) {
	q.DefaultPage()
	list, err := uc.movRepo.List(ctx, repository.MovementFilter{
		CompanyID:   companyID,
		WarehouseID: q.WarehouseID,
		ProductID:   q.ProductID,
		From:        q.From,
		To:          q.To,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}, nil
}

// Balances saldos por bodega/producto/lote con los filtros indicados.
func (uc *BalanceUseCase) Balances(ctx context.Context, companyID string, q dto.BalanceQuery) (*dto.BalanceListResponse, error) {
	if q.Unlotted && q.LotID != "" {
		return nil, fmt.Errorf("%w: lot_id y unlotted son excluyentes", domain.ErrInvalidInput)
	}
	balances, err := uc.compute(ctx, companyID, q)
	if err != nil {
		return nil, err
	}
	items, err := uc.enrich(ctx, balances)
	if err != nil {
		return nil, err
	}
	out := &dto.BalanceListResponse{Items: items, TotalQuantity: decimal.Zero, TotalValue: decimal.Zero}
	for _, b := range items {
		out.TotalQuantity = out.TotalQuantity.Add(b.Quantity)
		out.TotalValue = out.TotalValue.Add(b.TotalValue)
	}
	return out, nil
}

// Valuation totales por bodega a costo promedio ponderado.
func (uc *BalanceUseCase) Valuation(ctx context.Context, companyID string) (*dto.ValuationResponse, error) {
	report, err := uc.ValuationReport(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &report.Valuation, nil
}

// ValuationReport valorización más el detalle de saldos, insumo de los exportadores.
func (uc *BalanceUseCase) ValuationReport(ctx context.Context, companyID string) (*dto.ValuationReport, error) {
	balances, err := uc.compute(ctx, companyID, dto.BalanceQuery{})
	if err != nil {
		return nil, err
	}
	items, err := uc.enrich(ctx, balances)
	if err != nil {
		return nil, err
	}

	mode := uc.cfg.CostingMode
	if mode == "" {
		mode = inventory.CostingMovingAverage
	}
	val := dto.ValuationResponse{
		GeneratedAt: time.Now(),
		CostingMode: string(mode),
		Warehouses:  []dto.WarehouseValuationDTO{},
		TotalValue:  decimal.Zero,
	}
	// items viene ordenado por bodega: se agrupa en una sola pasada.
	var cur *dto.WarehouseValuationDTO
	products := map[string]bool{}
	for _, b := range items {
		if cur == nil || cur.WarehouseID != b.WarehouseID {
			val.Warehouses = append(val.Warehouses, dto.WarehouseValuationDTO{
				WarehouseID:   b.WarehouseID,
				WarehouseName: uc.warehouseName(ctx, b.WarehouseID),
				TotalQuantity: decimal.Zero,
				TotalValue:    decimal.Zero,
			})
			cur = &val.Warehouses[len(val.Warehouses)-1]
			products = map[string]bool{}
		}
		if !products[b.ProductID] {
			products[b.ProductID] = true
			cur.Products++
		}
		cur.Lots++
		cur.TotalQuantity = cur.TotalQuantity.Add(b.Quantity)
		cur.TotalValue = cur.TotalValue.Add(b.TotalValue)
		val.TotalValue = val.TotalValue.Add(b.TotalValue)
	}

	return &dto.ValuationReport{
		Title:     "Valorización de inventario",
		Valuation: val,
		Balances:  items,
	}, nil
}

func (uc *BalanceUseCase) compute(ctx context.Context, companyID string, q dto.BalanceQuery) ([]inventory.StockBalance, error) {
	records, err := loadRecords(ctx, uc.movRepo, companyID, q.WarehouseID, q.ProductID)
	if err != nil {
		return nil, err
	}
	lot := inventory.AnyLot()
	switch {
	case q.Unlotted:
		lot = inventory.Unlotted()
	case q.LotID != "":
		lot = inventory.Lot(q.LotID)
	}
	return inventory.ComputeBalances(records, inventory.BalanceFilter{
		WarehouseID: q.WarehouseID,
		ProductID:   q.ProductID,
		Lot:         lot,
	}, uc.cfg.options()...)
}

// enrich completa nombre, SKU y unidad desde el maestro de productos.
func (uc *BalanceUseCase) enrich(ctx context.Context, balances []inventory.StockBalance) ([]dto.BalanceDTO, error) {
	cache := map[string]*entity.Product{}
	items := make([]dto.BalanceDTO, 0, len(balances))
	for _, b := range balances {
		p, ok := cache[b.ProductID]
		if !ok {
			var err error
			p, err = uc.productRepo.GetByID(ctx, b.ProductID)
			if err != nil {
				return nil, err
			}
			cache[b.ProductID] = p
		}
		item := dto.BalanceDTO{
			WarehouseID:     b.WarehouseID,
			ProductID:       b.ProductID,
			LotID:           b.LotID,
			ProductName:     b.ProductName,
			SKU:             b.SKU,
			Unit:            b.Unit,
			Quantity:        b.Quantity,
			AverageCost:     b.AverageCost,
			TotalValue:      b.TotalValue,
			ExpiryDate:      b.ExpiryDate,
			FirstMovementAt: b.FirstMovementAt,
			LastMovementAt:  b.LastMovementAt,
		}
		if p != nil {
			item.ProductName = nonEmpty(item.ProductName, p.Name)
			item.SKU = nonEmpty(item.SKU, p.SKU)
			item.Unit = nonEmpty(item.Unit, p.BaseUnit)
		}
		items = append(items, item)
	}
	return items, nil
}

func (uc *BalanceUseCase) warehouseName(ctx context.Context, id string) string {
	wh, err := uc.warehouseRepo.GetByID(ctx, id)
	if err != nil || wh == nil {
		return id
	}
	return wh.Name
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
