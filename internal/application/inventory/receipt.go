package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// ReceivePurchase registra una compra recibida en empaques del proveedor.
// Convierte a unidades base con el UnitsPerPack del producto y anexa un inbound_receipt
// con el costo total de la factura (el costo unitario base es informativo).
func (uc *RegisterMovementUseCase) ReceivePurchase(ctx context.Context, companyID, userID string, in dto.ReceivePurchaseRequest) (*dto.ReceiptResponse, error) {
	if in.ProductID == "" || in.WarehouseID == "" || in.TotalCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	product, err := checkProduct(ctx, uc.productRepo, companyID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := checkWarehouse(ctx, uc.warehouseRepo, companyID, in.WarehouseID); err != nil {
		return nil, err
	}

	unitCost, err := inventory.CostPerBaseUnit(in.TotalCost, in.Packs, product.UnitsPerPack)
	if err != nil {
		return nil, err
	}
	baseQty := inventory.ToBaseUnits(in.Packs, product.UnitsPerPack)
	totalCost := in.TotalCost

	now := time.Now()
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		TransactionID: uuid.New().String(),
		WarehouseID:   in.WarehouseID,
		ProductID:     in.ProductID,
		LotID:         in.LotID,
		Kind:          inventory.KindReceipt,
		Quantity:      baseQty,
		UnitCost:      unitCost,
		TotalCost:     &totalCost,
		ExpiryDate:    in.ExpiryDate,
		Reference:     in.Reference,
		OccurredAt:    now,
		CreatedAt:     now,
		CreatedBy:     userID,
	}

	out := &dto.ReceiptResponse{BaseQuantity: baseQty, UnitCost: unitCost}
	err = uc.txRunner.RunLocked(ctx, in.WarehouseID, in.ProductID, func(movRepo repository.InventoryMovementRepository, _ repository.ProductRepository) error {
		records, err := loadRecords(ctx, movRepo, companyID, in.WarehouseID, in.ProductID)
		if err != nil {
			return err
		}
		before, err := bucketBalance(records, in.WarehouseID, in.ProductID, in.LotID, uc.cfg.options())
		if err != nil {
			return err
		}
		out.StockBefore = before.Quantity
		out.AverageCostBefore = before.AverageCost
		out.AverageCostAfter = inventory.CostCalculator(before.Quantity, before.AverageCost, baseQty, unitCost)
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	out.Movement = toMovementResponse(mov)

	uc.log.Info().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("packs", in.Packs.String()).
		Str("base_quantity", baseQty.String()).
		Str("average_cost", out.AverageCostAfter.StringFixed(4)).
		Msg("compra recibida")
	return out, nil
}
