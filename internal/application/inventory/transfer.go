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

// Transfer traslada stock entre bodegas en una sola transacción.
// Por cada lote tomado en origen se anexa un outbound_transfer y el inbound_transfer espejo
// en destino, con el mismo lote, vencimiento y costo promedio de origen.
// Sin LotID los lotes se eligen en orden FEFO.
func (uc *RegisterMovementUseCase) Transfer(ctx context.Context, companyID, userID string, in dto.TransferRequest) (*dto.TransferResponse, error) {
	if in.ProductID == "" || in.FromWarehouseID == "" || in.ToWarehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.FromWarehouseID == in.ToWarehouseID || !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if _, err := checkProduct(ctx, uc.productRepo, companyID, in.ProductID); err != nil {
		return nil, err
	}
	if _, err := checkWarehouse(ctx, uc.warehouseRepo, companyID, in.FromWarehouseID); err != nil {
		return nil, err
	}
	if _, err := checkWarehouse(ctx, uc.warehouseRepo, companyID, in.ToWarehouseID); err != nil {
		return nil, err
	}

	now := time.Now()
	txID := uuid.New().String()
	var lines []inventory.AllocationLine
	var created []*entity.InventoryMovement

	// Solo el origen se bloquea: el destino únicamente recibe.
	err := uc.txRunner.RunLocked(ctx, in.FromWarehouseID, in.ProductID, func(movRepo repository.InventoryMovementRepository, _ repository.ProductRepository) error {
		records, err := loadRecords(ctx, movRepo, companyID, in.FromWarehouseID, in.ProductID)
		if err != nil {
			return err
		}
		lines, err = transferLines(records, in, uc.cfg.options())
		if err != nil {
			return err
		}
		created = created[:0]
		for _, l := range lines {
			created = append(created, transferPair(companyID, userID, txID, in, l, now)...)
		}
		if err := checkTimeline(records, entity.Records(created)); err != nil {
			return err
		}
		for _, m := range created {
			if err := movRepo.Create(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("transaction_id", txID).
		Str("product_id", in.ProductID).
		Str("from", in.FromWarehouseID).
		Str("to", in.ToWarehouseID).
		Str("quantity", in.Quantity.String()).
		Int("lots", len(lines)).
		Msg("traslado registrado")

	return &dto.TransferResponse{
		TransactionID: txID,
		Lines:         toAllocationLines(lines),
		Movements:     toMovementResponses(created),
	}, nil
}

// transferLines con LotID toma ese lote; sin LotID elige en orden FEFO, incluido el stock sin lote.
func transferLines(records []inventory.MovementRecord, in dto.TransferRequest, opts []inventory.Option) ([]inventory.AllocationLine, error) {
	if in.LotID == "" {
		return inventory.SelectLots(records, in.FromWarehouseID, in.ProductID, in.Quantity, opts...)
	}
	bal, err := bucketBalance(records, in.FromWarehouseID, in.ProductID, in.LotID, opts)
	if err != nil {
		return nil, err
	}
	if bal.Quantity.LessThan(in.Quantity) {
		return nil, &inventory.InsufficientStockError{
			WarehouseID: in.FromWarehouseID,
			ProductID:   in.ProductID,
			Requested:   in.Quantity,
			Available:   bal.Quantity,
			Shortfall:   in.Quantity.Sub(bal.Quantity),
		}
	}
	return []inventory.AllocationLine{{
		LotID:      in.LotID,
		Quantity:   in.Quantity,
		UnitCost:   bal.AverageCost,
		ExpiryDate: bal.ExpiryDate,
	}}, nil
}

func transferPair(companyID, userID, txID string, in dto.TransferRequest, l inventory.AllocationLine, now time.Time) []*entity.InventoryMovement {
	base := entity.InventoryMovement{
		CompanyID:     companyID,
		TransactionID: txID,
		ProductID:     in.ProductID,
		LotID:         l.LotID,
		Quantity:      l.Quantity,
		UnitCost:      l.UnitCost,
		ExpiryDate:    l.ExpiryDate,
		Reference:     in.Reference,
		OccurredAt:    now,
		CreatedAt:     now,
		CreatedBy:     userID,
	}
	out := base
	out.ID = uuid.New().String()
	out.WarehouseID = in.FromWarehouseID
	out.Kind = inventory.KindTransferOut

	inb := base
	inb.ID = uuid.New().String()
	inb.WarehouseID = in.ToWarehouseID
	inb.Kind = inventory.KindTransferIn
	return []*entity.InventoryMovement{&out, &inb}
}
