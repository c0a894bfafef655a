package inventory

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement(ctx, MovementInputDTO).
// Usar desde handlers HTTP o desde el importador, que ya tienen companyID y userID.
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, companyID, userID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	input := MovementInputDTO{
		CompanyID:   companyID,
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		LotID:       in.LotID,
		Kind:        in.Kind,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		TotalCost:   in.TotalCost,
		ExpiryDate:  in.ExpiryDate,
		OccurredAt:  in.OccurredAt,
		Reference:   in.Reference,
	}
	mov, err := uc.RegisterMovement(ctx, input)
	if err != nil {
		return nil, err
	}
	out := toMovementResponse(mov)
	return &out, nil
}
