package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// RegisterMovementUseCase registra movimientos en el libro de inventario.
// Entradas se anexan directo; salidas y ajustes se validan dentro de RunLocked contra la
// línea de tiempo del lote, así ni una salida concurrente ni una con fecha retroactiva
// dejan el lote en negativo en ningún punto.
type RegisterMovementUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	cfg           EngineConfig
	log           *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	cfg EngineConfig,
	log *logger.Logger,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		cfg:           cfg,
		log:           log,
	}
}

// MovementInputDTO entrada para registrar un movimiento.
// UnitCost o TotalCost obligatorio en entradas; en salidas y ajustes, si faltan,
// se toma el costo promedio vigente del lote.
type MovementInputDTO struct {
	CompanyID     string
	UserID        string
	TransactionID string
	ProductID     string
	WarehouseID   string
	LotID         string
	Kind          string
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	TotalCost     *decimal.Decimal
	ExpiryDate    *time.Time
	OccurredAt    *time.Time
	Reference     string
}

// RegisterMovement valida la entrada y anexa el movimiento al libro.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*entity.InventoryMovement, error) {
	kind, err := validateMovementInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := checkProduct(ctx, uc.productRepo, input.CompanyID, input.ProductID); err != nil {
		return nil, err
	}
	if _, err := checkWarehouse(ctx, uc.warehouseRepo, input.CompanyID, input.WarehouseID); err != nil {
		return nil, err
	}

	mov := newMovement(input, kind, time.Now())

	if kind.IsInbound() {
		err = uc.txRunner.Run(ctx, func(movRepo repository.InventoryMovementRepository, _ repository.ProductRepository) error {
			return movRepo.Create(ctx, mov)
		})
	} else {
		err = uc.txRunner.RunLocked(ctx, input.WarehouseID, input.ProductID, func(movRepo repository.InventoryMovementRepository, _ repository.ProductRepository) error {
			return uc.doLocked(ctx, movRepo, mov)
		})
	}
	if err != nil {
		return nil, err
	}
	uc.log.Debug().
		Str("movement_id", mov.ID).
		Str("kind", mov.Kind.String()).
		Str("warehouse_id", mov.WarehouseID).
		Str("product_id", mov.ProductID).
		Str("quantity", mov.Quantity.String()).
		Msg("movimiento registrado")
	return mov, nil
}

// doLocked salida o ajuste: valida el lote a la fecha del movimiento y en toda la historia
// posterior, y si no vino costo toma el promedio vigente a esa fecha.
func (uc *RegisterMovementUseCase) doLocked(ctx context.Context, movRepo repository.InventoryMovementRepository, mov *entity.InventoryMovement) error {
	records, err := loadRecords(ctx, movRepo, mov.CompanyID, mov.WarehouseID, mov.ProductID)
	if err != nil {
		return err
	}
	atDate, err := bucketBalance(recordsUntil(records, mov.OccurredAt), mov.WarehouseID, mov.ProductID, mov.LotID, uc.cfg.options())
	if err != nil {
		return err
	}
	if mov.TotalCost == nil && mov.UnitCost.IsZero() {
		mov.UnitCost = atDate.AverageCost
	}
	if err := checkTimeline(records, []inventory.MovementRecord{mov.Record()}); err != nil {
		return err
	}
	if mov.ExpiryDate == nil {
		current, err := bucketBalance(records, mov.WarehouseID, mov.ProductID, mov.LotID, uc.cfg.options())
		if err != nil {
			return err
		}
		mov.ExpiryDate = current.ExpiryDate
	}
	return movRepo.Create(ctx, mov)
}

func validateMovementInput(input MovementInputDTO) (inventory.MovementKind, error) {
	if input.ProductID == "" || input.WarehouseID == "" {
		return "", domain.ErrInvalidInput
	}
	kind, err := inventory.ParseMovementKind(input.Kind)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if input.Quantity.IsNegative() {
		return "", fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	// Un conteo físico puede dejar el lote en cero; cualquier otro movimiento mueve algo.
	if input.Quantity.IsZero() && kind != inventory.KindAbsoluteAdjustment {
		return "", fmt.Errorf("%w: cantidad en cero", domain.ErrInvalidInput)
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return "", fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	if input.TotalCost != nil && input.TotalCost.IsNegative() {
		return "", fmt.Errorf("%w: costo total negativo", domain.ErrInvalidInput)
	}
	if kind.IsInbound() && input.UnitCost == nil && input.TotalCost == nil {
		return "", fmt.Errorf("%w: la entrada requiere unit_cost o total_cost", domain.ErrInvalidInput)
	}
	return kind, nil
}

func newMovement(input MovementInputDTO, kind inventory.MovementKind, now time.Time) *entity.InventoryMovement {
	occurred := now
	if input.OccurredAt != nil && !input.OccurredAt.IsZero() {
		occurred = *input.OccurredAt
	}
	txID := input.TransactionID
	if txID == "" {
		txID = uuid.New().String()
	}
	unitCost := decimal.Zero
	if input.UnitCost != nil {
		unitCost = *input.UnitCost
	} else if input.TotalCost != nil && input.Quantity.IsPositive() {
		unitCost = input.TotalCost.Div(input.Quantity)
	}
	return &entity.InventoryMovement{
		ID:            uuid.New().String(),
		CompanyID:     input.CompanyID,
		TransactionID: txID,
		WarehouseID:   input.WarehouseID,
		ProductID:     input.ProductID,
		LotID:         input.LotID,
		Kind:          kind,
		Quantity:      input.Quantity,
		UnitCost:      unitCost,
		TotalCost:     input.TotalCost,
		ExpiryDate:    input.ExpiryDate,
		Reference:     input.Reference,
		OccurredAt:    occurred,
		CreatedAt:     now,
		CreatedBy:     input.UserID,
	}
}
