package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// AllocationUseCase planifica y ejecuta consumos FEFO.
// Plan es de solo lectura; Consume lee, elige lotes y registra las salidas en una sola
// sección crítica por bodega/producto (RunLocked y, si está configurado, candado Redis).
type AllocationUseCase struct {
	txRunner      TxRunner
	movRepo       repository.InventoryMovementRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	locker        Locker
	cfg           EngineConfig
	log           *logger.Logger
}

// NewAllocationUseCase construye el caso de uso. locker puede ser nil.
func NewAllocationUseCase(
	txRunner TxRunner,
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	locker Locker,
	cfg EngineConfig,
	log *logger.Logger,
) *AllocationUseCase {
	return &AllocationUseCase{
		txRunner:      txRunner,
		movRepo:       movRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		locker:        locker,
		cfg:           cfg,
		log:           log,
	}
}

// Plan devuelve los lotes que se tomarían para cubrir la cantidad, sin registrar nada.
func (uc *AllocationUseCase) Plan(ctx context.Context, companyID string, in dto.AllocationRequest) (*dto.AllocationResponse, error) {
	if err := uc.validate(ctx, companyID, in); err != nil {
		return nil, err
	}
	records, err := loadRecords(ctx, uc.movRepo, companyID, in.WarehouseID, in.ProductID)
	if err != nil {
		return nil, err
	}
	lines, err := inventory.SelectLots(records, in.WarehouseID, in.ProductID, in.Quantity, uc.selectOptions(in)...)
	if err != nil {
		return nil, err
	}
	return allocationResponse("", lines, nil), nil
}

// Consume elige lotes FEFO y registra una salida por lote con el costo promedio del lote.
// Si otro proceso tiene el candado distribuido reintenta con espera creciente.
func (uc *AllocationUseCase) Consume(ctx context.Context, companyID, userID string, in dto.AllocationRequest) (*dto.AllocationResponse, error) {
	kind := inventory.KindSale
	if in.Kind != "" {
		k, err := inventory.ParseMovementKind(in.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		kind = k
	}
	if !kind.IsOutbound() {
		return nil, fmt.Errorf("%w: el consumo requiere un tipo de salida", domain.ErrInvalidInput)
	}
	if err := uc.validate(ctx, companyID, in); err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: cantidad debe ser mayor que 0", domain.ErrInvalidInput)
	}

	backoff := uc.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		out, err := uc.consumeOnce(ctx, companyID, userID, kind, in)
		if err == nil {
			uc.log.Info().
				Str("transaction_id", out.TransactionID).
				Str("warehouse_id", in.WarehouseID).
				Str("product_id", in.ProductID).
				Str("quantity", in.Quantity.String()).
				Int("lots", len(out.Lines)).
				Msg("consumo registrado")
			return out, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= uc.cfg.ConsumeRetries {
			return nil, err
		}
		uc.log.Warn().
			Int("attempt", attempt+1).
			Str("warehouse_id", in.WarehouseID).
			Str("product_id", in.ProductID).
			Msg("candado ocupado, reintentando consumo")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (uc *AllocationUseCase) consumeOnce(ctx context.Context, companyID, userID string, kind inventory.MovementKind, in dto.AllocationRequest) (*dto.AllocationResponse, error) {
	if uc.locker != nil {
		release, err := uc.locker.Acquire(ctx, lockKey(in.WarehouseID, in.ProductID), uc.cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				uc.log.Warn().Err(err).Msg("liberar candado de consumo")
			}
		}()
	}

	now := time.Now()
	txID := uuid.New().String()
	var lines []inventory.AllocationLine
	var created []*entity.InventoryMovement
	err := uc.txRunner.RunLocked(ctx, in.WarehouseID, in.ProductID, func(movRepo repository.InventoryMovementRepository, _ repository.ProductRepository) error {
		records, err := loadRecords(ctx, movRepo, companyID, in.WarehouseID, in.ProductID)
		if err != nil {
			return err
		}
		lines, err = inventory.SelectLots(records, in.WarehouseID, in.ProductID, in.Quantity, uc.selectOptions(in)...)
		if err != nil {
			return err
		}
		created = make([]*entity.InventoryMovement, 0, len(lines))
		for _, l := range lines {
			m := &entity.InventoryMovement{
				ID:            uuid.New().String(),
				CompanyID:     companyID,
				TransactionID: txID,
				WarehouseID:   in.WarehouseID,
				ProductID:     in.ProductID,
				LotID:         l.LotID,
				Kind:          kind,
				Quantity:      l.Quantity,
				UnitCost:      l.UnitCost,
				ExpiryDate:    l.ExpiryDate,
				Reference:     in.Reference,
				OccurredAt:    now,
				CreatedAt:     now,
				CreatedBy:     userID,
			}
			created = append(created, m)
		}
		// Una entrada con fecha futura ya cuenta en el saldo, pero no existe todavía a "now".
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
	return allocationResponse(txID, lines, created), nil
}

func (uc *AllocationUseCase) validate(ctx context.Context, companyID string, in dto.AllocationRequest) error {
	if in.WarehouseID == "" || in.ProductID == "" {
		return domain.ErrInvalidInput
	}
	if in.Quantity.IsNegative() {
		return inventory.ErrInvalidQuantity
	}
	if _, err := checkProduct(ctx, uc.productRepo, companyID, in.ProductID); err != nil {
		return err
	}
	_, err := checkWarehouse(ctx, uc.warehouseRepo, companyID, in.WarehouseID)
	return err
}

func (uc *AllocationUseCase) selectOptions(in dto.AllocationRequest) []inventory.Option {
	if in.ExcludeExpired {
		return uc.cfg.options(inventory.WithExpiredCutoff(time.Now()))
	}
	return uc.cfg.options()
}

func lockKey(warehouseID, productID string) string {
	return "inventory:consume:" + warehouseID + ":" + productID
}

func allocationResponse(txID string, lines []inventory.AllocationLine, created []*entity.InventoryMovement) *dto.AllocationResponse {
	totalQty := decimal.Zero
	totalCost := decimal.Zero
	for _, l := range lines {
		totalQty = totalQty.Add(l.Quantity)
		totalCost = totalCost.Add(l.Quantity.Mul(l.UnitCost))
	}
	out := &dto.AllocationResponse{
		TransactionID: txID,
		Lines:         toAllocationLines(lines),
		TotalQuantity: totalQty,
		TotalCost:     totalCost,
	}
	if len(created) > 0 {
		out.Movements = toMovementResponses(created)
	}
	return out
}
