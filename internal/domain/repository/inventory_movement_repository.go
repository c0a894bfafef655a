package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// MovementFilter criterios de consulta del libro. Campos vacíos no filtran.
// Limit 0 devuelve todo (lo usa el motor para reconstruir saldos).
type MovementFilter struct {
	CompanyID   string
	WarehouseID string
	ProductID   string
	From, To    *time.Time
	Limit       int
	Offset      int
}

// InventoryMovementRepository define el puerto de persistencia del libro de movimientos.
// Solo inserción y lectura: los movimientos no se modifican ni se borran.
// List devuelve en orden de ocurrencia ascendente y, a igual fecha, de inserción.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, error)
}
