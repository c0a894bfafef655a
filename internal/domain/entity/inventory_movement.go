package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// InventoryMovement registro persistido del libro de inventario (append-only).
// Quantity es siempre magnitud no negativa; la dirección la da Kind.
type InventoryMovement struct {
	ID            string
	CompanyID     string
	TransactionID string // agrupa los movimientos de una misma operación (traslado, consumo)
	WarehouseID   string
	ProductID     string
	LotID         string // vacío = sin lote
	Kind          inventory.MovementKind
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	TotalCost     *decimal.Decimal // nil = Quantity * UnitCost
	ExpiryDate    *time.Time
	Reference     string // documento externo: factura de compra, orden, remisión
	OccurredAt    time.Time
	CreatedAt     time.Time
	CreatedBy     string
}

// Record proyecta el movimiento al registro que consume el motor de inventario.
func (m *InventoryMovement) Record() inventory.MovementRecord {
	return inventory.MovementRecord{
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		LotID:       m.LotID,
		Kind:        m.Kind,
		Quantity:    m.Quantity,
		UnitCost:    m.UnitCost,
		TotalCost:   m.TotalCost,
		Timestamp:   m.OccurredAt,
		ExpiryDate:  m.ExpiryDate,
	}
}

// Records convierte una lista de movimientos conservando el orden.
func Records(list []*InventoryMovement) []inventory.MovementRecord {
	out := make([]inventory.MovementRecord, 0, len(list))
	for _, m := range list {
		out = append(out, m.Record())
	}
	return out
}

// Cost costo total del movimiento.
func (m *InventoryMovement) Cost() decimal.Decimal {
	if m.TotalCost != nil {
		return *m.TotalCost
	}
	return m.Quantity.Mul(m.UnitCost)
}
