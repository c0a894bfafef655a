package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo libro de movimientos en memoria.
// Dentro de una transacción los Create quedan en pending hasta el commit del TxRunner.
type InventoryMovementRepo struct {
	store   *Store
	pending *[]entity.InventoryMovement
}

// NewInventoryMovementRepository repositorio fuera de transacción (escribe directo).
func NewInventoryMovementRepository(store *Store) *InventoryMovementRepo {
	return &InventoryMovementRepo{store: store}
}

// Create anexa un movimiento. Se guarda una copia: el llamador puede reutilizar el puntero.
func (r *InventoryMovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if r.pending != nil {
		*r.pending = append(*r.pending, *m)
		return nil
	}
	r.store.appendMovements([]entity.InventoryMovement{*m})
	return nil
}

// GetByID busca un movimiento confirmado o pendiente de esta transacción.
func (r *InventoryMovementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	for _, m := range r.snapshot() {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

// List filtra y ordena por ocurrencia; a igual fecha conserva el orden de inserción.
func (r *InventoryMovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	var list []*entity.InventoryMovement
	for _, m := range r.snapshot() {
		if !matches(m, f) {
			continue
		}
		m := m
		list = append(list, &m)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].OccurredAt.Before(list[j].OccurredAt)
	})
	if f.Offset > 0 {
		if f.Offset >= len(list) {
			return nil, nil
		}
		list = list[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(list) {
		list = list[:f.Limit]
	}
	return list, nil
}

func (r *InventoryMovementRepo) snapshot() []entity.InventoryMovement {
	r.store.mu.RLock()
	out := make([]entity.InventoryMovement, len(r.store.movements))
	copy(out, r.store.movements)
	r.store.mu.RUnlock()
	if r.pending != nil {
		out = append(out, *r.pending...)
	}
	return out
}

func matches(m entity.InventoryMovement, f repository.MovementFilter) bool {
	if f.CompanyID != "" && m.CompanyID != f.CompanyID {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.From != nil && m.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.OccurredAt.After(*f.To) {
		return false
	}
	return true
}
