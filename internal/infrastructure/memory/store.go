package memory

import (
	"sync"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Store estado compartido del driver en memoria (desarrollo y tests).
// Los movimientos se guardan en orden de inserción, igual que seq en PostgreSQL.
type Store struct {
	mu         sync.RWMutex
	movements  []entity.InventoryMovement
	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse

	keyMu sync.Mutex
	keys  map[string]*sync.Mutex
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:   map[string]entity.Product{},
		warehouses: map[string]entity.Warehouse{},
		keys:       map[string]*sync.Mutex{},
	}
}

// keyLock mutex dedicado a una llave (bodega|producto); se crea al primer uso.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	m, ok := s.keys[key]
	if !ok {
		m = &sync.Mutex{}
		s.keys[key] = m
	}
	return m
}

func (s *Store) appendMovements(list []entity.InventoryMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, list...)
}
