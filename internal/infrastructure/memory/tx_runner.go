package memory

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner transacciones en memoria: los movimientos creados en fn se publican solo si fn no falla.
// RunLocked serializa por (bodega, producto) con un mutex por llave.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn y confirma los movimientos pendientes si no hubo error.
func (r *TxRunner) Run(ctx context.Context, fn inventory.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var pending []entity.InventoryMovement
	movRepo := &InventoryMovementRepo{store: r.store, pending: &pending}
	if err := fn(movRepo, NewProductRepository(r.store)); err != nil {
		return err
	}
	r.store.appendMovements(pending)
	return nil
}

// RunLocked Run bajo el mutex de la llave bodega|producto.
func (r *TxRunner) RunLocked(ctx context.Context, warehouseID, productID string, fn inventory.TxFunc) error {
	mu := r.store.keyLock(warehouseID + "|" + productID)
	mu.Lock()
	defer mu.Unlock()
	return r.Run(ctx, fn)
}
