package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// TxFunc trabajo que se ejecuta con repositorios atados a una misma transacción.
type TxFunc func(movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository) error

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// RunLocked además serializa a todos los que operan sobre la misma bodega y producto,
// de modo que leer el historial, elegir lotes y registrar la salida sea atómico.
type TxRunner interface {
	Run(ctx context.Context, fn TxFunc) error
	RunLocked(ctx context.Context, warehouseID, productID string, fn TxFunc) error
}

// Locker candado distribuido opcional (varias instancias de la API).
// Acquire devuelve domain.ErrConflict cuando otro proceso tiene la llave.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// ValuationExporter genera los archivos de la valorización.
type ValuationExporter interface {
	BalancesXLSX(report dto.ValuationReport) ([]byte, error)
}

// ValuationPDFGenerator genera el informe PDF de valorización.
type ValuationPDFGenerator interface {
	ValuationPDF(report dto.ValuationReport) ([]byte, error)
}
