package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// Errores del motor de kardex.
var (
	ErrInvalidPackSize     = errors.New("tamaño de empaque inválido (debe ser mayor que 0)")
	ErrInvalidQuantity     = errors.New("cantidad inválida")
	ErrUnknownMovementKind = errors.New("tipo de movimiento desconocido")
	ErrInvalidMovement     = errors.New("movimiento inválido")
)

// InsufficientStockError la suma de los lotes elegibles no cubre la cantidad pedida.
// Compara con errors.Is(err, domain.ErrInsufficientStock).
type InsufficientStockError struct {
	WarehouseID string
	ProductID   string
	Requested   decimal.Decimal
	Available   decimal.Decimal
	Shortfall   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: bodega %s producto %s solicitado %s disponible %s faltante %s",
		e.WarehouseID, e.ProductID, e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientStockError) Unwrap() error { return domain.ErrInsufficientStock }

// UnknownMovementKindError registro cuyo tipo no pertenece a la enumeración.
// Index = -1 cuando el valor no viene de una secuencia (ParseMovementKind).
type UnknownMovementKindError struct {
	Index int
	Kind  string
}

func (e *UnknownMovementKindError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("tipo de movimiento desconocido %q", e.Kind)
	}
	return fmt.Sprintf("movimiento #%d: tipo de movimiento desconocido %q", e.Index, e.Kind)
}

func (e *UnknownMovementKindError) Unwrap() error { return ErrUnknownMovementKind }

// InvalidMovementError registro que viola una invariante (cantidad o costo negativos).
type InvalidMovementError struct {
	Index  int
	Reason string
}

func (e *InvalidMovementError) Error() string {
	return fmt.Sprintf("movimiento #%d inválido: %s", e.Index, e.Reason)
}

func (e *InvalidMovementError) Unwrap() error { return ErrInvalidMovement }
