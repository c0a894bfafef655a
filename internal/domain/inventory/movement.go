package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo cerrado de movimiento del kardex. La dirección la define el tipo, nunca el signo.
type MovementKind string

// Tipos de movimiento reconocidos por el motor.
const (
	KindReceipt               MovementKind = "inbound_receipt"
	KindTransferIn            MovementKind = "inbound_transfer"
	KindCustomerReturn        MovementKind = "inbound_return"
	KindProductionOutput      MovementKind = "inbound_production_output"
	KindSale                  MovementKind = "outbound_sale"
	KindTransferOut           MovementKind = "outbound_transfer"
	KindSupplierReturn        MovementKind = "outbound_return_to_supplier"
	KindProductionConsumption MovementKind = "outbound_production_consumption"
	KindAbsoluteAdjustment    MovementKind = "adjustment_absolute"
)

// AllMovementKinds devuelve todos los tipos válidos en orden estable.
func AllMovementKinds() []MovementKind {
	return []MovementKind{
		KindReceipt, KindTransferIn, KindCustomerReturn, KindProductionOutput,
		KindSale, KindTransferOut, KindSupplierReturn, KindProductionConsumption,
		KindAbsoluteAdjustment,
	}
}

// IsInbound indica si el movimiento suma cantidad y costo.
func (k MovementKind) IsInbound() bool {
	switch k {
	case KindReceipt, KindTransferIn, KindCustomerReturn, KindProductionOutput:
		return true
	}
	return false
}

// IsOutbound indica si el movimiento resta cantidad.
func (k MovementKind) IsOutbound() bool {
	switch k {
	case KindSale, KindTransferOut, KindSupplierReturn, KindProductionConsumption:
		return true
	}
	return false
}

// IsValid indica si k pertenece a la enumeración.
func (k MovementKind) IsValid() bool {
	return k.IsInbound() || k.IsOutbound() || k == KindAbsoluteAdjustment
}

// String devuelve el valor usado en JSON y en base de datos.
func (k MovementKind) String() string {
	return string(k)
}

// ParseMovementKind convierte un string externo (request, CSV, fila de BD) en MovementKind.
func ParseMovementKind(s string) (MovementKind, error) {
	k := MovementKind(s)
	if !k.IsValid() {
		return "", &UnknownMovementKindError{Index: -1, Kind: s}
	}
	return k, nil
}

// MovementRecord hecho inmutable del kardex: una entrada, salida o ajuste de un producto en una bodega.
// LotID vacío = sin lote. Quantity siempre es magnitud no negativa.
type MovementRecord struct {
	WarehouseID string
	ProductID   string
	LotID       string
	Kind        MovementKind
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	TotalCost   *decimal.Decimal // nil = Quantity * UnitCost
	Timestamp   time.Time
	ExpiryDate  *time.Time

	// Campos descriptivos, solo se trasladan al saldo.
	ProductName string
	SKU         string
	Unit        string
}

// Cost devuelve el costo total del movimiento: TotalCost explícito o Quantity * UnitCost.
func (m MovementRecord) Cost() decimal.Decimal {
	if m.TotalCost != nil {
		return *m.TotalCost
	}
	return m.Quantity.Mul(m.UnitCost)
}

// validate revisa las invariantes del registro. index es la posición en la secuencia de entrada.
func (m MovementRecord) validate(index int) error {
	if !m.Kind.IsValid() {
		return &UnknownMovementKindError{Index: index, Kind: string(m.Kind)}
	}
	if m.Quantity.IsNegative() {
		return &InvalidMovementError{Index: index, Reason: "cantidad negativa"}
	}
	if m.UnitCost.IsNegative() {
		return &InvalidMovementError{Index: index, Reason: "costo unitario negativo"}
	}
	if m.TotalCost != nil && m.TotalCost.IsNegative() {
		return &InvalidMovementError{Index: index, Reason: "costo total negativo"}
	}
	return nil
}
