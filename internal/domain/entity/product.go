package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del inventario.
// El stock y el costo promedio no se guardan aquí: se derivan del libro de movimientos.
type Product struct {
	ID           string
	CompanyID    string
	SKU          string // código único por empresa
	Name         string
	Description  string
	BaseUnit     string          // unidad de inventario (ej. "unidad", "kg")
	PurchaseUnit string          // unidad de compra (ej. "caja")
	UnitsPerPack decimal.Decimal // unidades base por empaque de compra (> 0)
	ReorderPoint decimal.Decimal // en unidades base; 0 = sin reposición automática
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
