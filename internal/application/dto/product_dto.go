package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU          string           `json:"sku" validate:"required,min=1,max=100"`
	Name         string           `json:"name" validate:"required,min=1,max=200"`
	Description  string           `json:"description"`
	BaseUnit     string           `json:"base_unit" validate:"required,max=30"`
	PurchaseUnit string           `json:"purchase_unit" validate:"max=30"`
	UnitsPerPack *decimal.Decimal `json:"units_per_pack"`
	ReorderPoint decimal.Decimal  `json:"reorder_point"`
}

// UpdateProductRequest entrada para actualizar un producto (stock y costo salen del libro).
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description"`
	BaseUnit     *string          `json:"base_unit" validate:"omitempty,max=30"`
	PurchaseUnit *string          `json:"purchase_unit" validate:"omitempty,max=30"`
	UnitsPerPack *decimal.Decimal `json:"units_per_pack"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	BaseUnit     string          `json:"base_unit"`
	PurchaseUnit string          `json:"purchase_unit"`
	UnitsPerPack decimal.Decimal `json:"units_per_pack"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
