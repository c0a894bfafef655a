package entity

import "time"

// Warehouse bodega donde se almacena inventario. Los saldos se calculan por bodega.
type Warehouse struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
