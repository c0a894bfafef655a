package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Kind es uno de los tipos del libro (inbound_receipt, outbound_sale, adjustment_absolute, ...).
// Para adjustment_absolute Quantity es la cantidad final contada, no una diferencia.
type RegisterMovementRequest struct {
	ProductID   string           `json:"product_id" validate:"required"`
	WarehouseID string           `json:"warehouse_id" validate:"required"`
	LotID       string           `json:"lot_id,omitempty" validate:"max=100"`
	Kind        string           `json:"kind" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost   *decimal.Decimal `json:"total_cost,omitempty"`
	ExpiryDate  *time.Time       `json:"expiry_date,omitempty"`
	OccurredAt  *time.Time       `json:"occurred_at,omitempty"`
	Reference   string           `json:"reference,omitempty" validate:"max=200"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	WarehouseID   string          `json:"warehouse_id"`
	ProductID     string          `json:"product_id"`
	LotID         string          `json:"lot_id,omitempty"`
	Kind          string          `json:"kind"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// MovementListResponse historial paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MovementQuery filtros de GET /api/inventory/movements.
type MovementQuery struct {
	WarehouseID string
	ProductID   string
	From, To    *time.Time
	PageRequest
}

// ReceivePurchaseRequest recepción de compra expresada en empaques del proveedor.
type ReceivePurchaseRequest struct {
	ProductID   string          `json:"product_id" validate:"required"`
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	LotID       string          `json:"lot_id,omitempty" validate:"max=100"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	Packs       decimal.Decimal `json:"packs"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Reference   string          `json:"reference,omitempty" validate:"max=200"`
}

// ReceiptResponse resultado de la recepción: unidades base, costo unitario y promedio proyectado.
type ReceiptResponse struct {
	Movement          MovementResponse `json:"movement"`
	BaseQuantity      decimal.Decimal  `json:"base_quantity"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
	StockBefore       decimal.Decimal  `json:"stock_before"`
	AverageCostBefore decimal.Decimal  `json:"average_cost_before"`
	AverageCostAfter  decimal.Decimal  `json:"average_cost_after"`
}

// TransferRequest traslado entre bodegas. LotID vacío = el sistema elige lotes (FEFO).
type TransferRequest struct {
	ProductID       string          `json:"product_id" validate:"required"`
	FromWarehouseID string          `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string          `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	LotID           string          `json:"lot_id,omitempty" validate:"max=100"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reference       string          `json:"reference,omitempty" validate:"max=200"`
}

// TransferResponse par de movimientos (salida/entrada) por cada lote trasladado.
type TransferResponse struct {
	TransactionID string              `json:"transaction_id"`
	Lines         []AllocationLineDTO `json:"lines"`
	Movements     []MovementResponse  `json:"movements"`
}

// AllocationRequest planificación o consumo FEFO de una cantidad.
// Kind aplica solo al consumo (por defecto outbound_sale).
type AllocationRequest struct {
	WarehouseID    string          `json:"warehouse_id" validate:"required"`
	ProductID      string          `json:"product_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	Kind           string          `json:"kind,omitempty"`
	Reference      string          `json:"reference,omitempty" validate:"max=200"`
	ExcludeExpired bool            `json:"exclude_expired,omitempty"`
}

// AllocationLineDTO cantidad tomada de un lote.
type AllocationLineDTO struct {
	LotID      string          `json:"lot_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
}

// AllocationResponse resultado de plan o consumo. TransactionID y Movements solo en consumo.
type AllocationResponse struct {
	TransactionID string              `json:"transaction_id,omitempty"`
	Lines         []AllocationLineDTO `json:"lines"`
	TotalQuantity decimal.Decimal     `json:"total_quantity"`
	TotalCost     decimal.Decimal     `json:"total_cost"`
	Movements     []MovementResponse  `json:"movements,omitempty"`
}

// BalanceQuery filtros de GET /api/inventory/balances.
// LotID y Unlotted son excluyentes; ninguno = todos los lotes.
type BalanceQuery struct {
	WarehouseID string
	ProductID   string
	LotID       string
	Unlotted    bool
}

// BalanceDTO saldo por bodega, producto y lote.
type BalanceDTO struct {
	WarehouseID     string          `json:"warehouse_id"`
	ProductID       string          `json:"product_id"`
	LotID           string          `json:"lot_id"`
	ProductName     string          `json:"product_name,omitempty"`
	SKU             string          `json:"sku,omitempty"`
	Unit            string          `json:"unit,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	TotalValue      decimal.Decimal `json:"total_value"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	FirstMovementAt time.Time       `json:"first_movement_at"`
	LastMovementAt  time.Time       `json:"last_movement_at"`
}

// BalanceListResponse saldos con totales.
type BalanceListResponse struct {
	Items         []BalanceDTO    `json:"items"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// WarehouseValuationDTO valorización de una bodega.
type WarehouseValuationDTO struct {
	WarehouseID   string          `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	Products      int             `json:"products"`
	Lots          int             `json:"lots"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// ValuationResponse valorización del inventario de la empresa.
type ValuationResponse struct {
	GeneratedAt time.Time               `json:"generated_at"`
	CostingMode string                  `json:"costing_mode"`
	Warehouses  []WarehouseValuationDTO `json:"warehouses"`
	TotalValue  decimal.Decimal         `json:"total_value"`
}

// ValuationReport datos completos para los exportadores (XLSX y PDF).
type ValuationReport struct {
	Title     string
	Valuation ValuationResponse
	Balances  []BalanceDTO
}

// ReplenishmentSuggestionDTO representa una sugerencia de reposición para un SKU
// que se encuentra en o por debajo de su punto de reorden.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // ReorderPoint * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // unidades base, múltiplo del empaque
	SuggestedPacks     decimal.Decimal `json:"suggested_packs"`      // empaques de compra
	PurchaseUnit       string          `json:"purchase_unit"`
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}
