package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance saldo derivado de un bucket (bodega, producto, lote). Nunca se persiste por el motor.
type StockBalance struct {
	WarehouseID     string
	ProductID       string
	LotID           string // vacío = sin lote
	Quantity        decimal.Decimal
	AverageCost     decimal.Decimal
	TotalValue      decimal.Decimal // Quantity * AverageCost
	FirstMovementAt time.Time
	LastMovementAt  time.Time
	ExpiryDate      *time.Time // vencimiento más próximo visto en los movimientos del lote

	ProductName string
	SKU         string
	Unit        string
}

type lotFilterMode uint8

const (
	lotAny lotFilterMode = iota
	lotUnlotted
	lotExact
)

// LotFilter distingue "sin filtro de lote" (valor cero), "solo sin lote" y "lote exacto".
type LotFilter struct {
	mode lotFilterMode
	id   string
}

// AnyLot no filtra por lote.
func AnyLot() LotFilter { return LotFilter{} }

// Unlotted limita a los movimientos sin lote (lote nulo explícito).
func Unlotted() LotFilter { return LotFilter{mode: lotUnlotted} }

// Lot limita a un lote exacto. Lot("") equivale a Unlotted().
func Lot(id string) LotFilter {
	if id == "" {
		return Unlotted()
	}
	return LotFilter{mode: lotExact, id: id}
}

// IsAny indica si el filtro acepta cualquier lote.
func (f LotFilter) IsAny() bool { return f.mode == lotAny }

// ID devuelve el lote filtrado y si el filtro fija un lote (vacío + true = solo sin lote).
func (f LotFilter) ID() (string, bool) {
	return f.id, f.mode != lotAny
}

func (f LotFilter) matches(lotID string) bool {
	switch f.mode {
	case lotUnlotted:
		return lotID == ""
	case lotExact:
		return lotID == f.id
	}
	return true
}

// BalanceFilter restringe los movimientos antes de agrupar. Campos vacíos = sin filtro.
type BalanceFilter struct {
	WarehouseID string
	ProductID   string
	Lot         LotFilter
}

func (f BalanceFilter) matches(m MovementRecord) bool {
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	return f.Lot.matches(m.LotID)
}

type bucketKey struct {
	warehouseID string
	productID   string
	lotID       string
}

type indexedMovement struct {
	index int
	rec   MovementRecord
}

// ComputeBalances reconstruye los saldos actuales desde el historial de movimientos.
// Agrupa por (bodega, producto, lote), ordena cada grupo por Timestamp (estable) y aplica
// costo promedio ponderado. Solo devuelve grupos con cantidad final > 0, ordenados por clave.
func ComputeBalances(movements []MovementRecord, filter BalanceFilter, opts ...Option) ([]StockBalance, error) {
	cfg := newSettings(opts)

	buckets := make(map[bucketKey][]indexedMovement)
	var order []bucketKey
	for i, m := range movements {
		if !filter.matches(m) {
			continue
		}
		if err := m.validate(i); err != nil {
			return nil, err
		}
		key := bucketKey{warehouseID: m.WarehouseID, productID: m.ProductID, lotID: m.LotID}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], indexedMovement{index: i, rec: m})
	}

	balances := make([]StockBalance, 0, len(order))
	for _, key := range order {
		b, ok := foldBucket(key, buckets[key], cfg.costing)
		if ok {
			balances = append(balances, b)
		}
	}

	sort.Slice(balances, func(i, j int) bool {
		a, b := balances[i], balances[j]
		if a.WarehouseID != b.WarehouseID {
			return a.WarehouseID < b.WarehouseID
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.LotID < b.LotID
	})
	return balances, nil
}

// foldBucket aplica las reglas de pliegue en orden cronológico. ok=false si la cantidad final <= 0.
func foldBucket(key bucketKey, items []indexedMovement, mode CostingMode) (StockBalance, bool) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].rec.Timestamp.Before(items[j].rec.Timestamp)
	})

	acc := costAccumulator{mode: mode}
	b := StockBalance{WarehouseID: key.warehouseID, ProductID: key.productID, LotID: key.lotID}

	for n, it := range items {
		m := it.rec
		switch {
		case m.Kind.IsInbound():
			acc.inbound(m.Quantity, m.Cost())
		case m.Kind.IsOutbound():
			acc.outbound(m.Quantity)
		case m.Kind == KindAbsoluteAdjustment:
			acc.adjustTo(m.Quantity, m.UnitCost)
		}

		if n == 0 {
			b.FirstMovementAt = m.Timestamp
		}
		b.LastMovementAt = m.Timestamp
		if m.ExpiryDate != nil && (b.ExpiryDate == nil || m.ExpiryDate.Before(*b.ExpiryDate)) {
			exp := *m.ExpiryDate
			b.ExpiryDate = &exp
		}
		if m.ProductName != "" {
			b.ProductName = m.ProductName
		}
		if m.SKU != "" {
			b.SKU = m.SKU
		}
		if m.Unit != "" {
			b.Unit = m.Unit
		}
	}

	if !acc.quantity.IsPositive() {
		return StockBalance{}, false
	}
	b.Quantity = acc.quantity
	b.AverageCost = acc.average()
	// El valor es el costo acumulado, no Quantity × AverageCost: el promedio ya viene redondeado.
	b.TotalValue = acc.cost
	return b, true
}
