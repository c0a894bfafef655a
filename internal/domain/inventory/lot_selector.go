package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationLine cantidad tomada de un lote para cubrir un consumo.
type AllocationLine struct {
	LotID      string // vacío = sin lote
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	ExpiryDate *time.Time
}

// SelectLots planifica qué lotes consumir para cubrir required en la bodega/producto indicados.
// Orden FEFO: lotes con vencimiento primero (más próximo antes); lotes sin vencimiento al final
// en orden FIFO por primer movimiento. Todo o nada: si no alcanza devuelve *InsufficientStockError
// con el faltante exacto. No escribe nada; el llamador registra las salidas resultantes.
func SelectLots(
	movements []MovementRecord,
	warehouseID, productID string,
	required decimal.Decimal,
	opts ...Option,
) ([]AllocationLine, error) {
	if required.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	cfg := newSettings(opts)

	balances, err := ComputeBalances(movements, BalanceFilter{WarehouseID: warehouseID, ProductID: productID}, opts...)
	if err != nil {
		return nil, err
	}
	if !cfg.expiredCutoff.IsZero() {
		balances = filterNonExpired(balances, cfg.expiredCutoff)
	}
	SortFEFO(balances)

	remaining := required
	available := decimal.Zero
	lines := make([]AllocationLine, 0)
	for _, b := range balances {
		available = available.Add(b.Quantity)
		if !remaining.IsPositive() {
			continue
		}
		take := decimal.Min(b.Quantity, remaining)
		lines = append(lines, AllocationLine{
			LotID:      b.LotID,
			Quantity:   take,
			UnitCost:   b.AverageCost,
			ExpiryDate: b.ExpiryDate,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return nil, &InsufficientStockError{
			WarehouseID: warehouseID,
			ProductID:   productID,
			Requested:   required,
			Available:   available,
			Shortfall:   remaining,
		}
	}
	return lines, nil
}

// SortFEFO ordena saldos en orden de consumo: vencimiento ascendente, sin vencimiento al final,
// desempate por primer movimiento (FIFO) y luego por lote.
func SortFEFO(balances []StockBalance) {
	sort.SliceStable(balances, func(i, j int) bool {
		a, b := balances[i], balances[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if !a.FirstMovementAt.Equal(b.FirstMovementAt) {
			return a.FirstMovementAt.Before(b.FirstMovementAt)
		}
		return a.LotID < b.LotID
	})
}

// filterNonExpired descarta lotes cuyo vencimiento no es posterior a cutoff.
func filterNonExpired(balances []StockBalance, cutoff time.Time) []StockBalance {
	filtered := make([]StockBalance, 0, len(balances))
	for _, b := range balances {
		if b.ExpiryDate == nil || b.ExpiryDate.After(cutoff) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
