package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// EngineConfig parámetros del motor compartidos por los casos de uso.
type EngineConfig struct {
	CostingMode    inventory.CostingMode
	ConsumeRetries int           // reintentos cuando el candado distribuido está tomado
	LockTTL        time.Duration // vida del candado distribuido
	RetryBackoff   time.Duration // espera base entre reintentos (se duplica)
}

// DefaultEngineConfig valores por defecto cuando la configuración no define nada.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CostingMode:    inventory.CostingMovingAverage,
		ConsumeRetries: 3,
		LockTTL:        10 * time.Second,
		RetryBackoff:   50 * time.Millisecond,
	}
}

func (c EngineConfig) options(extra ...inventory.Option) []inventory.Option {
	return append([]inventory.Option{inventory.WithCostingMode(c.CostingMode)}, extra...)
}

// loadRecords lee el historial completo de una bodega/producto (vacíos = todos) para el motor.
func loadRecords(ctx context.Context, movRepo repository.InventoryMovementRepository, companyID, warehouseID, productID string) ([]inventory.MovementRecord, error) {
	list, err := movRepo.List(ctx, repository.MovementFilter{
		CompanyID:   companyID,
		WarehouseID: warehouseID,
		ProductID:   productID,
	})
	if err != nil {
		return nil, fmt.Errorf("leer movimientos: %w", err)
	}
	return entity.Records(list), nil
}

// bucketBalance saldo de un único lote (o del stock sin lote cuando lotID es vacío).
// Devuelve saldo en cero si el lote no tiene existencias.
func bucketBalance(records []inventory.MovementRecord, warehouseID, productID, lotID string, opts []inventory.Option) (inventory.StockBalance, error) {
	balances, err := inventory.ComputeBalances(records, inventory.BalanceFilter{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Lot:         inventory.Lot(lotID),
	}, opts...)
	if err != nil {
		return inventory.StockBalance{}, err
	}
	if len(balances) == 0 {
		return inventory.StockBalance{WarehouseID: warehouseID, ProductID: productID, LotID: lotID}, nil
	}
	return balances[0], nil
}

type lotKey struct{ warehouseID, productID, lotID string }

// checkTimeline reconstruye cada lote tocado por added en orden de fecha, con added incluidos,
// y rechaza si el saldo mínimo del lote baja respecto de la historia sin ellos.
// Cubre salidas con fecha anterior a entradas ya registradas y entradas con fecha futura.
// Un déficit que la historia ya traía (por ejemplo, de una importación) no se vuelve a reportar.
func checkTimeline(history, added []inventory.MovementRecord) error {
	keys := make([]lotKey, 0, len(added))
	seen := make(map[lotKey]bool, len(added))
	for _, r := range added {
		k := lotKey{r.WarehouseID, r.ProductID, r.LotID}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		before := lowWater(history, nil, k)
		after := lowWater(history, added, k)
		if !after.LessThan(before) || !after.IsNegative() {
			continue
		}
		requested := decimal.Zero
		for _, r := range added {
			if (lotKey{r.WarehouseID, r.ProductID, r.LotID}) == k && !r.Kind.IsInbound() {
				requested = requested.Add(r.Quantity)
			}
		}
		shortfall := decimal.Min(before, decimal.Zero).Sub(after)
		available := requested.Sub(shortfall)
		if available.IsNegative() {
			available = decimal.Zero
		}
		return &inventory.InsufficientStockError{
			WarehouseID: k.warehouseID,
			ProductID:   k.productID,
			Requested:   requested,
			Available:   available,
			Shortfall:   shortfall,
		}
	}
	return nil
}

// lowWater saldo mínimo que alcanza el lote k recorriendo history y added por fecha.
// Los empates conservan el orden de llegada; added va después de history.
func lowWater(history, added []inventory.MovementRecord, k lotKey) decimal.Decimal {
	seq := make([]inventory.MovementRecord, 0, len(history)+len(added))
	for _, src := range [][]inventory.MovementRecord{history, added} {
		for _, r := range src {
			if r.WarehouseID == k.warehouseID && r.ProductID == k.productID && r.LotID == k.lotID {
				seq = append(seq, r)
			}
		}
	}
	sort.SliceStable(seq, func(i, j int) bool { return seq[i].Timestamp.Before(seq[j].Timestamp) })

	running, low := decimal.Zero, decimal.Zero
	for _, r := range seq {
		switch {
		case r.Kind.IsInbound():
			running = running.Add(r.Quantity)
		case r.Kind.IsOutbound():
			running = running.Sub(r.Quantity)
		case r.Kind == inventory.KindAbsoluteAdjustment:
			running = r.Quantity
		}
		if running.LessThan(low) {
			low = running
		}
	}
	return low
}

// recordsUntil registros con fecha menor o igual a t (saldo vigente a esa fecha).
func recordsUntil(records []inventory.MovementRecord, t time.Time) []inventory.MovementRecord {
	out := make([]inventory.MovementRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.After(t) {
			out = append(out, r)
		}
	}
	return out
}

// checkProduct valida que el producto exista y pertenezca a la empresa.
func checkProduct(ctx context.Context, repo repository.ProductRepository, companyID, productID string) (*entity.Product, error) {
	product, err := repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return product, nil
}

// checkWarehouse valida que la bodega exista y pertenezca a la empresa.
func checkWarehouse(ctx context.Context, repo repository.WarehouseRepository, companyID, warehouseID string) (*entity.Warehouse, error) {
	wh, err := repo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}
	if wh.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return wh, nil
}

func toMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		WarehouseID:   m.WarehouseID,
		ProductID:     m.ProductID,
		LotID:         m.LotID,
		Kind:          m.Kind.String(),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.Cost(),
		ExpiryDate:    m.ExpiryDate,
		Reference:     m.Reference,
		OccurredAt:    m.OccurredAt,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

func toMovementResponses(list []*entity.InventoryMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toAllocationLines(lines []inventory.AllocationLine) []dto.AllocationLineDTO {
	out := make([]dto.AllocationLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.AllocationLineDTO{
			LotID:      l.LotID,
			Quantity:   l.Quantity,
			UnitCost:   l.UnitCost,
			TotalCost:  l.Quantity.Mul(l.UnitCost),
			ExpiryDate: l.ExpiryDate,
		})
	}
	return out
}
