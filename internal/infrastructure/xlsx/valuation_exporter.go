// Package xlsx exporta la valorización del inventario a hojas de cálculo.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
)

const (
	sheetBalances = "Saldos"
	sheetSummary  = "Resumen"
)

var balanceHeaders = []string{
	"Bodega", "SKU", "Producto", "Lote", "Unidad", "Cantidad",
	"Costo promedio", "Valor total", "Vencimiento", "Último movimiento",
}

// ValuationExporter genera el libro XLSX con excelize.
type ValuationExporter struct{}

// NewValuationExporter construye el exportador.
func NewValuationExporter() *ValuationExporter { return &ValuationExporter{} }

// BalancesXLSX devuelve un libro con la hoja de saldos por lote y el resumen por bodega.
func (e *ValuationExporter) BalancesXLSX(report dto.ValuationReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetBalances); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	names := warehouseNames(report.Valuation.Warehouses)
	for i, h := range balanceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetBalances, cell, h)
	}
	f.SetCellStyle(sheetBalances, "A1", "J1", bold)

	for i, b := range report.Balances {
		r := i + 2
		expiry := ""
		if b.ExpiryDate != nil {
			expiry = b.ExpiryDate.Format("2006-01-02")
		}
		values := []any{
			nonEmpty(names[b.WarehouseID], b.WarehouseID),
			b.SKU,
			nonEmpty(b.ProductName, b.ProductID),
			b.LotID,
			b.Unit,
			b.Quantity.InexactFloat64(),
			b.AverageCost.InexactFloat64(),
			b.TotalValue.InexactFloat64(),
			expiry,
			b.LastMovementAt.Format("2006-01-02 15:04"),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			f.SetCellValue(sheetBalances, cell, v)
		}
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: crear hoja resumen: %w", err)
	}
	f.SetCellValue(sheetSummary, "A1", nonEmpty(report.Title, "Valorización de inventario"))
	f.SetCellValue(sheetSummary, "A2", "Generado")
	f.SetCellValue(sheetSummary, "B2", report.Valuation.GeneratedAt.Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheetSummary, "A3", "Método de costeo")
	f.SetCellValue(sheetSummary, "B3", report.Valuation.CostingMode)

	for i, h := range []string{"Bodega", "Productos", "Lotes", "Cantidad", "Valor total"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		f.SetCellValue(sheetSummary, cell, h)
	}
	f.SetCellStyle(sheetSummary, "A5", "E5", bold)
	f.SetCellStyle(sheetSummary, "A1", "A1", bold)

	r := 6
	for _, w := range report.Valuation.Warehouses {
		f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", r), nonEmpty(w.WarehouseName, w.WarehouseID))
		f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", r), w.Products)
		f.SetCellValue(sheetSummary, fmt.Sprintf("C%d", r), w.Lots)
		f.SetCellValue(sheetSummary, fmt.Sprintf("D%d", r), w.TotalQuantity.InexactFloat64())
		f.SetCellValue(sheetSummary, fmt.Sprintf("E%d", r), w.TotalValue.InexactFloat64())
		r++
	}
	f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", r), "TOTAL")
	f.SetCellValue(sheetSummary, fmt.Sprintf("E%d", r), report.Valuation.TotalValue.InexactFloat64())
	f.SetCellStyle(sheetSummary, fmt.Sprintf("A%d", r), fmt.Sprintf("E%d", r), bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func warehouseNames(list []dto.WarehouseValuationDTO) map[string]string {
	out := make(map[string]string, len(list))
	for _, w := range list {
		out[w.WarehouseID] = w.WarehouseName
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
