// Package pdf genera el informe de valorización de inventario en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título  │  Fecha de generación + método de costeo   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Bodega | Productos | Lotes | Cantidad | Valor      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DETALLE: SKU | Producto | Lote | Cant | C.Prom | Valor      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL VALORIZADO                                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.ValuationPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// ValuationPDF genera el informe y devuelve sus bytes.
func (g *MarotoPDFGenerator) ValuationPDF(report dto.ValuationReport) ([]byte, error) {
	title := nonEmpty(report.Title, "Valorización de inventario")
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(title, report.Valuation))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionRow("RESUMEN POR BODEGA"))
	m.AddRows(summaryHeaderRow())
	m.AddRows(summaryRows(report.Valuation.Warehouses)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionRow("DETALLE POR LOTE"))
	m.AddRows(detailHeaderRow())
	m.AddRows(detailRows(report.Balances)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(report.Valuation.TotalValue))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title string, v dto.ValuationResponse) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("Generado: "+v.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New("Costeo: "+nonEmpty(v.CostingMode, "-"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func sectionRow(label string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func cell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{
		Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func summaryHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("Bodega", 4, align.Left),
		headerCell("Productos", 2, align.Center),
		headerCell("Lotes", 1, align.Center),
		headerCell("Cantidad", 2, align.Right),
		headerCell("Valor", 3, align.Right),
	)
}

func summaryRows(list []dto.WarehouseValuationDTO) []core.Row {
	rows := make([]core.Row, 0, len(list))
	for _, w := range list {
		rows = append(rows, row.New(6).Add(
			cell(nonEmpty(w.WarehouseName, w.WarehouseID), 4, align.Left),
			cell(fmt.Sprint(w.Products), 2, align.Center),
			cell(fmt.Sprint(w.Lots), 1, align.Center),
			cell(formatQty(w.TotalQuantity), 2, align.Right),
			cell("$"+formatMoney(w.TotalValue.StringFixed(0)), 3, align.Right),
		))
	}
	return rows
}

func detailHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("SKU", 2, align.Left),
		headerCell("Producto", 3, align.Left),
		headerCell("Lote", 2, align.Left),
		headerCell("Cant.", 1, align.Right),
		headerCell("C. Prom.", 2, align.Right),
		headerCell("Valor", 2, align.Right),
	)
}

func detailRows(list []dto.BalanceDTO) []core.Row {
	rows := make([]core.Row, 0, len(list))
	for _, b := range list {
		rows = append(rows, row.New(6).Add(
			cell(nonEmpty(b.SKU, "-"), 2, align.Left),
			cell(nonEmpty(b.ProductName, b.ProductID), 3, align.Left),
			cell(nonEmpty(b.LotID, "sin lote"), 2, align.Left),
			cell(formatQty(b.Quantity), 1, align.Right),
			cell("$"+formatMoney(b.AverageCost.StringFixed(0)), 2, align.Right),
			cell("$"+formatMoney(b.TotalValue.StringFixed(0)), 2, align.Right),
		))
	}
	return rows
}

func totalRow(total decimal.Decimal) core.Row {
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New("TOTAL VALORIZADO:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New("$"+formatMoney(total.StringFixed(0)), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatQty(d decimal.Decimal) string {
	return strings.TrimRight(strings.TrimRight(d.StringFixed(3), "0"), ".")
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
