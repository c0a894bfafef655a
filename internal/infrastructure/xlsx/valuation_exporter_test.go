package xlsx_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/xlsx"
)

func TestValuationExporter_GeneraHojasSaldosYResumen(t *testing.T) {
	expiry := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	report := dto.ValuationReport{
		Title: "Valorización",
		Valuation: dto.ValuationResponse{
			GeneratedAt: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
			CostingMode: "moving_average",
			Warehouses: []dto.WarehouseValuationDTO{{
				WarehouseID: "W1", WarehouseName: "Principal", Products: 1, Lots: 1,
				TotalQuantity: decimal.NewFromInt(10), TotalValue: decimal.NewFromInt(50),
			}},
			TotalValue: decimal.NewFromInt(50),
		},
		Balances: []dto.BalanceDTO{{
			WarehouseID: "W1", ProductID: "P1", LotID: "L1", SKU: "SKU-1", ProductName: "Leche",
			Quantity: decimal.NewFromInt(10), AverageCost: decimal.NewFromInt(5), TotalValue: decimal.NewFromInt(50),
			ExpiryDate: &expiry,
		}},
	}

	data, err := xlsx.NewValuationExporter().BalancesXLSX(report)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Saldos", "Resumen"}, f.GetSheetList())

	v, err := f.GetCellValue("Saldos", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Principal", v)
	v, _ = f.GetCellValue("Saldos", "D2")
	assert.Equal(t, "L1", v)
	v, _ = f.GetCellValue("Saldos", "I2")
	assert.Equal(t, "2025-03-01", v)

	v, _ = f.GetCellValue("Resumen", "A6")
	assert.Equal(t, "Principal", v)
	v, _ = f.GetCellValue("Resumen", "A7")
	assert.Equal(t, "TOTAL", v)
	v, _ = f.GetCellValue("Resumen", "E7")
	assert.Equal(t, "50", v)
}

func TestValuationExporter_SinSaldos(t *testing.T) {
	data, err := xlsx.NewValuationExporter().BalancesXLSX(dto.ValuationReport{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Saldos")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
