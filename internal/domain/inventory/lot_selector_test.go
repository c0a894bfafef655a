package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// twoDatedLots lote A (50, vence 2025-01-10) y lote B (50, vence 2025-02-01), recibido B primero.
func twoDatedLots() []inventory.MovementRecord {
	a := mov(inventory.KindReceipt, whMain, prodP, "A", "50", "3", at(10))
	a.ExpiryDate = date(2025, 1, 10)
	b := mov(inventory.KindReceipt, whMain, prodP, "B", "50", "4", at(0))
	b.ExpiryDate = date(2025, 2, 1)
	return []inventory.MovementRecord{b, a}
}

func sumLines(lines []inventory.AllocationLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// Escenario 3: FEFO toma 50 de A (vence antes) y 10 de B.
func TestSelectLots_FEFO(t *testing.T) {
	lines, err := inventory.SelectLots(twoDatedLots(), whMain, prodP, dec("60"))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "A", lines[0].LotID)
	assertDec(t, "50", lines[0].Quantity)
	assertDec(t, "3", lines[0].UnitCost)
	require.NotNil(t, lines[0].ExpiryDate)
	assert.Equal(t, *date(2025, 1, 10), *lines[0].ExpiryDate)

	assert.Equal(t, "B", lines[1].LotID)
	assertDec(t, "10", lines[1].Quantity)
	assertDec(t, "60", sumLines(lines))
}

// Con cantidad suficiente en el lote que vence primero no se toca el siguiente.
func TestSelectLots_FEFOConsumeSoloElPrimerLote(t *testing.T) {
	lines, err := inventory.SelectLots(twoDatedLots(), whMain, prodP, dec("50"))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "A", lines[0].LotID)
	assertDec(t, "50", lines[0].Quantity)
}

// Escenario 4: se piden 200 con 100 disponibles → faltante exacto de 100, sin resultado parcial.
func TestSelectLots_StockInsuficiente(t *testing.T) {
	lines, err := inventory.SelectLots(twoDatedLots(), whMain, prodP, dec("200"))
	require.Error(t, err)
	assert.Nil(t, lines, "no debe devolver asignación parcial")
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assertDec(t, "100", stockErr.Shortfall)
	assertDec(t, "100", stockErr.Available)
	assertDec(t, "200", stockErr.Requested)
}

func TestSelectLots_SinStock(t *testing.T) {
	_, err := inventory.SelectLots(nil, whMain, prodP, dec("1"))
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assertDec(t, "1", stockErr.Shortfall)
}

// Lotes sin vencimiento van al final, entre ellos FIFO por primer movimiento.
func TestSelectLots_SinVencimientoAlFinalEnOrdenFIFO(t *testing.T) {
	late := mov(inventory.KindReceipt, whMain, prodP, "TARDE", "5", "1", at(20))
	early := mov(inventory.KindReceipt, whMain, prodP, "TEMPRANO", "5", "1", at(1))
	dated := mov(inventory.KindReceipt, whMain, prodP, "FECHADO", "5", "1", at(30))
	dated.ExpiryDate = date(2026, 1, 1)

	lines, err := inventory.SelectLots([]inventory.MovementRecord{late, early, dated}, whMain, prodP, dec("12"))
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "FECHADO", lines[0].LotID)
	assert.Equal(t, "TEMPRANO", lines[1].LotID)
	assert.Equal(t, "TARDE", lines[2].LotID)
	assertDec(t, "2", lines[2].Quantity)
}

// El stock sin lote participa como un lote más (sin vencimiento).
func TestSelectLots_IncluyeStockSinLote(t *testing.T) {
	movements := []inventory.MovementRecord{
		mov(inventory.KindReceipt, whMain, prodP, "", "5", "2", at(0)),
		mov(inventory.KindReceipt, whNorth, prodP, "", "100", "2", at(0)),
	}
	lines, err := inventory.SelectLots(movements, whMain, prodP, dec("5"))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "", lines[0].LotID)
}

func TestSelectLots_DescuentaConsumosPrevios(t *testing.T) {
	movements := append(twoDatedLots(),
		mov(inventory.KindProductionConsumption, whMain, prodP, "A", "45", "0", at(11)),
	)
	lines, err := inventory.SelectLots(movements, whMain, prodP, dec("10"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assertDec(t, "5", lines[0].Quantity)
	assertDec(t, "5", lines[1].Quantity)
}

func TestSelectLots_ExcluyeVencidosConCorte(t *testing.T) {
	cutoff := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	lines, err := inventory.SelectLots(twoDatedLots(), whMain, prodP, dec("20"), inventory.WithExpiredCutoff(cutoff))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "B", lines[0].LotID, "el lote A venció antes del corte")

	_, err = inventory.SelectLots(twoDatedLots(), whMain, prodP, dec("60"), inventory.WithExpiredCutoff(cutoff))
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assertDec(t, "10", stockErr.Shortfall)
}

func TestSelectLots_CantidadCeroYNegativa(t *testing.T) {
	lines, err := inventory.SelectLots(twoDatedLots(), whMain, prodP, decimal.Zero)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = inventory.SelectLots(twoDatedLots(), whMain, prodP, dec("-1"))
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

// Conservación: para varias cantidades satisfacibles la suma es exactamente lo pedido.
func TestSelectLots_ConservacionDeCantidad(t *testing.T) {
	for _, q := range []string{"0.5", "1", "49.999", "50", "50.001", "99", "100"} {
		lines, err := inventory.SelectLots(twoDatedLots(), whMain, prodP, dec(q))
		require.NoError(t, err, q)
		assertDec(t, q, sumLines(lines), "cantidad %s", q)
	}
}

func TestSortFEFO_EmpateDeVencimientoPorPrimerMovimiento(t *testing.T) {
	exp := date(2025, 5, 1)
	balances := []inventory.StockBalance{
		{LotID: "Z", ExpiryDate: exp, FirstMovementAt: at(5)},
		{LotID: "Y", ExpiryDate: exp, FirstMovementAt: at(1)},
		{LotID: "X", FirstMovementAt: at(0)},
	}
	inventory.SortFEFO(balances)
	assert.Equal(t, []string{"Y", "Z", "X"}, []string{balances[0].LotID, balances[1].LotID, balances[2].LotID})
}
