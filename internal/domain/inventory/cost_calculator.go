package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Se usa para proyectar el costo de una entrada antes de registrarla.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// AverageCost costo acumulado / cantidad; 0 si la cantidad es 0 o negativa.
func AverageCost(accumulated, quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	return accumulated.Div(quantity)
}

// costAccumulator estado del pliegue de un bucket (bodega, producto, lote).
type costAccumulator struct {
	mode     CostingMode
	quantity decimal.Decimal
	cost     decimal.Decimal
}

// inbound suma cantidad y costo total del movimiento.
func (a *costAccumulator) inbound(qty, totalCost decimal.Decimal) {
	a.quantity = a.quantity.Add(qty)
	a.cost = a.cost.Add(totalCost)
}

// outbound resta cantidad. En promedio móvil descarga qty * promedio vigente;
// si la salida agota el saldo, el costo acumulado queda en 0.
func (a *costAccumulator) outbound(qty decimal.Decimal) {
	if a.mode == CostingMovingAverage && a.quantity.IsPositive() {
		if qty.GreaterThanOrEqual(a.quantity) {
			a.cost = decimal.Zero
		} else {
			a.cost = a.cost.Sub(qty.Mul(AverageCost(a.cost, a.quantity)))
		}
	}
	a.quantity = a.quantity.Sub(qty)
}

// adjustTo fija la cantidad absoluta. El delta positivo se costea a unitCost;
// el negativo descarga a promedio vigente solo en promedio móvil.
func (a *costAccumulator) adjustTo(target, unitCost decimal.Decimal) {
	delta := target.Sub(a.quantity)
	switch {
	case delta.IsPositive():
		a.cost = a.cost.Add(delta.Mul(unitCost))
	case delta.IsNegative() && a.mode == CostingMovingAverage:
		if !target.IsPositive() {
			a.cost = decimal.Zero
		} else if a.quantity.IsPositive() {
			a.cost = target.Mul(AverageCost(a.cost, a.quantity))
		}
	}
	a.quantity = target
}

func (a *costAccumulator) average() decimal.Decimal {
	return AverageCost(a.cost, a.quantity)
}
