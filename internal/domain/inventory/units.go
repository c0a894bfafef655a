package inventory

import "github.com/shopspring/decimal"

// ToBaseUnits convierte cantidad en empaques de compra a unidades base de inventario.
func ToBaseUnits(purchaseQty, unitsPerPack decimal.Decimal) decimal.Decimal {
	return purchaseQty.Mul(unitsPerPack)
}

// ToPurchaseUnits convierte unidades base a empaques de compra.
func ToPurchaseUnits(baseQty, unitsPerPack decimal.Decimal) (decimal.Decimal, error) {
	if !unitsPerPack.IsPositive() {
		return decimal.Zero, ErrInvalidPackSize
	}
	return baseQty.Div(unitsPerPack), nil
}

// CostPerBaseUnit costo de compra total / unidades base recibidas.
func CostPerBaseUnit(totalPurchaseCost, purchaseQty, unitsPerPack decimal.Decimal) (decimal.Decimal, error) {
	if !unitsPerPack.IsPositive() {
		return decimal.Zero, ErrInvalidPackSize
	}
	if !purchaseQty.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}
	return totalPurchaseCost.Div(ToBaseUnits(purchaseQty, unitsPerPack)), nil
}
