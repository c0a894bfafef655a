package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// Columnas reconocidas (encabezado obligatorio, orden libre).
const (
	colWarehouse = "warehouse_id"
	colProduct   = "product_id"
	colLot       = "lot_id"
	colKind      = "kind"
	colQuantity  = "quantity"
	colUnitCost  = "unit_cost"
	colTotalCost = "total_cost"
	colExpiry    = "expiry_date"
	colOccurred  = "occurred_at"
	colReference = "reference"
)

var requiredColumns = []string{colWarehouse, colProduct, colKind, colQuantity, colOccurred}

// legacyKinds nombres del sistema anterior que se traducen a los tipos del libro.
var legacyKinds = map[string]inventory.MovementKind{
	"ENTRADA":        inventory.KindReceipt,
	"COMPRA":         inventory.KindReceipt,
	"TRASLADO_IN":    inventory.KindTransferIn,
	"DEVOLUCION_CLI": inventory.KindCustomerReturn,
	"PRODUCCION":     inventory.KindProductionOutput,
	"SALIDA":         inventory.KindSale,
	"VENTA":          inventory.KindSale,
	"TRASLADO_OUT":   inventory.KindTransferOut,
	"DEVOLUCION_PRO": inventory.KindSupplierReturn,
	"CONSUMO":        inventory.KindProductionConsumption,
	"AJUSTE":         inventory.KindAbsoluteAdjustment,
}

// importOptions parámetros de la lectura.
type importOptions struct {
	CompanyID string
	UserID    string
	Charset   string // utf-8 | iso-8859-1 | windows-1252
	Separator rune
}

// decodeReader envuelve r con el decodificador del charset indicado.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "latin1", "latin-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("charset no soportado %q", charset)
}

// parseMovements lee el CSV completo. Los errores indican la línea del archivo.
func parseMovements(r io.Reader, opts importOptions) ([]*entity.InventoryMovement, error) {
	decoded, err := decodeReader(r, opts.Charset)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(decoded)
	if opts.Separator != 0 {
		cr.Comma = opts.Separator
	}
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	now := time.Now()
	var list []*entity.InventoryMovement
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		m, err := buildMovement(get, opts, now)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		list = append(list, m)
	}
	return list, nil
}

func buildMovement(get func(string) string, opts importOptions, now time.Time) (*entity.InventoryMovement, error) {
	kind, err := parseKind(get(colKind))
	if err != nil {
		return nil, err
	}
	qty, err := parseDecimal(get(colQuantity))
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	unitCost := decimal.Zero
	if raw := get(colUnitCost); raw != "" {
		if unitCost, err = parseDecimal(raw); err != nil {
			return nil, fmt.Errorf("unit_cost: %w", err)
		}
	}
	var totalCost *decimal.Decimal
	if raw := get(colTotalCost); raw != "" {
		tc, err := parseDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("total_cost: %w", err)
		}
		totalCost = &tc
		if unitCost.IsZero() && qty.IsPositive() {
			unitCost = tc.Div(qty)
		}
	}
	occurred, err := parseTime(get(colOccurred))
	if err != nil {
		return nil, fmt.Errorf("occurred_at: %w", err)
	}
	var expiry *time.Time
	if raw := get(colExpiry); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("expiry_date: %w", err)
		}
		expiry = &t
	}
	if get(colWarehouse) == "" || get(colProduct) == "" {
		return nil, fmt.Errorf("warehouse_id y product_id son obligatorios")
	}

	return &entity.InventoryMovement{
		ID:            uuid.New().String(),
		CompanyID:     opts.CompanyID,
		TransactionID: uuid.New().String(),
		WarehouseID:   get(colWarehouse),
		ProductID:     get(colProduct),
		LotID:         get(colLot),
		Kind:          kind,
		Quantity:      qty,
		UnitCost:      unitCost,
		TotalCost:     totalCost,
		ExpiryDate:    expiry,
		Reference:     get(colReference),
		OccurredAt:    occurred,
		CreatedAt:     now,
		CreatedBy:     opts.UserID,
	}, nil
}

func parseKind(raw string) (inventory.MovementKind, error) {
	if k, ok := legacyKinds[strings.ToUpper(raw)]; ok {
		return k, nil
	}
	return inventory.ParseMovementKind(strings.ToLower(raw))
}

// parseDecimal acepta punto o coma decimal ("1234,50"); sin separador de miles.
func parseDecimal(raw string) (decimal.Decimal, error) {
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	return decimal.NewFromString(raw)
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q", raw)
}

// parseSeparator valida -sep: exactamente un carácter que encoding/csv acepte como delimitador.
func parseSeparator(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("-sep debe ser un único carácter, recibido %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("-sep %q no sirve como separador CSV", s)
	}
	return r, nil
}
