package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

const sampleCSV = `warehouse_id;product_id;lot_id;kind;quantity;unit_cost;total_cost;expiry_date;occurred_at;reference
W1;P1;L1;ENTRADA;10;;50,00;2030-01-31;2024-01-02;FC-1 Compañía
W1;P1;L1;VENTA;4;;;;2024-01-03;PED-9
W1;P1;;adjustment_absolute;2;5;;;2024-01-04 10:00:00;CONTEO
`

func TestParseMovements_LeeCSVLatin1ConTiposHeredados(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String(sampleCSV)
	require.NoError(t, err)

	list, err := parseMovements(strings.NewReader(encoded), importOptions{
		CompanyID: "C1", UserID: "import", Charset: "windows-1252", Separator: ';',
	})
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, inventory.KindReceipt, list[0].Kind)
	assert.Equal(t, "5", list[0].UnitCost.String(), "costo unitario derivado del total")
	require.NotNil(t, list[0].TotalCost)
	assert.Equal(t, "50", list[0].TotalCost.String())
	require.NotNil(t, list[0].ExpiryDate)
	assert.Equal(t, "FC-1 Compañía", list[0].Reference)
	assert.Equal(t, "C1", list[0].CompanyID)

	assert.Equal(t, inventory.KindSale, list[1].Kind)
	assert.Equal(t, inventory.KindAbsoluteAdjustment, list[2].Kind)
	assert.Empty(t, list[2].LotID)
}

func TestParseMovements_TipoDesconocidoIndicaLinea(t *testing.T) {
	csv := "warehouse_id,product_id,kind,quantity,occurred_at\nW1,P1,inbound_receipt,1,2024-01-01\nW1,P1,REGALO,1,2024-01-02\n"
	_, err := parseMovements(strings.NewReader(csv), importOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "línea 3")
	assert.True(t, errors.Is(err, inventory.ErrUnknownMovementKind))
}

func TestParseMovements_FaltaColumnaObligatoria(t *testing.T) {
	_, err := parseMovements(strings.NewReader("warehouse_id,product_id,kind\n"), importOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

func TestParseMovements_CharsetNoSoportado(t *testing.T) {
	_, err := parseMovements(strings.NewReader(sampleCSV), importOptions{Charset: "ebcdic"})
	assert.Error(t, err)
}

func TestWriteSQL_EscapaComillasYNulos(t *testing.T) {
	csv := "warehouse_id,product_id,kind,quantity,unit_cost,occurred_at,reference\nW1,P1,inbound_receipt,1,2,2024-01-01,O'Brien\n"
	list, err := parseMovements(strings.NewReader(csv), importOptions{CompanyID: "C1"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, list))
	sql := buf.String()
	assert.Contains(t, sql, "BEGIN;")
	assert.Contains(t, sql, "'O''Brien'")
	assert.Contains(t, sql, "'inbound_receipt'")
	assert.Contains(t, sql, "COMMIT;")
}

func TestParseSeparator_ValidaUnSoloCaracter(t *testing.T) {
	r, err := parseSeparator(";")
	require.NoError(t, err)
	assert.Equal(t, ';', r)

	r, err = parseSeparator("\t")
	require.NoError(t, err)
	assert.Equal(t, '\t', r)

	for _, bad := range []string{"", ";;", "\"", "\n"} {
		_, err := parseSeparator(bad)
		assert.Error(t, err, "separador %q", bad)
	}
}
