package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildLedgerApp arma la API completa sobre el driver en memoria.
func buildLedgerApp() *fiber.App {
	store := memory.NewStore()
	movRepo := memory.NewInventoryMovementRepository(store)
	productRepo := memory.NewProductRepository(store)
	warehouseRepo := memory.NewWarehouseRepository(store)
	txRunner := memory.NewTxRunner(store)
	cfg := appinventory.DefaultEngineConfig()
	log := logger.Nop()

	balances := appinventory.NewBalanceUseCase(movRepo, productRepo, warehouseRepo, cfg)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		WarehouseUC:      usecase.NewWarehouseUseCase(warehouseRepo),
		ProductUC:        usecase.NewProductUseCase(productRepo),
		RegisterMovement: appinventory.NewRegisterMovementUseCase(txRunner, productRepo, warehouseRepo, cfg, log),
		Allocation:       appinventory.NewAllocationUseCase(txRunner, movRepo, productRepo, warehouseRepo, nil, cfg, log),
		Balances:         balances,
		Replenishment:    appinventory.NewReplenishmentUseCase(movRepo, productRepo, cfg),
		Reports:          appinventory.NewReportUseCase(balances, xlsx.NewValuationExporter(), pdf.NewMarotoPDFGenerator()),
		Auth:             apphttp.AuthConfig{Secret: testJWTSecret, Issuer: testIssuer},
	})
	return app
}

// call lanza la petición con el rol indicado y decodifica el cuerpo JSON (si lo hay).
func call(t *testing.T, app *fiber.App, role, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", tokenForRole(t, role))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

// seed crea una bodega y un producto en cajas de 12 y recibe 2 cajas del lote L1.
func seed(t *testing.T, app *fiber.App) (warehouseID, productID string) {
	t.Helper()
	status, wh := call(t, app, "admin", http.MethodPost, "/api/warehouses", map[string]any{"code": "PRIN", "name": "Principal"})
	require.Equal(t, http.StatusCreated, status)
	status, prod := call(t, app, "admin", http.MethodPost, "/api/products", map[string]any{
		"sku": "LECHE-1", "name": "Leche entera", "base_unit": "und", "purchase_unit": "caja",
		"units_per_pack": "12", "reorder_point": "30",
	})
	require.Equal(t, http.StatusCreated, status)
	warehouseID, productID = wh["id"].(string), prod["id"].(string)

	status, receipt := call(t, app, "bodeguero", http.MethodPost, "/api/inventory/receipts", map[string]any{
		"product_id": productID, "warehouse_id": warehouseID, "lot_id": "L1",
		"expiry_date": "2030-01-31T00:00:00Z", "packs": "2", "total_cost": "240",
	})
	require.Equal(t, http.StatusCreated, status, receipt)
	assert.Equal(t, "24", receipt["base_quantity"])
	assert.Equal(t, "10", receipt["unit_cost"])
	return warehouseID, productID
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo del libro
// ──────────────────────────────────────────────────────────────────────────────

func TestInventoryAPI_RecepcionConsumoYSaldos(t *testing.T) {
	app := buildLedgerApp()
	whID, prodID := seed(t, app)

	status, out := call(t, app, "bodeguero", http.MethodPost, "/api/inventory/allocations/consume", map[string]any{
		"warehouse_id": whID, "product_id": prodID, "quantity": "10", "reference": "PED-1",
	})
	require.Equal(t, http.StatusCreated, status, out)
	assert.Equal(t, "10", out["total_quantity"])
	assert.Equal(t, "100", out["total_cost"])
	assert.NotEmpty(t, out["transaction_id"])

	status, out = call(t, app, "vendedor", http.MethodGet, "/api/inventory/balances?warehouse_id="+whID, nil)
	require.Equal(t, http.StatusOK, status)
	items := out["items"].([]any)
	require.Len(t, items, 1)
	balance := items[0].(map[string]any)
	assert.Equal(t, "L1", balance["lot_id"])
	assert.Equal(t, "14", balance["quantity"])
	assert.Equal(t, "140", balance["total_value"])
}

func TestInventoryAPI_ConsumoInsuficienteDevuelve409ConFaltante(t *testing.T) {
	app := buildLedgerApp()
	whID, prodID := seed(t, app)

	status, out := call(t, app, "admin", http.MethodPost, "/api/inventory/allocations/consume", map[string]any{
		"warehouse_id": whID, "product_id": prodID, "quantity": "30",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", out["code"])
	assert.Equal(t, "6", out["shortfall"])
	assert.Equal(t, "24", out["available"])
}

func TestInventoryAPI_PlanNoRegistraMovimientos(t *testing.T) {
	app := buildLedgerApp()
	whID, prodID := seed(t, app)

	status, out := call(t, app, "vendedor", http.MethodPost, "/api/inventory/allocations/plan", map[string]any{
		"warehouse_id": whID, "product_id": prodID, "quantity": "5",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["lines"], 1)

	_, out = call(t, app, "vendedor", http.MethodGet, "/api/inventory/movements?product_id="+prodID, nil)
	assert.Len(t, out["items"], 1, "solo la recepción")
}

func TestInventoryAPI_TrasladoEntreBodegas(t *testing.T) {
	app := buildLedgerApp()
	whID, prodID := seed(t, app)
	status, north := call(t, app, "admin", http.MethodPost, "/api/warehouses", map[string]any{"code": "NTE", "name": "Norte"})
	require.Equal(t, http.StatusCreated, status)
	northID := north["id"].(string)

	status, out := call(t, app, "bodeguero", http.MethodPost, "/api/inventory/transfers", map[string]any{
		"product_id": prodID, "from_warehouse_id": whID, "to_warehouse_id": northID, "quantity": "4",
	})
	require.Equal(t, http.StatusCreated, status, out)
	assert.Len(t, out["movements"], 2)

	_, out = call(t, app, "admin", http.MethodGet, "/api/inventory/balances?warehouse_id="+northID+"&lot_id=L1", nil)
	items := out["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "4", items[0].(map[string]any)["quantity"])
	assert.Equal(t, "40", items[0].(map[string]any)["total_value"])
}

func TestInventoryAPI_ListaDeReposicion(t *testing.T) {
	app := buildLedgerApp()
	_, prodID := seed(t, app)

	status, out := call(t, app, "bodeguero", http.MethodGet, "/api/inventory/replenishment-list", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, out["total"])
	first := out["replenishments"].([]any)[0].(map[string]any)
	assert.Equal(t, prodID, first["product_id"])
	// 1.5 × 30 − 24 = 21 → 2 cajas de 12
	assert.Equal(t, "2", first["suggested_packs"])
	assert.Equal(t, "24", first["suggested_order_qty"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación, roles y exportaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestInventoryAPI_ValidacionDevuelveCampos(t *testing.T) {
	app := buildLedgerApp()
	status, out := call(t, app, "admin", http.MethodPost, "/api/inventory/transfers", map[string]any{
		"product_id": "P", "from_warehouse_id": "W1", "to_warehouse_id": "W1", "quantity": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", out["code"])
	fields := out["fields"].(map[string]any)
	assert.Contains(t, fields, "to_warehouse_id")
}

func TestInventoryAPI_VendedorNoPuedeConsumir(t *testing.T) {
	app := buildLedgerApp()
	status, out := call(t, app, "vendedor", http.MethodPost, "/api/inventory/allocations/consume", map[string]any{
		"warehouse_id": "W", "product_id": "P", "quantity": "1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", out["code"])
}

func TestInventoryAPI_ProductoInexistente404(t *testing.T) {
	app := buildLedgerApp()
	status, out := call(t, app, "admin", http.MethodGet, "/api/products/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", out["code"])
}

func TestInventoryAPI_ExportacionesValorizacion(t *testing.T) {
	app := buildLedgerApp()
	seed(t, app)

	status, out := call(t, app, "admin", http.MethodGet, "/api/inventory/valuation", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "240", out["total_value"])

	for path, mime := range map[string]string{
		"/api/inventory/valuation/export.xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"/api/inventory/valuation/report.pdf":  "application/pdf",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", tokenForRole(t, "admin"))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, mime, resp.Header.Get("Content-Type"), path)
		assert.NotEmpty(t, body, path)
	}

	status, _ = call(t, app, "bodeguero", http.MethodGet, "/api/inventory/valuation", nil)
	assert.Equal(t, http.StatusForbidden, status)
}
