package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	appinventory "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyA = "company-a"
	companyB = "company-b"
	userID   = "user-1"
	whMain   = "wh-main"
	whNorth  = "wh-north"
	whOther  = "wh-other"
	prodMilk = "prod-milk"
)

type fixture struct {
	store      *memory.Store
	movements  *appinventory.RegisterMovementUseCase
	allocation *appinventory.AllocationUseCase
	balances   *appinventory.BalanceUseCase
	replenish  *appinventory.ReplenishmentUseCase
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"esperado %s, obtenido %s", want, got.String()}, msgAndArgs...)...)
}

// newFixture almacén en memoria con dos bodegas de A, una de B y leche en cajas de 12.
func newFixture(t *testing.T, locker appinventory.Locker) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	movRepo := memory.NewInventoryMovementRepository(store)
	productRepo := memory.NewProductRepository(store)
	warehouseRepo := memory.NewWarehouseRepository(store)
	txRunner := memory.NewTxRunner(store)

	now := time.Now()
	for _, w := range []entity.Warehouse{
		{ID: whMain, CompanyID: companyA, Code: "PRIN", Name: "Principal"},
		{ID: whNorth, CompanyID: companyA, Code: "NTE", Name: "Norte"},
		{ID: whOther, CompanyID: companyB, Code: "EXT", Name: "Externa"},
	} {
		w := w
		w.CreatedAt, w.UpdatedAt = now, now
		require.NoError(t, warehouseRepo.Create(ctx, &w))
	}
	require.NoError(t, productRepo.Create(ctx, &entity.Product{
		ID: prodMilk, CompanyID: companyA, SKU: "LECHE-1", Name: "Leche", BaseUnit: "und",
		PurchaseUnit: "caja", UnitsPerPack: dec("12"), ReorderPoint: dec("30"), CreatedAt: now, UpdatedAt: now,
	}))

	cfg := appinventory.DefaultEngineConfig()
	cfg.RetryBackoff = time.Millisecond
	log := logger.Nop()
	balances := appinventory.NewBalanceUseCase(movRepo, productRepo, warehouseRepo, cfg)
	return &fixture{
		store:      store,
		movements:  appinventory.NewRegisterMovementUseCase(txRunner, productRepo, warehouseRepo, cfg, log),
		allocation: appinventory.NewAllocationUseCase(txRunner, movRepo, productRepo, warehouseRepo, locker, cfg, log),
		balances:   balances,
		replenish:  appinventory.NewReplenishmentUseCase(movRepo, productRepo, cfg),
	}
}

// receive anexa una entrada de qty unidades a unitCost en el lote indicado.
func (f *fixture) receive(t *testing.T, wh, lot, qty, unitCost string, expiry *time.Time) {
	t.Helper()
	_, err := f.movements.RegisterMovement(context.Background(), appinventory.MovementInputDTO{
		CompanyID: companyA, UserID: userID, ProductID: prodMilk, WarehouseID: wh, LotID: lot,
		Kind: string(inventory.KindReceipt), Quantity: dec(qty), UnitCost: ptr(dec(unitCost)), ExpiryDate: expiry,
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, q dto.BalanceQuery) *dto.BalanceListResponse {
	t.Helper()
	out, err := f.balances.Balances(context.Background(), companyA, q)
	require.NoError(t, err)
	return out
}

func day(d int) *time.Time {
	t := time.Date(2030, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// ──────────────────────────────────────────────────────────────────────────────
// RegisterMovement
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterMovement_SalidaSinCostoUsaPromedio(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "10", "4", nil)
	f.receive(t, whMain, "L1", "10", "6", nil)

	mov, err := f.movements.RegisterMovement(context.Background(), appinventory.MovementInputDTO{
		CompanyID: companyA, UserID: userID, ProductID: prodMilk, WarehouseID: whMain, LotID: "L1",
		Kind: string(inventory.KindSale), Quantity: dec("5"),
	})
	require.NoError(t, err)
	assertDec(t, "5", mov.UnitCost)

	bal := f.balance(t, dto.BalanceQuery{WarehouseID: whMain, LotID: "L1"})
	require.Len(t, bal.Items, 1)
	assertDec(t, "15", bal.Items[0].Quantity)
	assertDec(t, "75", bal.Items[0].TotalValue)
}

func TestRegisterMovement_SalidaMayorAlSaldoDelLote(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "3", "2", nil)

	_, err := f.movements.RegisterMovement(context.Background(), appinventory.MovementInputDTO{
		CompanyID: companyA, UserID: userID, ProductID: prodMilk, WarehouseID: whMain, LotID: "L1",
		Kind: string(inventory.KindSale), Quantity: dec("5"),
	})
	var short *inventory.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assertDec(t, "2", short.Shortfall)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

// registerAt anexa un movimiento de L1 en la bodega principal con fecha de negocio explícita.
func (f *fixture) registerAt(kind inventory.MovementKind, qty, unitCost string, when *time.Time) (*entity.InventoryMovement, error) {
	in := appinventory.MovementInputDTO{
		CompanyID: companyA, UserID: userID, ProductID: prodMilk, WarehouseID: whMain, LotID: "L1",
		Kind: string(kind), Quantity: dec(qty), OccurredAt: when,
	}
	if unitCost != "" {
		in.UnitCost = ptr(dec(unitCost))
	}
	return f.movements.RegisterMovement(context.Background(), in)
}

func TestRegisterMovement_SalidaRetroactivaSinStockALaFecha(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.registerAt(inventory.KindReceipt, "100", "2", day(10))
	require.NoError(t, err)

	_, err = f.registerAt(inventory.KindSale, "30", "", day(1))
	var short *inventory.InsufficientStockError
	require.True(t, errors.As(err, &short), "el 1 de enero el lote aún no existía")
	assertDec(t, "30", short.Shortfall)
	assertDec(t, "0", short.Available)

	_, err = f.registerAt(inventory.KindSale, "30", "", day(15))
	require.NoError(t, err)

	bal := f.balance(t, dto.BalanceQuery{WarehouseID: whMain, LotID: "L1"})
	require.Len(t, bal.Items, 1)
	assertDec(t, "70", bal.Items[0].Quantity)
	assertDec(t, "2", bal.Items[0].AverageCost)
	assertDec(t, "140", bal.Items[0].TotalValue)
}

func TestRegisterMovement_SalidaRetroactivaDejaNegativaUnaSalidaPosterior(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.registerAt(inventory.KindReceipt, "10", "2", day(1))
	require.NoError(t, err)
	_, err = f.registerAt(inventory.KindSale, "8", "", day(5))
	require.NoError(t, err)

	// El día 3 hay 10, pero la venta del día 5 quedaría sin cubrir.
	_, err = f.registerAt(inventory.KindSale, "5", "", day(3))
	var short *inventory.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assertDec(t, "3", short.Shortfall)
	assertDec(t, "2", short.Available)

	mov, err := f.registerAt(inventory.KindSale, "2", "", day(3))
	require.NoError(t, err)
	assertDec(t, "2", mov.UnitCost, "promedio vigente a la fecha del movimiento")
}

func TestRegisterMovement_AjusteAbsolutoFijaLaCantidad(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "", "10", "3", nil)

	_, err := f.movements.RegisterMovement(context.Background(), appinventory.MovementInputDTO{
		CompanyID: companyA, UserID: userID, ProductID: prodMilk, WarehouseID: whMain,
		Kind: string(inventory.KindAbsoluteAdjustment), Quantity: dec("7"),
	})
	require.NoError(t, err)

	bal := f.balance(t, dto.BalanceQuery{WarehouseID: whMain, Unlotted: true})
	require.Len(t, bal.Items, 1)
	assertDec(t, "7", bal.Items[0].Quantity)
}

func TestRegisterMovement_ValidaEntrada(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	base := appinventory.MovementInputDTO{
		CompanyID: companyA, UserID: userID, ProductID: prodMilk, WarehouseID: whMain,
		Kind: string(inventory.KindReceipt), Quantity: dec("1"), UnitCost: ptr(dec("1")),
	}

	in := base
	in.Kind = "regalo"
	_, err := f.movements.RegisterMovement(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "tipo desconocido")

	in = base
	in.UnitCost = nil
	_, err = f.movements.RegisterMovement(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "entrada sin costo")

	in = base
	in.Quantity = dec("-1")
	_, err = f.movements.RegisterMovement(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "cantidad negativa")

	in = base
	in.WarehouseID = whOther
	_, err = f.movements.RegisterMovement(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrForbidden), "bodega de otra empresa")

	in = base
	in.ProductID = "no-existe"
	_, err = f.movements.RegisterMovement(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción en empaques y traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestReceivePurchase_ConvierteEmpaquesYProyectaPromedio(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.movements.ReceivePurchase(ctx, companyA, userID, dto.ReceivePurchaseRequest{
		ProductID: prodMilk, WarehouseID: whMain, LotID: "L1", Packs: dec("3"), TotalCost: dec("90"),
	})
	require.NoError(t, err)
	assertDec(t, "36", first.BaseQuantity)
	assertDec(t, "2.5", first.UnitCost)
	assertDec(t, "0", first.StockBefore)
	assertDec(t, "2.5", first.AverageCostAfter)
	assertDec(t, "90", first.Movement.TotalCost)

	second, err := f.movements.ReceivePurchase(ctx, companyA, userID, dto.ReceivePurchaseRequest{
		ProductID: prodMilk, WarehouseID: whMain, LotID: "L1", Packs: dec("1"), TotalCost: dec("42"),
	})
	require.NoError(t, err)
	assertDec(t, "36", second.StockBefore)
	assertDec(t, "2.5", second.AverageCostBefore)
	assertDec(t, "2.75", second.AverageCostAfter)

	bal := f.balance(t, dto.BalanceQuery{WarehouseID: whMain})
	assertDec(t, "48", bal.TotalQuantity)
	assertDec(t, "132", bal.TotalValue)
}

func TestReceivePurchase_EmpaquesEnCeroEsInvalido(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.movements.ReceivePurchase(context.Background(), companyA, userID, dto.ReceivePurchaseRequest{
		ProductID: prodMilk, WarehouseID: whMain, Packs: dec("0"), TotalCost: dec("10"),
	})
	assert.True(t, errors.Is(err, inventory.ErrInvalidQuantity))
}

func TestTransfer_EmiteParConMismoLoteYCosto(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L-late", "5", "8", day(20))
	f.receive(t, whMain, "L-early", "3", "4", day(5))

	out, err := f.movements.Transfer(context.Background(), companyA, userID, dto.TransferRequest{
		ProductID: prodMilk, FromWarehouseID: whMain, ToWarehouseID: whNorth, Quantity: dec("4"),
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)
	require.Len(t, out.Movements, 4)
	assert.Equal(t, "L-early", out.Lines[0].LotID)
	for _, m := range out.Movements {
		assert.Equal(t, out.TransactionID, m.TransactionID)
	}

	north := f.balance(t, dto.BalanceQuery{WarehouseID: whNorth})
	require.Len(t, north.Items, 2)
	assertDec(t, "4", north.TotalQuantity)
	assertDec(t, "20", north.TotalValue, "3×4 + 1×8")
	assert.Equal(t, day(5).Format("2006-01-02"), north.Items[0].ExpiryDate.Format("2006-01-02"))

	source := f.balance(t, dto.BalanceQuery{WarehouseID: whMain})
	assertDec(t, "4", source.TotalQuantity)
}

func TestTransfer_LoteInsuficienteNoRegistraNada(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "2", "1", nil)

	_, err := f.movements.Transfer(context.Background(), companyA, userID, dto.TransferRequest{
		ProductID: prodMilk, FromWarehouseID: whMain, ToWarehouseID: whNorth, LotID: "L1", Quantity: dec("3"),
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	list, err := f.balances.ListMovements(context.Background(), companyA, dto.MovementQuery{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo FEFO
// ──────────────────────────────────────────────────────────────────────────────

func TestConsume_TomaLotesPorVencimientoYRegistraSalidas(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L-late", "10", "3", day(25))
	f.receive(t, whMain, "L-early", "4", "2", day(10))

	out, err := f.allocation.Consume(context.Background(), companyA, userID, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("6"), Reference: "PED-1",
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, "L-early", out.Lines[0].LotID)
	assertDec(t, "4", out.Lines[0].Quantity)
	assertDec(t, "2", out.Lines[1].Quantity)
	assertDec(t, "14", out.TotalCost, "4×2 + 2×3")
	require.Len(t, out.Movements, 2)
	assert.Equal(t, string(inventory.KindSale), out.Movements[0].Kind)

	bal := f.balance(t, dto.BalanceQuery{WarehouseID: whMain})
	require.Len(t, bal.Items, 1, "el lote agotado desaparece del saldo")
	assertDec(t, "8", bal.TotalQuantity)
}

func TestConsume_EntradaConFechaFuturaNoCubreElConsumo(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.registerAt(inventory.KindReceipt, "10", "2", day(10))
	require.NoError(t, err)

	_, err = f.allocation.Consume(context.Background(), companyA, userID, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("4"),
	})
	var short *inventory.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assertDec(t, "4", short.Shortfall)

	list, err := f.balances.ListMovements(context.Background(), companyA, dto.MovementQuery{WarehouseID: whMain})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1, "solo la entrada")
}

func TestConsume_InsuficienteNoRegistraNada(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "5", "1", nil)

	_, err := f.allocation.Consume(context.Background(), companyA, userID, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("8"),
	})
	var short *inventory.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assertDec(t, "3", short.Shortfall)

	bal := f.balance(t, dto.BalanceQuery{WarehouseID: whMain})
	assertDec(t, "5", bal.TotalQuantity)
}

func TestConsume_RechazaTipoDeEntrada(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.allocation.Consume(context.Background(), companyA, userID, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("1"), Kind: string(inventory.KindReceipt),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestConsume_ConcurrenteNoDejaSaldoNegativo(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "10", "1", nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.allocation.Consume(context.Background(), companyA, userID, dto.AllocationRequest{
				WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("3"),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	bal := f.balance(t, dto.BalanceQuery{WarehouseID: whMain})
	assertDec(t, "1", bal.TotalQuantity)
}

// conflictLocker devuelve ErrConflict las primeras veces.
type conflictLocker struct {
	failures int
	calls    int
}

func (l *conflictLocker) Acquire(_ context.Context, _ string, _ time.Duration) (func(context.Context) error, error) {
	l.calls++
	if l.calls <= l.failures {
		return nil, domain.ErrConflict
	}
	return func(context.Context) error { return nil }, nil
}

func TestConsume_ReintentaMientrasElCandadoEstaOcupado(t *testing.T) {
	locker := &conflictLocker{failures: 2}
	f := newFixture(t, locker)
	f.receive(t, whMain, "L1", "5", "1", nil)

	_, err := f.allocation.Consume(context.Background(), companyA, userID, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, locker.calls)
}

func TestConsume_AgotaReintentosDevuelveConflicto(t *testing.T) {
	locker := &conflictLocker{failures: 100}
	f := newFixture(t, locker)
	f.receive(t, whMain, "L1", "5", "1", nil)

	_, err := f.allocation.Consume(context.Background(), companyA, userID, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("1"),
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, 4, locker.calls, "intento inicial + 3 reintentos")
}

func TestPlan_NoRegistraMovimientos(t *testing.T) {
	f := newFixture(t, nil)
	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	f.receive(t, whMain, "L1", "5", "1", &expired)

	out, err := f.allocation.Plan(context.Background(), companyA, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("2"),
	})
	require.NoError(t, err)
	assert.Empty(t, out.TransactionID)
	assert.Len(t, out.Lines, 1)

	_, err = f.allocation.Plan(context.Background(), companyA, dto.AllocationRequest{
		WarehouseID: whMain, ProductID: prodMilk, Quantity: dec("2"), ExcludeExpired: true,
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock), "el único lote ya venció")
}

// ──────────────────────────────────────────────────────────────────────────────
// Saldos, valorización y reposición
// ──────────────────────────────────────────────────────────────────────────────

func TestBalances_LoteYSinLoteSonExcluyentes(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.balances.Balances(context.Background(), companyA, dto.BalanceQuery{LotID: "L1", Unlotted: true})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestBalances_NoMezclaEmpresas(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "5", "1", nil)

	out, err := f.balances.Balances(context.Background(), companyB, dto.BalanceQuery{})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestValuation_AgrupaPorBodega(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "10", "2", nil)
	f.receive(t, whMain, "L2", "5", "4", nil)
	f.receive(t, whNorth, "", "1", "7", nil)

	out, err := f.balances.Valuation(context.Background(), companyA)
	require.NoError(t, err)
	require.Len(t, out.Warehouses, 2)
	assertDec(t, "47", out.TotalValue)

	byID := map[string]dto.WarehouseValuationDTO{}
	for _, w := range out.Warehouses {
		byID[w.WarehouseID] = w
	}
	assert.Equal(t, "Principal", byID[whMain].WarehouseName)
	assert.Equal(t, 2, byID[whMain].Lots)
	assert.Equal(t, 1, byID[whMain].Products)
	assertDec(t, "40", byID[whMain].TotalValue)
	assertDec(t, "7", byID[whNorth].TotalValue)
}

func TestReplenishment_SugiereEmpaquesCompletos(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "20", "2", nil)

	list, err := f.replenish.GenerateReplenishmentList(context.Background(), companyA, whMain)
	require.NoError(t, err)
	require.Len(t, list, 1)
	s := list[0]
	assert.Equal(t, 1, s.Priority)
	assertDec(t, "45", s.IdealStock)
	// 45 − 20 = 25 → 3 cajas de 12 = 36
	assertDec(t, "3", s.SuggestedPacks)
	assertDec(t, "36", s.SuggestedOrderQty)
	assertDec(t, "72", s.EstimatedOrderCost)
}

func TestReplenishment_SobrePuntoDeReordenNoAparece(t *testing.T) {
	f := newFixture(t, nil)
	f.receive(t, whMain, "L1", "31", "2", nil)

	list, err := f.replenish.GenerateReplenishmentList(context.Background(), companyA, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
