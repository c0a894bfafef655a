package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	domaininv "github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/inventory-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	infraxlsx "github.com/jhoicas/inventory-ledger/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// storage repositorios y runner de transacciones del driver elegido.
type storage struct {
	movements  repository.InventoryMovementRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	txRunner   inventory.TxRunner
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Ledger.Storage).
		Str("costing_mode", cfg.Ledger.CostingMode).
		Msg("iniciando aplicación")

	ctx := context.Background()

	mode, err := domaininv.ParseCostingMode(cfg.Ledger.CostingMode)
	if err != nil {
		log.Fatal().Err(err).Msg("LEDGER_COSTING_MODE")
	}
	engineCfg := inventory.DefaultEngineConfig()
	engineCfg.CostingMode = mode
	engineCfg.ConsumeRetries = cfg.Ledger.ConsumeRetries
	if cfg.Ledger.LockTTL > 0 {
		engineCfg.LockTTL = cfg.Ledger.LockTTL
	}

	st := openStorage(ctx, cfg, log)
	defer st.close()

	// Candado distribuido opcional para consumos concurrentes entre instancias.
	var locker inventory.Locker
	if cfg.Redis.Enabled() {
		rdb, err := lock.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("candado distribuido Redis activo")
	}

	warehouseUC := usecase.NewWarehouseUseCase(st.warehouses)
	productUC := usecase.NewProductUseCase(st.products)
	registerMovementUC := inventory.NewRegisterMovementUseCase(st.txRunner, st.products, st.warehouses, engineCfg, log.Component("movements"))
	allocationUC := inventory.NewAllocationUseCase(st.txRunner, st.movements, st.products, st.warehouses, locker, engineCfg, log.Component("allocation"))
	balanceUC := inventory.NewBalanceUseCase(st.movements, st.products, st.warehouses, engineCfg)
	replenishmentUC := inventory.NewReplenishmentUseCase(st.movements, st.products, engineCfg)
	reportUC := inventory.NewReportUseCase(balanceUC, infraxlsx.NewValuationExporter(), infrapdf.NewMarotoPDFGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventory Ledger API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, UI deshabilitada")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Ledger.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC:      warehouseUC,
		ProductUC:        productUC,
		RegisterMovement: registerMovementUC,
		Allocation:       allocationUC,
		Balances:         balanceUC,
		Replenishment:    replenishmentUC,
		Reports:          reportUC,
		Auth:             httpRouter.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer},
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.Ledger.Storage == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return storage{
			movements:  memory.NewInventoryMovementRepository(store),
			products:   memory.NewProductRepository(store),
			warehouses: memory.NewWarehouseRepository(store),
			txRunner:   memory.NewTxRunner(store),
			close:      func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return storage{
		movements:  postgres.NewInventoryMovementRepository(pool),
		products:   postgres.NewProductRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		txRunner:   postgres.NewTxRunner(pool),
		close:      pool.Close,
	}
}
