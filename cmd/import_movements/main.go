// import_movements migra al libro de inventario un export CSV de movimientos del sistema anterior.
//
// Uso:
//
//	go run ./cmd/import_movements -file kardex.csv -company <uuid> [-charset windows-1252] [-sep ';']
//	    [-out movimientos.sql | -apply]
//
// Cada fila se valida con el motor de saldos antes de escribir nada: un tipo desconocido,
// una cantidad negativa o una fecha inválida detienen la importación indicando la línea.
// Sin -apply se escribe un script SQL; con -apply se insertan en PostgreSQL en una sola transacción.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

func main() {
	file := flag.String("file", "", "ruta del CSV")
	companyID := flag.String("company", "", "empresa dueña de los movimientos")
	userID := flag.String("user", "import", "usuario registrado en created_by")
	charset := flag.String("charset", "utf-8", "utf-8 | iso-8859-1 | windows-1252")
	sep := flag.String("sep", ",", "separador de columnas")
	outPath := flag.String("out", "movimientos_importados.sql", "script SQL de salida")
	apply := flag.Bool("apply", false, "insertar directamente en PostgreSQL")
	costing := flag.String("costing", "", "modo de costeo para el resumen (moving_average | legacy)")
	flag.Parse()

	log := logger.New(logger.Config{Env: "development", Level: "info"})

	if *file == "" || *companyID == "" {
		fmt.Fprintln(os.Stderr, "uso: import_movements -file <csv> -company <id> [-apply]")
		os.Exit(2)
	}
	separator, err := parseSeparator(*sep)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	mode, err := inventory.ParseCostingMode(*costing)
	if err != nil {
		log.Fatal().Err(err).Msg("modo de costeo")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	movements, err := parseMovements(f, importOptions{
		CompanyID: *companyID,
		UserID:    *userID,
		Charset:   *charset,
		Separator: separator,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}

	balances, err := inventory.ComputeBalances(entity.Records(movements), inventory.BalanceFilter{}, inventory.WithCostingMode(mode))
	if err != nil {
		log.Fatal().Err(err).Msg("validar movimientos")
	}
	printSummary(os.Stdout, len(movements), balances)

	if *apply {
		if err := applyToDB(context.Background(), movements); err != nil {
			log.Fatal().Err(err).Msg("insertar movimientos")
		}
		log.Info().Int("movimientos", len(movements)).Msg("importación aplicada")
		return
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Msg("crear script SQL")
	}
	defer out.Close()
	if err := writeSQL(out, movements); err != nil {
		log.Fatal().Err(err).Msg("escribir script SQL")
	}
	log.Info().Str("archivo", *outPath).Int("movimientos", len(movements)).Msg("script generado")
}

func applyToDB(ctx context.Context, movements []*entity.InventoryMovement) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	return postgres.NewTxRunner(pool).Run(ctx, func(movRepo repository.InventoryMovementRepository, _ repository.ProductRepository) error {
		for _, m := range movements {
			if err := movRepo.Create(ctx, m); err != nil {
				return fmt.Errorf("movimiento %s: %w", m.Reference, err)
			}
		}
		return nil
	})
}

func printSummary(w io.Writer, count int, balances []inventory.StockBalance) {
	total := decimal.Zero
	fmt.Fprintf(w, "Movimientos leídos: %d\n", count)
	fmt.Fprintf(w, "%-38s %-38s %-16s %14s %14s\n", "BODEGA", "PRODUCTO", "LOTE", "CANTIDAD", "VALOR")
	for _, b := range balances {
		fmt.Fprintf(w, "%-38s %-38s %-16s %14s %14s\n",
			b.WarehouseID, b.ProductID, b.LotID, b.Quantity.StringFixed(3), b.TotalValue.StringFixed(2))
		total = total.Add(b.TotalValue)
	}
	fmt.Fprintf(w, "Saldos: %d   Valor total: %s\n", len(balances), total.StringFixed(2))
}

// writeSQL genera un INSERT por movimiento dentro de una transacción.
func writeSQL(w io.Writer, movements []*entity.InventoryMovement) error {
	var b strings.Builder
	b.WriteString("-- Movimientos importados desde el sistema anterior\n")
	fmt.Fprintf(&b, "-- Generado %s\n\nBEGIN;\n\n", time.Now().Format(time.RFC3339))
	for _, m := range movements {
		fmt.Fprintf(&b,
			"INSERT INTO inventory_movements (id, company_id, transaction_id, warehouse_id, product_id, lot_id, kind, quantity, unit_cost, total_cost, expiry_date, reference, occurred_at, created_at, created_by)\n"+
				"VALUES ('%s', '%s', '%s', '%s', '%s', %s, '%s', %s, %s, %s, %s, %s, '%s', '%s', %s);\n",
			m.ID, sqlEscape(m.CompanyID), m.TransactionID, sqlEscape(m.WarehouseID), sqlEscape(m.ProductID),
			sqlNullable(m.LotID), m.Kind, m.Quantity.String(), m.UnitCost.String(), sqlDecimal(m.TotalCost),
			sqlDate(m.ExpiryDate), sqlNullable(m.Reference), m.OccurredAt.Format(time.RFC3339),
			m.CreatedAt.Format(time.RFC3339), sqlNullable(m.CreatedBy),
		)
	}
	b.WriteString("\nCOMMIT;\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func sqlEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func sqlNullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + sqlEscape(s) + "'"
}

func sqlDecimal(d *decimal.Decimal) string {
	if d == nil {
		return "NULL"
	}
	return d.String()
}

func sqlDate(t *time.Time) string {
	if t == nil {
		return "NULL"
	}
	return "'" + t.Format("2006-01-02") + "'"
}
