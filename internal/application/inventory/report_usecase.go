package inventory

import (
	"context"
	"fmt"
)

// ReportUseCase exporta la valorización del inventario a XLSX y PDF.
type ReportUseCase struct {
	balances *BalanceUseCase
	xlsx     ValuationExporter
	pdf      ValuationPDFGenerator
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(balances *BalanceUseCase, xlsx ValuationExporter, pdf ValuationPDFGenerator) *ReportUseCase {
	return &ReportUseCase{balances: balances, xlsx: xlsx, pdf: pdf}
}

// ValuationXLSX hoja de cálculo con el detalle de saldos y el resumen por bodega.
func (uc *ReportUseCase) ValuationXLSX(ctx context.Context, companyID string) ([]byte, error) {
	report, err := uc.balances.ValuationReport(ctx, companyID)
	if err != nil {
		return nil, err
	}
	data, err := uc.xlsx.BalancesXLSX(*report)
	if err != nil {
		return nil, fmt.Errorf("generar xlsx: %w", err)
	}
	return data, nil
}

// ValuationPDF informe PDF de valorización.
func (uc *ReportUseCase) ValuationPDF(ctx context.Context, companyID string) ([]byte, error) {
	report, err := uc.balances.ValuationReport(ctx, companyID)
	if err != nil {
		return nil, err
	}
	data, err := uc.pdf.ValuationPDF(*report)
	if err != nil {
		return nil, fmt.Errorf("generar pdf: %w", err)
	}
	return data, nil
}
