package inventory

import (
	"fmt"
	"time"
)

// CostingMode regla de costeo aplicada a salidas y ajustes a la baja.
type CostingMode string

const (
	// CostingMovingAverage promedio ponderado móvil: las salidas y ajustes a la baja
	// descargan costo acumulado a costo promedio vigente, el promedio no cambia.
	CostingMovingAverage CostingMode = "moving_average"
	// CostingLegacy reproduce el kardex anterior: las salidas solo restan cantidad
	// y el costo acumulado se conserva completo.
	CostingLegacy CostingMode = "legacy"
)

// ParseCostingMode valida el modo leído de configuración. Vacío = promedio móvil.
func ParseCostingMode(s string) (CostingMode, error) {
	switch CostingMode(s) {
	case "", CostingMovingAverage:
		return CostingMovingAverage, nil
	case CostingLegacy:
		return CostingLegacy, nil
	}
	return "", fmt.Errorf("modo de costeo desconocido %q", s)
}

type settings struct {
	costing       CostingMode
	expiredCutoff time.Time
}

func newSettings(opts []Option) settings {
	s := settings{costing: CostingMovingAverage}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option ajusta el cálculo de saldos y la selección de lotes.
type Option func(*settings)

// WithCostingMode fija la regla de costeo.
func WithCostingMode(mode CostingMode) Option {
	return func(s *settings) {
		if mode != "" {
			s.costing = mode
		}
	}
}

// WithExpiredCutoff excluye de la selección los lotes cuyo vencimiento no es posterior a t.
// Solo afecta a SelectLots; los saldos siguen reportando lotes vencidos.
func WithExpiredCutoff(t time.Time) Option {
	return func(s *settings) { s.expiredCutoff = t }
}
