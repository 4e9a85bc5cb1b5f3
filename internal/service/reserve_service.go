package service

import (
	"context"
	"fmt"

	"alpha-ledger/internal/core/ports"
	"alpha-ledger/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Band thresholds, in percent.
var (
	reserveHealthy  = decimal.NewFromInt(115)
	reserveWarning  = decimal.NewFromInt(105)
	reserveCritical = decimal.NewFromInt(100)

	// Reported ratio when there are no outstanding obligations.
	reserveIdleRatio = decimal.NewFromInt(200)
)

// ReserveMonitorImpl implements ports.ReserveMonitor. Snapshots are
// always recomputed from the database; reserves and obligations move on
// every repayment, default, deposit, and withdrawal, so a cached value
// could let an offer through while the system is under-reserved.
type ReserveMonitorImpl struct {
	reserveRepo ports.ReserveRepository
	gauge       prometheus.Gauge
	log         zerolog.Logger
}

// NewReserveMonitor creates a new ReserveMonitorImpl.
func NewReserveMonitor(reserveRepo ports.ReserveRepository, log zerolog.Logger) *ReserveMonitorImpl {
	return &ReserveMonitorImpl{reserveRepo: reserveRepo, log: log}
}

// SetGauge exports the ratio to a prometheus gauge on every snapshot.
func (s *ReserveMonitorImpl) SetGauge(g prometheus.Gauge) {
	s.gauge = g
}

// Snapshot computes the current reserve ratio and its health band.
// ratio = total vault reserves / total active-loan repayment * 100.
func (s *ReserveMonitorImpl) Snapshot(ctx context.Context) (*ports.ReserveStatus, error) {
	reserves, err := s.reserveRepo.TotalVaultReserves(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("total reserves: %w", err))
	}

	obligations, err := s.reserveRepo.TotalActiveObligations(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("total obligations: %w", err))
	}

	// Classify on the exact ratio, then round for reporting. Rounding
	// first could show 100.00 for a system that is actually below par.
	var ratio decimal.Decimal
	if obligations == 0 {
		ratio = reserveIdleRatio
	} else {
		ratio = decimal.NewFromInt(reserves).
			Div(decimal.NewFromInt(obligations)).
			Mul(decimal.NewFromInt(100))
	}

	band := classifyReserveBand(ratio)
	ratio = ratio.Round(2)

	if s.gauge != nil {
		f, _ := ratio.Float64()
		s.gauge.Set(f)
	}

	status := &ports.ReserveStatus{
		Reserves:      reserves,
		Obligations:   obligations,
		Ratio:         ratio,
		Band:          band,
		LendingHalted: band == ports.ReserveBandCircuitBreaker,
	}

	if status.LendingHalted {
		s.log.Warn().
			Int64("reserves", reserves).
			Int64("obligations", obligations).
			Str("ratio", ratio.String()).
			Msg("reserve circuit breaker active")
	}

	return status, nil
}

func classifyReserveBand(ratio decimal.Decimal) ports.ReserveBand {
	switch {
	case ratio.GreaterThanOrEqual(reserveHealthy):
		return ports.ReserveBandHealthy
	case ratio.GreaterThanOrEqual(reserveWarning):
		return ports.ReserveBandWarning
	case ratio.GreaterThanOrEqual(reserveCritical):
		return ports.ReserveBandCritical
	default:
		return ports.ReserveBandCircuitBreaker
	}
}
