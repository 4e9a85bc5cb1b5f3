package worker

import (
	"context"
	"fmt"
	"time"

	"alpha-ledger/config"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/internal/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Worker runs the scheduled jobs: daily vault yield accrual and the
// overdue-loan default sweep. Both jobs are idempotent per period, so
// restarts and overlapping runs are safe.
type Worker struct {
	scheduler  gocron.Scheduler
	vaultSvc   ports.VaultService
	lendingSvc ports.LendingService
	cfg        config.WorkerConfig
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// New creates a Worker with its scheduler. Call Start to begin.
func New(
	vaultSvc ports.VaultService,
	lendingSvc ports.LendingService,
	cfg config.WorkerConfig,
	m *metrics.Metrics,
	log zerolog.Logger,
) (*Worker, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	return &Worker{
		scheduler:  sched,
		vaultSvc:   vaultSvc,
		lendingSvc: lendingSvc,
		cfg:        cfg,
		metrics:    m,
		log:        log,
	}, nil
}

// Start registers and launches the jobs.
func (w *Worker) Start() error {
	if _, err := w.scheduler.NewJob(
		gocron.DurationJob(w.cfg.YieldInterval),
		gocron.NewTask(w.runYield),
	); err != nil {
		return fmt.Errorf("scheduling yield job: %w", err)
	}

	if _, err := w.scheduler.NewJob(
		gocron.DurationJob(w.cfg.SweepInterval),
		gocron.NewTask(w.runSweep),
	); err != nil {
		return fmt.Errorf("scheduling sweep job: %w", err)
	}

	w.scheduler.Start()
	w.log.Info().
		Dur("yield_interval", w.cfg.YieldInterval).
		Dur("sweep_interval", w.cfg.SweepInterval).
		Msg("worker started")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (w *Worker) Stop() error {
	return w.scheduler.Shutdown()
}

// runYield credits daily yield. The per-vault last_yield_on watermark
// makes repeated runs within one calendar day no-ops, so the job can
// fire hourly and still credit exactly once per day.
func (w *Worker) runYield() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	credited, err := w.vaultSvc.AccrueYield(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error().Err(err).Msg("yield accrual job failed")
		return
	}
	if credited > 0 {
		if w.metrics != nil {
			w.metrics.VaultsAccrued.Add(float64(credited))
		}
		w.log.Info().Int("vaults_credited", credited).Msg("yield accrual completed")
	}
}

// runSweep defaults overdue loans.
func (w *Worker) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	defaulted, err := w.lendingSvc.SweepDefaults(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error().Err(err).Msg("default sweep job failed")
		return
	}
	if defaulted > 0 {
		if w.metrics != nil {
			w.metrics.LoansDefaulted.Add(float64(defaulted))
		}
		w.log.Warn().Int("loans_defaulted", defaulted).Msg("default sweep completed")
	}
}
