package service

import (
	"context"
	"testing"

	"alpha-ledger/internal/core/ports"
	"alpha-ledger/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReserveMonitor_Snapshot_Bands(t *testing.T) {
	tests := []struct {
		name        string
		reserves    int64
		obligations int64
		wantRatio   string
		wantBand    ports.ReserveBand
		wantHalted  bool
	}{
		{"healthy", 120_000, 100_000, "120", ports.ReserveBandHealthy, false},
		{"healthy boundary", 115_000, 100_000, "115", ports.ReserveBandHealthy, false},
		{"warning", 110_000, 100_000, "110", ports.ReserveBandWarning, false},
		{"warning boundary", 105_000, 100_000, "105", ports.ReserveBandWarning, false},
		{"critical", 102_000, 100_000, "102", ports.ReserveBandCritical, false},
		{"critical boundary", 100_000, 100_000, "100", ports.ReserveBandCritical, false},
		{"circuit breaker", 99_999, 100_000, "100", ports.ReserveBandCircuitBreaker, true},
		{"deeply underwater", 50_000, 100_000, "50", ports.ReserveBandCircuitBreaker, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockReserveRepository(ctrl)
			ctx := context.Background()
			repo.EXPECT().TotalVaultReserves(ctx).Return(tt.reserves, nil)
			repo.EXPECT().TotalActiveObligations(ctx).Return(tt.obligations, nil)

			monitor := NewReserveMonitor(repo, zerolog.Nop())
			status, err := monitor.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.reserves, status.Reserves)
			assert.Equal(t, tt.obligations, status.Obligations)
			assert.Equal(t, tt.wantBand, status.Band)
			assert.Equal(t, tt.wantHalted, status.LendingHalted)

			if tt.name == "circuit breaker" {
				// 99999/100000 = 99.999, rounded to 100.00 but still below par
				assert.Equal(t, "100", status.Ratio.String())
			} else {
				assert.Equal(t, tt.wantRatio, status.Ratio.String())
			}
		})
	}
}

func TestReserveMonitor_Snapshot_NoObligations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockReserveRepository(ctrl)
	ctx := context.Background()
	repo.EXPECT().TotalVaultReserves(ctx).Return(int64(5_000), nil)
	repo.EXPECT().TotalActiveObligations(ctx).Return(int64(0), nil)

	monitor := NewReserveMonitor(repo, zerolog.Nop())
	status, err := monitor.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "200", status.Ratio.String())
	assert.Equal(t, ports.ReserveBandHealthy, status.Band)
	assert.False(t, status.LendingHalted)
}

func TestReserveMonitor_Snapshot_NeverCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockReserveRepository(ctrl)
	ctx := context.Background()
	// Two snapshots must hit the repository twice.
	repo.EXPECT().TotalVaultReserves(ctx).Return(int64(120_000), nil).Times(2)
	repo.EXPECT().TotalActiveObligations(ctx).Return(int64(100_000), nil).Times(2)

	monitor := NewReserveMonitor(repo, zerolog.Nop())
	_, err := monitor.Snapshot(ctx)
	require.NoError(t, err)
	_, err = monitor.Snapshot(ctx)
	require.NoError(t, err)
}
