package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/travel-engine/config"
	"github.com/warp/travel-engine/travel"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     [2]string
		wantErr  bool
	}{
		{"single day", "2025-03-10", "", [2]string{"2025-03-10", "2025-03-10"}, false},
		{"range", "2025-03-01", "2025-03-31", [2]string{"2025-03-01", "2025-03-31"}, false},
		{"inverted", "2025-03-31", "2025-03-01", [2]string{}, true},
		{"garbage", "March", "", [2]string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rangeFlags.from, rangeFlags.to = tt.from, tt.to
			from, to, err := parseRange()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, [2]string{from.String(), to.String()})
		})
	}
}

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg = config.DefaultConfig()
	t.Cleanup(func() { cfg = nil })

	require.NoError(t, serveCmd.ParseFlags([]string{"--db", "/tmp/t.db", "--port", "9090"}))
	applyFlags(serveCmd)

	assert.Equal(t, "/tmp/t.db", cfg.Database.DSN)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver, "unset flag keeps config value")
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestPrintCalculation(t *testing.T) {
	var buf bytes.Buffer
	printCalculation(&buf, &travel.Calculation{
		ID:                  "calc-1",
		ShiftID:             "shift-1300",
		SequenceNumber:      2,
		DistanceKm:          decimal.NewFromInt(120),
		TravelMinutes:       95,
		ApplicableBand:      travel.BandMMM4,
		MaxTravelMinutes:    60,
		BillableTimeMinutes: 60,
		BillableAmount:      decimal.RequireFromString("102.00"),
		PayableAmount:       decimal.RequireFromString("114.00"),
		VerificationStatus:  travel.VerificationManualReview,
		VerificationFlags:   []string{travel.FlagExceedsTimeLimit, travel.FlagExceedsDistanceCeiling},
	})

	out := buf.String()
	assert.Contains(t, out, "shift-1300 (#2 of the day, first=false)")
	assert.Contains(t, out, "120.00 km, 95 min, MMM4")
	assert.Contains(t, out, "102.00 (60 of 60 min)")
	assert.Contains(t, out, "manual_review [exceeds_time_limit, exceeds_distance_ceiling]")
}
