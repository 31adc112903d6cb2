package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtb/pkg/core"
)

func candle(ms int64, open, high, low, closeP string) core.RateInfo {
	return core.RateInfo{
		Ctm:       core.UnixMilli(ms),
		CtmString: time.UnixMilli(ms).UTC().Format(time.RFC3339),
		Open:      core.MustDecimal(open),
		High:      core.MustDecimal(high),
		Low:       core.MustDecimal(low),
		Close:     core.MustDecimal(closeP),
		Vol:       core.MustDecimal("12.5"),
	}
}

func openTestStore(t *testing.T) *CandleStore {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "candles.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCandleStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rates := []core.RateInfo{
		candle(1700000060000, "1500.50", "1502.00", "1499.10", "1501.20"),
		candle(1700000000000, "1500.00", "1501.20", "1499.70", "1500.50"),
	}
	require.NoError(t, s.SaveCandles(ctx, "EURUSD", core.PeriodM1, rates))

	got, err := s.Candles(ctx, "EURUSD", core.PeriodM1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1700000000000), got[0].Ctm.UnixMilli())
	assert.True(t, got[0].Open.Equal(core.MustDecimal("1500.00")))
	assert.Equal(t, "1500.00", got[0].Open.Text('f'))
	assert.True(t, got[1].Close.Equal(core.MustDecimal("1501.20")))
	assert.Equal(t, rates[0].CtmString, got[1].CtmString)
	assert.True(t, got[1].Vol.Equal(core.MustDecimal("12.5")))
}

func TestCandleStore_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "EURUSD", core.PeriodM5, []core.RateInfo{
		candle(1700000000000, "1.1", "1.2", "1.0", "1.15"),
	}))
	require.NoError(t, s.SaveCandles(ctx, "EURUSD", core.PeriodM5, []core.RateInfo{
		candle(1700000000000, "1.1", "1.3", "1.0", "1.25"),
	}))

	got, err := s.Candles(ctx, "EURUSD", core.PeriodM5, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Close.Equal(core.MustDecimal("1.25")))
	assert.True(t, got[0].High.Equal(core.MustDecimal("1.3")))
}

func TestCandleStore_Filters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := int64(1700000000000)
	var rates []core.RateInfo
	for i := range 5 {
		rates = append(rates, candle(base+int64(i)*60000, "1", "1", "1", "1"))
	}
	require.NoError(t, s.SaveCandles(ctx, "EURUSD", core.PeriodM1, rates))
	require.NoError(t, s.SaveCandles(ctx, "GBPUSD", core.PeriodM1, rates[:2]))
	require.NoError(t, s.SaveCandles(ctx, "EURUSD", core.PeriodH1, rates[:1]))

	tests := []struct {
		name   string
		symbol string
		period core.Period
		from   time.Time
		to     time.Time
		want   int
	}{
		{"all EURUSD M1", "EURUSD", core.PeriodM1, time.Time{}, time.Time{}, 5},
		{"other symbol", "GBPUSD", core.PeriodM1, time.Time{}, time.Time{}, 2},
		{"other period", "EURUSD", core.PeriodH1, time.Time{}, time.Time{}, 1},
		{"from is inclusive", "EURUSD", core.PeriodM1, time.UnixMilli(base + 120000), time.Time{}, 3},
		{"to is exclusive", "EURUSD", core.PeriodM1, time.Time{}, time.UnixMilli(base + 120000), 2},
		{"unknown symbol", "USDJPY", core.PeriodM1, time.Time{}, time.Time{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Candles(ctx, tt.symbol, tt.period, tt.from, tt.to)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestCandleStore_SaveEmpty(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.SaveCandles(context.Background(), "EURUSD", core.PeriodM1, nil))
}

func TestCandleStore_Memory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveCandles(ctx, "US500", core.PeriodD1, []core.RateInfo{
		candle(1700000000000, "4500.25", "4510", "4490", "4505.75"),
	}))
	got, err := s.Candles(ctx, "US500", core.PeriodD1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
