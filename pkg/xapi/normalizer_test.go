package xapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtb/pkg/core"
)

func TestNormalizeRates(t *testing.T) {
	history := &core.RateHistory{
		Digits: 2,
		RateInfos: []core.RateInfo{
			{
				Ctm:   core.UnixMilli(1389362640000),
				Open:  core.MustDecimal("150000"),
				Close: core.MustDecimal("50"),
				High:  core.MustDecimal("120"),
				Low:   core.MustDecimal("-30"),
				Vol:   core.MustDecimal("12.5"),
			},
			{
				Ctm:   core.UnixMilli(1389362700000),
				Open:  core.MustDecimal("150050"),
				Close: core.MustDecimal("0"),
				High:  core.MustDecimal("0"),
				Low:   core.MustDecimal("0"),
				Vol:   core.MustDecimal("0"),
			},
		},
	}

	rates, err := NormalizeRates(history)
	require.NoError(t, err)
	require.Len(t, rates, 2)

	first := rates[0]
	assert.Equal(t, "1500.00", first.Open.Text('f'))
	assert.Equal(t, "1500.50", first.Close.Text('f'))
	assert.Equal(t, "1501.20", first.High.Text('f'))
	assert.Equal(t, "1499.70", first.Low.Text('f'))
	assert.True(t, first.Vol.Equal(core.MustDecimal("12.5")), "volume is not scaled")
	assert.Equal(t, int64(1389362640000), first.Ctm.UnixMilli())

	second := rates[1]
	assert.True(t, second.Open.Equal(core.MustDecimal("1500.5")))
	assert.True(t, second.Close.Equal(second.Open))

	// normalized in place
	assert.Equal(t, "1500.00", history.RateInfos[0].Open.Text('f'))
	assert.Equal(t, 0, history.Digits)
}

func TestNormalizeRates_AppliedOnce(t *testing.T) {
	history := &core.RateHistory{
		Digits:    5,
		RateInfos: []core.RateInfo{{Open: core.MustDecimal("110000"), Close: core.MustDecimal("-12")}},
	}

	_, err := NormalizeRates(history)
	require.NoError(t, err)
	rates, err := NormalizeRates(history)
	require.NoError(t, err)

	assert.True(t, rates[0].Open.Equal(core.MustDecimal("1.1")))
	assert.True(t, rates[0].Close.Equal(core.MustDecimal("1.09988")))
}

func TestNormalizeRates_ZeroDigits(t *testing.T) {
	history := &core.RateHistory{
		RateInfos: []core.RateInfo{{Open: core.MustDecimal("4100"), Close: core.MustDecimal("5"), High: core.MustDecimal("7"), Low: core.MustDecimal("-2")}},
	}

	rates, err := NormalizeRates(history)
	require.NoError(t, err)
	assert.True(t, rates[0].High.Equal(core.MustDecimal("4107")))
	assert.True(t, rates[0].Low.Equal(core.MustDecimal("4098")))
}

func TestNormalizeRates_Empty(t *testing.T) {
	rates, err := NormalizeRates(&core.RateHistory{Digits: 2})
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestNormalizeRates_NegativeDigits(t *testing.T) {
	_, err := NormalizeRates(&core.RateHistory{Digits: -1})
	assert.Error(t, err)
}
