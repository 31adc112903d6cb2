package xapi

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"xtb/pkg/core"
)

// NormalizeRates converts raw candles to absolute prices in place and returns them.
//
// The server sends open as price*10^digits and close, high and low as deltas
// from open on the same scale. Scaling shifts the decimal exponent and the
// deltas are added exactly, so no precision is lost.
func NormalizeRates(history *core.RateHistory) ([]core.RateInfo, error) {
	if history.Digits < 0 {
		return nil, fmt.Errorf("negative digits %d", history.Digits)
	}
	digits := int32(history.Digits)

	rates := history.RateInfos
	for i := range rates {
		r := &rates[i]
		open := rescale(&r.Open.Decimal, digits)

		var err error
		if r.Close.Decimal, err = offset(&open, &r.Close.Decimal, digits); err != nil {
			return nil, fmt.Errorf("candle %d close: %w", i, err)
		}
		if r.High.Decimal, err = offset(&open, &r.High.Decimal, digits); err != nil {
			return nil, fmt.Errorf("candle %d high: %w", i, err)
		}
		if r.Low.Decimal, err = offset(&open, &r.Low.Decimal, digits); err != nil {
			return nil, fmt.Errorf("candle %d low: %w", i, err)
		}
		r.Open.Decimal = open
	}
	history.Digits = 0
	return rates, nil
}

func rescale(d *apd.Decimal, digits int32) apd.Decimal {
	var out apd.Decimal
	out.Set(d)
	out.Exponent -= digits
	return out
}

func offset(open, delta *apd.Decimal, digits int32) (apd.Decimal, error) {
	scaled := rescale(delta, digits)
	var out apd.Decimal
	if _, err := apd.BaseContext.Add(&out, open, &scaled); err != nil {
		return apd.Decimal{}, err
	}
	return out, nil
}
