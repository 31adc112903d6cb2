package aggregate

import (
	"fmt"
	"slices"
	"time"

	"github.com/cockroachdb/apd/v3"

	"xtb/pkg/core"
)

// Resample merges normalized candles into buckets of the coarser period.
// Input may be unordered; output is sorted by start time. Buckets start at
// multiples of the period since the Unix epoch, so W1 and MN1 are fixed-length
// windows rather than calendar weeks and months.
func Resample(rates []core.RateInfo, period core.Period) ([]core.RateInfo, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid period %d", int(period))
	}
	if len(rates) == 0 {
		return nil, nil
	}

	sorted := slices.Clone(rates)
	slices.SortFunc(sorted, func(a, b core.RateInfo) int {
		return a.Ctm.Time().Compare(b.Ctm.Time())
	})

	width := int64(period) * time.Minute.Milliseconds()
	var out []core.RateInfo
	var bucket int64 = -1

	for i := range sorted {
		r := &sorted[i]
		start := r.Ctm.UnixMilli() / width * width

		if start != bucket || len(out) == 0 {
			bucket = start
			var c core.RateInfo
			c.Ctm = core.UnixMilli(start)
			c.CtmString = c.Ctm.String()
			c.Open.Set(&r.Open.Decimal)
			c.High.Set(&r.High.Decimal)
			c.Low.Set(&r.Low.Decimal)
			c.Close.Set(&r.Close.Decimal)
			c.Vol.Set(&r.Vol.Decimal)
			out = append(out, c)
			continue
		}

		c := &out[len(out)-1]
		if r.High.Cmp(&c.High.Decimal) > 0 {
			c.High.Set(&r.High.Decimal)
		}
		if r.Low.Cmp(&c.Low.Decimal) < 0 {
			c.Low.Set(&r.Low.Decimal)
		}
		c.Close.Set(&r.Close.Decimal)
		var vol apd.Decimal
		if _, err := apd.BaseContext.Add(&vol, &c.Vol.Decimal, &r.Vol.Decimal); err != nil {
			return nil, fmt.Errorf("sum volume: %w", err)
		}
		c.Vol.Set(&vol)
	}

	return out, nil
}

// Stats summarizes a candle series.
type Stats struct {
	// Count is the number of candles.
	Count int `json:"count"`
	// First and Last are the start times of the first and last candle.
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
	// Open is the first open and Close the last close.
	Open  core.Decimal `json:"open"`
	Close core.Decimal `json:"close"`
	High  core.Decimal `json:"high"`
	Low   core.Decimal `json:"low"`
	// Volume is the total volume.
	Volume core.Decimal `json:"volume"`
	// VWAP weights each candle's typical price (high+low+close)/3 by its volume.
	// It is zero when the total volume is zero.
	VWAP core.Decimal `json:"vwap"`
	// Change is Close minus Open.
	Change core.Decimal `json:"change"`
}

var divContext = apd.BaseContext.WithPrecision(34)

// Summarize computes Stats over candles, which must be sorted by start time.
func Summarize(rates []core.RateInfo) (*Stats, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("no candles")
	}

	first, last := rates[0], rates[len(rates)-1]
	s := &Stats{
		Count: len(rates),
		First: first.Ctm.Time(),
		Last:  last.Ctm.Time(),
	}
	s.Open.Set(&first.Open.Decimal)
	s.Close.Set(&last.Close.Decimal)
	s.High.Set(&first.High.Decimal)
	s.Low.Set(&first.Low.Decimal)

	var totalValue, totalVolume apd.Decimal
	three := apd.New(3, 0)

	for i := range rates {
		r := &rates[i]
		if r.High.Cmp(&s.High.Decimal) > 0 {
			s.High.Set(&r.High.Decimal)
		}
		if r.Low.Cmp(&s.Low.Decimal) < 0 {
			s.Low.Set(&r.Low.Decimal)
		}

		var typical, value apd.Decimal
		if _, err := apd.BaseContext.Add(&typical, &r.High.Decimal, &r.Low.Decimal); err != nil {
			return nil, err
		}
		if _, err := apd.BaseContext.Add(&typical, &typical, &r.Close.Decimal); err != nil {
			return nil, err
		}
		if _, err := divContext.Quo(&typical, &typical, three); err != nil {
			return nil, err
		}
		if _, err := apd.BaseContext.Mul(&value, &typical, &r.Vol.Decimal); err != nil {
			return nil, err
		}
		if _, err := apd.BaseContext.Add(&totalValue, &totalValue, &value); err != nil {
			return nil, err
		}
		if _, err := apd.BaseContext.Add(&totalVolume, &totalVolume, &r.Vol.Decimal); err != nil {
			return nil, err
		}
	}

	s.Volume.Set(&totalVolume)
	if !totalVolume.IsZero() {
		if _, err := divContext.Quo(&s.VWAP.Decimal, &totalValue, &totalVolume); err != nil {
			return nil, fmt.Errorf("vwap: %w", err)
		}
		s.VWAP.Reduce(&s.VWAP.Decimal)
	}
	if _, err := apd.BaseContext.Sub(&s.Change.Decimal, &s.Close.Decimal, &s.Open.Decimal); err != nil {
		return nil, err
	}

	return s, nil
}
