// Package generator produces synthetic daily OHLCV series for demos and tests.
//
// Values are pseudo-random; only the shape is deterministic. Indicator values
// are never produced here: route generated bars through the indicator engine.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"MarketCharts/internal/model"

	"github.com/shopspring/decimal"
)

const (
	DefaultBasePrice  = 28000.0
	DefaultVolatility = 0.02
	DefaultPrecision  = 2

	minVolume   = 500000
	volumeRange = 10000000
)

// ErrInvalidParameter aliases the shared sentinel so callers can match either.
var ErrInvalidParameter = model.ErrInvalidParameter

// Options tunes a generated series. Zero fields take defaults.
type Options struct {
	BasePrice  float64   // starting close, must be > 0 when set
	Volatility float64   // max fractional move per bar, in (0, 1)
	Start      time.Time // first candidate date; zero backdates so the series ends today
	Seed       uint64    // 0 picks a time-based seed
	Precision  int       // decimal places for prices; negative disables rounding
}

// Generate returns n trading-day bars (weekends skipped) starting at Start.
func Generate(n int, opts Options) ([]model.OHLCV, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: bar count %d must be >= 1", ErrInvalidParameter, n)
	}
	if opts.BasePrice < 0 || math.IsNaN(opts.BasePrice) || math.IsInf(opts.BasePrice, 0) {
		return nil, fmt.Errorf("%w: base price %v must be > 0", ErrInvalidParameter, opts.BasePrice)
	}
	if opts.Volatility < 0 || opts.Volatility >= 1 || math.IsNaN(opts.Volatility) {
		return nil, fmt.Errorf("%w: volatility %v must be in (0, 1)", ErrInvalidParameter, opts.Volatility)
	}
	if opts.BasePrice == 0 {
		opts.BasePrice = DefaultBasePrice
	}
	if opts.Volatility == 0 {
		opts.Volatility = DefaultVolatility
	}
	if opts.Precision == 0 {
		opts.Precision = DefaultPrecision
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	day := opts.Start
	if day.IsZero() {
		day = backdate(time.Now().UTC(), n)
	}
	day = truncateDay(day)

	bars := make([]model.OHLCV, 0, n)
	price := opts.BasePrice
	for len(bars) < n {
		if isWeekend(day) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		open := price
		// Symmetric move in [-v/2, v/2), as in the demo chart data.
		change := (rng.Float64() - 0.5) * opts.Volatility
		close := open * (1 + change)
		price = close

		wick := open * opts.Volatility
		high := math.Max(open, close) + rng.Float64()*wick
		low := math.Min(open, close) - rng.Float64()*wick
		if low <= 0 {
			low = math.Min(open, close) * (1 - rng.Float64()*opts.Volatility)
		}

		bar := model.OHLCV{
			Time:   day,
			Open:   roundPrice(open, opts.Precision),
			High:   roundPrice(high, opts.Precision),
			Low:    roundPrice(low, opts.Precision),
			Close:  roundPrice(close, opts.Precision),
			Volume: float64(minVolume + rng.IntN(volumeRange)),
		}
		bars = append(bars, clamp(bar))
		day = day.AddDate(0, 0, 1)
	}
	return bars, nil
}

// roundPrice rounds half away from zero to places decimals. A price that would
// round to zero is left as is, which keeps the mapping monotone and positive.
func roundPrice(p float64, places int) float64 {
	if places < 0 {
		return p
	}
	r := decimal.NewFromFloat(p).Round(int32(places)).InexactFloat64()
	if r <= 0 {
		return p
	}
	return r
}

// clamp widens high/low so the OHLC invariant holds after rounding.
func clamp(b model.OHLCV) model.OHLCV {
	b.High = math.Max(b.High, math.Max(b.Open, b.Close))
	b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
	return b
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// backdate walks back from end until n trading days fit up to and including end.
func backdate(end time.Time, n int) time.Time {
	day := truncateDay(end)
	count := 0
	for {
		if !isWeekend(day) {
			count++
			if count == n {
				return day
			}
		}
		day = day.AddDate(0, 0, -1)
	}
}
