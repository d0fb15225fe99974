package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidParameter is returned for non-positive periods, counts or prices.
var ErrInvalidParameter = errors.New("invalid parameter")

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the bar has positive prices, a non-negative volume and
// low <= min(open, close) <= max(open, close) <= high.
func (b OHLCV) Valid() bool {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 || b.Volume < 0 {
		return false
	}
	return b.Low <= math.Min(b.Open, b.Close) && math.Max(b.Open, b.Close) <= b.High
}

// ValidateSeries checks that every bar is Valid and that bar times are
// strictly increasing.
func ValidateSeries(bars []OHLCV) error {
	for i, b := range bars {
		if !b.Valid() || math.IsInf(b.High, 0) || math.IsInf(b.Volume, 0) {
			return fmt.Errorf("%w: bar %d (%s) has inconsistent prices or volume", ErrInvalidParameter, i, b.Time.Format("2006-01-02"))
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) is not after bar %d", ErrInvalidParameter, i, b.Time.Format("2006-01-02"), i-1)
		}
	}
	return nil
}

// Closes extracts the close prices of bars.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the traded volume of bars.
func Volumes(bars []OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}

// CloneBars returns an independent copy of bars.
func CloneBars(bars []OHLCV) []OHLCV {
	if bars == nil {
		return nil
	}
	out := make([]OHLCV, len(bars))
	copy(out, bars)
	return out
}
