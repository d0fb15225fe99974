package chart

import (
	"math"

	"MarketCharts/internal/model"
)

// Summary is the price header shown above a chart.
type Summary struct {
	Last      float64 `json:"last"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Position  float64 `json:"position"` // last close within [low, high], 0.0 ~ 1.0
	Volume    float64 `json:"volume"`   // last bar
}

// Summarize scans the visible bars. An empty slice gives a zero Summary.
func Summarize(bars []model.OHLCV) Summary {
	if len(bars) == 0 {
		return Summary{}
	}
	n := len(bars)
	s := Summary{Last: bars[n-1].Close, Volume: bars[n-1].Volume}
	if n > 1 && bars[n-2].Close != 0 {
		prev := bars[n-2].Close
		s.Change = s.Last - prev
		s.ChangePct = s.Change / prev * 100
	}

	s.High = math.Inf(-1)
	s.Low = math.Inf(1)
	for _, b := range bars {
		if b.High > s.High {
			s.High = b.High
		}
		if b.Low < s.Low {
			s.Low = b.Low
		}
	}
	s.Position = rangePosition(s.Last, s.High, s.Low)
	return s
}

func rangePosition(current, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}
