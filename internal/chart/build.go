package chart

import (
	"fmt"

	"MarketCharts/internal/indicator"
	"MarketCharts/internal/model"
)

// View is everything a chart page needs for one symbol.
type View struct {
	Interval Interval
	Summary  Summary
	Lines    []string
	Rows     []model.Row
}

// Build resamples daily bars for the interval, computes indicators over the
// whole history and only then cuts the visible window, so warm-up does not
// eat into what is shown.
func Build(daily []model.OHLCV, s Settings) (*View, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	bars := daily
	if s.Interval == Interval1W {
		bars = WeeklyBars(daily)
	}

	res, err := indicator.Compute(bars, s.Requests())
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	if w := s.Window(); w > 0 && len(res.Bars) > w {
		res = res.Slice(len(res.Bars) - w)
	}
	return &View{
		Interval: s.Interval,
		Summary:  Summarize(res.Bars),
		Lines:    res.Order,
		Rows:     res.Rows(),
	}, nil
}
