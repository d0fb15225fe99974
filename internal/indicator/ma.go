package indicator

import (
	"fmt"

	"MarketCharts/internal/model"
)

// SMA computes the simple moving average of values over period. Index i is
// defined once i >= period-1; a series shorter than period is all undefined.
func SMA(values []float64, period int) (model.Line, error) {
	if err := checkPeriod("sma", period); err != nil {
		return nil, err
	}
	out := model.NewLine(len(values))
	if len(values) < period {
		return out, nil
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = model.Defined(sum / float64(period))
	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		out[i] = model.Defined(sum / float64(period))
	}
	return out, nil
}

// EMA computes the exponential moving average of values. The first value is
// the SMA of the first period values, placed at period-1; after that
// EMA[i] = (v[i]-EMA[i-1])*2/(period+1) + EMA[i-1].
func EMA(values []float64, period int) (model.Line, error) {
	if err := checkPeriod("ema", period); err != nil {
		return nil, err
	}
	return emaFrom(values, 0, period), nil
}

// emaFrom runs the EMA recurrence over values[start:], leaving every index
// before start+period-1 undefined. The output has len(values) entries.
func emaFrom(values []float64, start, period int) model.Line {
	out := model.NewLine(len(values))
	if start < 0 || len(values)-start < period {
		return out
	}
	seed := 0.0
	for i := start; i < start+period; i++ {
		seed += values[i]
	}
	prev := seed / float64(period)
	out[start+period-1] = model.Defined(prev)

	k := 2.0 / float64(period+1)
	for i := start + period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = model.Defined(prev)
	}
	return out
}

func checkPeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("%w: %s period %d must be positive", ErrInvalidParameter, name, period)
	}
	return nil
}
