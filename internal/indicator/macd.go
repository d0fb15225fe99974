package indicator

import (
	"fmt"

	"MarketCharts/internal/model"
)

// MACDResult holds the three aligned MACD lines.
type MACDResult struct {
	MACD       model.Line
	SignalLine model.Line
	Histogram  model.Line
}

// MACD computes EMA(fast)-EMA(slow) over closes, its EMA(signal) signal line
// and the histogram macd-signal. The macd line is defined from slow-1, the
// signal line and histogram from slow+signal-2.
func MACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	for _, p := range []struct {
		name   string
		period int
	}{{"macd fast", fast}, {"macd slow", slow}, {"macd signal", signal}} {
		if err := checkPeriod(p.name, p.period); err != nil {
			return nil, err
		}
	}
	if fast >= slow {
		return nil, fmt.Errorf("%w: macd fast period %d must be below slow period %d", ErrInvalidParameter, fast, slow)
	}

	n := len(closes)
	res := &MACDResult{
		MACD:       model.NewLine(n),
		SignalLine: model.NewLine(n),
		Histogram:  model.NewLine(n),
	}
	fastEMA := emaFrom(closes, 0, fast)
	slowEMA := emaFrom(closes, 0, slow)

	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		f, fok := fastEMA[i].Get()
		s, sok := slowEMA[i].Get()
		if fok && sok {
			raw[i] = f - s
			res.MACD[i] = model.Defined(raw[i])
		}
	}

	start := res.MACD.FirstDefined()
	if start < 0 {
		return res, nil
	}
	res.SignalLine = emaFrom(raw, start, signal)
	for i := range res.SignalLine {
		if sig, ok := res.SignalLine[i].Get(); ok {
			res.Histogram[i] = model.Defined(raw[i] - sig)
		}
	}
	return res, nil
}
