package indicator

import "MarketCharts/internal/model"

// RSI computes the Wilder-smoothed relative strength index of closes.
//
// The first value sits at index period, seeded by the plain mean gain and
// loss of the first period changes. Each later bar applies
// avg = (avg*(period-1) + x) / period. A zero average loss yields 100.
func RSI(closes []float64, period int) (model.Line, error) {
	if err := checkPeriod("rsi", period); err != nil {
		return nil, err
	}
	out := model.NewLine(len(closes))
	if len(closes) < period+1 {
		return out, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p
	out[period] = model.Defined(rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = model.Defined(rsiValue(avgGain, avgLoss))
	}
	return out, nil
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
