// Package indicator derives technical indicator series from OHLCV bars.
//
// Every function is pure: inputs are never modified and every output line has
// exactly one entry per input bar. Entries inside an indicator's warm-up window
// are model.Undefined(), never zero. Short history is not an error; only bad
// parameters are.
package indicator

import (
	"fmt"
	"strconv"
	"strings"

	"MarketCharts/internal/model"
)

// ErrInvalidParameter aliases the shared sentinel so callers can match either.
var ErrInvalidParameter = model.ErrInvalidParameter

// Kind names an indicator family.
type Kind string

const (
	KindSMA       Kind = "sma"
	KindEMA       Kind = "ema"
	KindRSI       Kind = "rsi"
	KindMACD      Kind = "macd"
	KindVolumeSMA Kind = "volume_sma"
)

// Request asks for one indicator. Period is used by every kind except MACD,
// which uses Fast, Slow and Signal.
type Request struct {
	Kind   Kind
	Period int
	Fast   int
	Slow   int
	Signal int
}

// SMAOf requests a simple moving average of closes.
func SMAOf(period int) Request { return Request{Kind: KindSMA, Period: period} }

// EMAOf requests an SMA-seeded exponential moving average of closes.
func EMAOf(period int) Request { return Request{Kind: KindEMA, Period: period} }

// RSIOf requests a Wilder RSI of closes.
func RSIOf(period int) Request { return Request{Kind: KindRSI, Period: period} }

// VolumeSMAOf requests a simple moving average of volume.
func VolumeSMAOf(period int) Request { return Request{Kind: KindVolumeSMA, Period: period} }

// MACDOf requests the MACD, signal and histogram lines.
func MACDOf(fast, slow, signal int) Request {
	return Request{Kind: KindMACD, Fast: fast, Slow: slow, Signal: signal}
}

// DefaultRequests is the standard chart set: SMA 10/20/50/100/150,
// volume SMA 20, RSI 14 and MACD 12/26/9.
func DefaultRequests() []Request {
	return []Request{
		SMAOf(10), SMAOf(20), SMAOf(50), SMAOf(100), SMAOf(150),
		VolumeSMAOf(20),
		RSIOf(14),
		MACDOf(12, 26, 9),
	}
}

// Validate checks the request parameters.
func (r Request) Validate() error {
	switch r.Kind {
	case KindSMA, KindEMA, KindRSI, KindVolumeSMA:
		return checkPeriod(string(r.Kind), r.Period)
	case KindMACD:
		if r.Fast <= 0 || r.Slow <= 0 || r.Signal <= 0 {
			return fmt.Errorf("%w: macd periods %d/%d/%d must be positive", ErrInvalidParameter, r.Fast, r.Slow, r.Signal)
		}
		if r.Fast >= r.Slow {
			return fmt.Errorf("%w: macd fast period %d must be below slow period %d", ErrInvalidParameter, r.Fast, r.Slow)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown indicator kind %q", ErrInvalidParameter, r.Kind)
	}
}

// Key is the name of the request's output line. MACD also emits
// Key()+"_signal" and Key()+"_histogram".
func (r Request) Key() string {
	if r.Kind == KindMACD {
		return fmt.Sprintf("macd_%d_%d_%d", r.Fast, r.Slow, r.Signal)
	}
	return string(r.Kind) + "_" + strconv.Itoa(r.Period)
}

// Keys lists every line name the request produces.
func (r Request) Keys() []string {
	if r.Kind == KindMACD {
		k := r.Key()
		return []string{k, k + "_signal", k + "_histogram"}
	}
	return []string{r.Key()}
}

// ParseRequest reads "sma:20", "ema:12", "rsi:14", "volume_sma:20" or
// "macd:12,26,9".
func ParseRequest(s string) (Request, error) {
	kind, args, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Request{}, fmt.Errorf("%w: indicator %q missing parameters", ErrInvalidParameter, s)
	}
	nums, err := parseInts(args)
	if err != nil {
		return Request{}, fmt.Errorf("%w: indicator %q: %v", ErrInvalidParameter, s, err)
	}
	var req Request
	switch k := Kind(strings.ToLower(kind)); k {
	case KindMACD:
		if len(nums) != 3 {
			return Request{}, fmt.Errorf("%w: macd needs fast,slow,signal, got %q", ErrInvalidParameter, args)
		}
		req = MACDOf(nums[0], nums[1], nums[2])
	default:
		if len(nums) != 1 {
			return Request{}, fmt.Errorf("%w: %s needs one period, got %q", ErrInvalidParameter, k, args)
		}
		req = Request{Kind: k, Period: nums[0]}
	}
	return req, req.Validate()
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Result holds the computed lines for one series.
type Result struct {
	Bars  []model.OHLCV
	Lines map[string]model.Line
	Order []string // line names in request order
}

// Compute validates every request, then computes each distinct request once.
// The input bars are copied; Result never aliases caller memory.
func Compute(bars []model.OHLCV, reqs []Request) (*Result, error) {
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Bars:  model.CloneBars(bars),
		Lines: make(map[string]model.Line, len(reqs)),
	}
	if res.Bars == nil {
		res.Bars = []model.OHLCV{}
	}
	var closes, volumes []float64
	closesOf := func() []float64 {
		if closes == nil {
			closes = model.Closes(res.Bars)
		}
		return closes
	}

	for _, r := range reqs {
		if _, done := res.Lines[r.Key()]; done {
			continue
		}
		var (
			line model.Line
			err  error
		)
		switch r.Kind {
		case KindSMA:
			line, err = SMA(closesOf(), r.Period)
		case KindEMA:
			line, err = EMA(closesOf(), r.Period)
		case KindRSI:
			line, err = RSI(closesOf(), r.Period)
		case KindVolumeSMA:
			if volumes == nil {
				volumes = model.Volumes(res.Bars)
			}
			line, err = SMA(volumes, r.Period)
		case KindMACD:
			m, merr := MACD(closesOf(), r.Fast, r.Slow, r.Signal)
			if merr != nil {
				return nil, merr
			}
			keys := r.Keys()
			res.add(keys[0], m.MACD)
			res.add(keys[1], m.SignalLine)
			res.add(keys[2], m.Histogram)
			continue
		}
		if err != nil {
			return nil, err
		}
		res.add(r.Key(), line)
	}
	return res, nil
}

func (r *Result) add(key string, line model.Line) {
	r.Lines[key] = line
	r.Order = append(r.Order, key)
}

// Line returns the named line, or nil when it was not requested.
func (r *Result) Line(key string) model.Line {
	return r.Lines[key]
}

// Rows returns freshly allocated bars augmented with every computed line.
func (r *Result) Rows() []model.Row {
	rows := make([]model.Row, len(r.Bars))
	for i, b := range r.Bars {
		vals := make(map[string]model.Value, len(r.Lines))
		for k, line := range r.Lines {
			vals[k] = line[i]
		}
		rows[i] = model.Row{OHLCV: b, Values: vals}
	}
	return rows
}

// Slice returns a result restricted to bars[from:], keeping alignment.
func (r *Result) Slice(from int) *Result {
	if from < 0 {
		from = 0
	}
	if from > len(r.Bars) {
		from = len(r.Bars)
	}
	out := &Result{
		Bars:  model.CloneBars(r.Bars[from:]),
		Lines: make(map[string]model.Line, len(r.Lines)),
		Order: append([]string(nil), r.Order...),
	}
	for k, line := range r.Lines {
		out.Lines[k] = append(model.Line(nil), line[from:]...)
	}
	return out
}
