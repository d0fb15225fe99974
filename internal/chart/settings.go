// Package chart turns the chart page settings into indicator requests and
// cuts the computed series to the visible window.
package chart

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"MarketCharts/internal/indicator"
	"MarketCharts/internal/model"
)

// Interval is the visible time range (or bar size, for 1W) of a chart.
type Interval string

const (
	Interval1D Interval = "1D"
	Interval1W Interval = "1W"
	Interval1M Interval = "1M"
	Interval3M Interval = "3M"
	Interval6M Interval = "6M"
	Interval1Y Interval = "1Y"
)

// Sub-chart panels.
const (
	SubRSI    = "RSI"
	SubMACD   = "MACD"
	SubVolume = "Volume"
)

// trailing window in trading days; 0 keeps the full history.
var windows = map[Interval]int{
	Interval1D: 0,
	Interval1W: 0,
	Interval1M: 22,
	Interval3M: 66,
	Interval6M: 130,
	Interval1Y: 252,
}

// Settings mirrors the chart page controls.
type Settings struct {
	Interval  Interval
	SMALines  []int
	EMALines  []int
	SubCharts []string

	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	VolumeSMAPeriod int
}

// DefaultSettings is the 3M candlestick view with SMA 10/20/50/100 and every sub-chart.
func DefaultSettings() Settings {
	return Settings{
		Interval:        Interval3M,
		SMALines:        []int{10, 20, 50, 100},
		SubCharts:       []string{SubRSI, SubMACD, SubVolume},
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		VolumeSMAPeriod: 20,
	}
}

// Validate rejects unknown intervals and sub-charts.
func (s Settings) Validate() error {
	if _, ok := windows[s.Interval]; !ok {
		return fmt.Errorf("%w: unknown interval %q", model.ErrInvalidParameter, s.Interval)
	}
	for _, sc := range s.SubCharts {
		switch sc {
		case SubRSI, SubMACD, SubVolume:
		default:
			return fmt.Errorf("%w: unknown sub-chart %q", model.ErrInvalidParameter, sc)
		}
	}
	for _, r := range s.Requests() {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Requests lists the indicator requests needed to draw the chart.
func (s Settings) Requests() []indicator.Request {
	var reqs []indicator.Request
	for _, p := range s.SMALines {
		reqs = append(reqs, indicator.SMAOf(p))
	}
	for _, p := range s.EMALines {
		reqs = append(reqs, indicator.EMAOf(p))
	}
	if slices.Contains(s.SubCharts, SubRSI) {
		reqs = append(reqs, indicator.RSIOf(s.RSIPeriod))
	}
	if slices.Contains(s.SubCharts, SubMACD) {
		reqs = append(reqs, indicator.MACDOf(s.MACDFast, s.MACDSlow, s.MACDSignal))
	}
	if slices.Contains(s.SubCharts, SubVolume) {
		reqs = append(reqs, indicator.VolumeSMAOf(s.VolumeSMAPeriod))
	}
	return reqs
}

// Window is the number of trailing bars to show; 0 means all.
func (s Settings) Window() int {
	return windows[s.Interval]
}

// ParseSettings reads interval, sma, ema, sub, rsi, macd and vsma from query
// values, starting from DefaultSettings. An empty sma or sub clears the list.
func ParseSettings(q url.Values) (Settings, error) {
	s := DefaultSettings()
	if v := q.Get("interval"); v != "" {
		s.Interval = Interval(strings.ToUpper(v))
	}
	var err error
	if q.Has("sma") {
		if s.SMALines, err = intList(q.Get("sma")); err != nil {
			return s, fmt.Errorf("%w: sma: %v", model.ErrInvalidParameter, err)
		}
	}
	if q.Has("ema") {
		if s.EMALines, err = intList(q.Get("ema")); err != nil {
			return s, fmt.Errorf("%w: ema: %v", model.ErrInvalidParameter, err)
		}
	}
	if q.Has("sub") {
		s.SubCharts = nil
		for _, p := range splitList(q.Get("sub")) {
			s.SubCharts = append(s.SubCharts, canonicalSub(p))
		}
	}
	if v := q.Get("rsi"); v != "" {
		if s.RSIPeriod, err = strconv.Atoi(v); err != nil {
			return s, fmt.Errorf("%w: rsi: %v", model.ErrInvalidParameter, err)
		}
	}
	if v := q.Get("vsma"); v != "" {
		if s.VolumeSMAPeriod, err = strconv.Atoi(v); err != nil {
			return s, fmt.Errorf("%w: vsma: %v", model.ErrInvalidParameter, err)
		}
	}
	if v := q.Get("macd"); v != "" {
		nums, err := intList(v)
		if err != nil || len(nums) != 3 {
			return s, fmt.Errorf("%w: macd wants fast,slow,signal, got %q", model.ErrInvalidParameter, v)
		}
		s.MACDFast, s.MACDSlow, s.MACDSignal = nums[0], nums[1], nums[2]
	}
	return s, s.Validate()
}

func canonicalSub(s string) string {
	switch strings.ToLower(s) {
	case "rsi":
		return SubRSI
	case "macd":
		return SubMACD
	case "volume", "vol":
		return SubVolume
	}
	return s
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intList(s string) ([]int, error) {
	var out []int
	for _, p := range splitList(s) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
