package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is one indicator sample. Samples inside the warm-up window are
// undefined and must not be plotted.
type Value struct {
	Num   float64
	Valid bool
}

// Defined wraps v as a defined sample.
func Defined(v float64) Value { return Value{Num: v, Valid: true} }

// Undefined returns the warm-up sentinel.
func Undefined() Value { return Value{} }

// Get returns the number and whether it is defined.
func (v Value) Get() (float64, bool) { return v.Num, v.Valid }

// MarshalJSON encodes undefined and non-finite samples as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.Num, 'f', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// Line is an indicator series aligned index-for-index with its input bars.
type Line []Value

// NewLine returns an all-undefined line of length n.
func NewLine(n int) Line { return make(Line, n) }

// Defined counts the defined samples.
func (l Line) Defined() int {
	n := 0
	for _, v := range l {
		if v.Valid {
			n++
		}
	}
	return n
}

// FirstDefined returns the index of the first defined sample, or -1.
func (l Line) FirstDefined() int {
	for i, v := range l {
		if v.Valid {
			return i
		}
	}
	return -1
}

// Row is a bar augmented with the indicator samples computed at its index.
type Row struct {
	OHLCV
	Values map[string]Value
}

// MarshalJSON flattens the bar and its indicator samples into one object,
// dates rendered as yyyy-mm-dd for the chart time axis.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 6+len(r.Values))
	m["date"] = r.Time.Format("2006-01-02")
	m["open"] = r.Open
	m["high"] = r.High
	m["low"] = r.Low
	m["close"] = r.Close
	m["volume"] = r.Volume
	for k, v := range r.Values {
		m[k] = v
	}
	return json.Marshal(m)
}
