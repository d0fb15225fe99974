// Package server exposes computed chart series over HTTP for the chart front end.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"MarketCharts/internal/chart"
	"MarketCharts/internal/collector"
	"MarketCharts/internal/generator"
	"MarketCharts/internal/indicator"
	"MarketCharts/internal/metrics"
	"MarketCharts/internal/model"
)

const (
	// maxGenerateBars caps /generate so one request cannot allocate without bound.
	maxGenerateBars = 5000
	// summaryBars is the trailing window summarized by /symbols, one trading year.
	summaryBars = 252
)

// Server wires the collector and the indicator engine to HTTP routes.
type Server struct {
	Collector *collector.Collector
	Metrics   *metrics.Metrics
}

func New(col *collector.Collector, m *metrics.Metrics) *Server {
	return &Server{Collector: col, Metrics: m}
}

// Routes registers every endpoint on a new mux. metricsPath may be empty.
func (s *Server) Routes(metricsPath string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.instrument("health", s.handleHealth))
	mux.HandleFunc("GET /api/v1/symbols", s.instrument("symbols", s.handleSymbols))
	mux.HandleFunc("GET /api/v1/chart/{symbol}", s.instrument("chart", s.handleChart))
	mux.HandleFunc("GET /api/v1/generate", s.instrument("generate", s.handleGenerate))
	mux.HandleFunc("POST /api/v1/indicators", s.instrument("indicators", s.handleIndicators))
	if metricsPath != "" {
		mux.Handle("GET "+metricsPath, s.Metrics.Handler())
	}
	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		s.Metrics.ObserveRequest(route, rec.code)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type symbolInfo struct {
	Symbol    string         `json:"symbol"`
	FetchedAt *time.Time     `json:"fetched_at,omitempty"`
	Summary   *chart.Summary `json:"summary,omitempty"` // nil until the first refresh
}

// handleSymbols lists the tracked symbols with a one-year summary of whatever
// is cached. It never triggers a fetch.
func (s *Server) handleSymbols(w http.ResponseWriter, _ *http.Request) {
	infos := make([]symbolInfo, 0, len(s.Collector.Symbols))
	for _, sym := range s.Collector.Symbols {
		info := symbolInfo{Symbol: sym}
		if snap, ok := s.Collector.Cached(sym); ok {
			bars := snap.Bars
			if len(bars) > summaryBars {
				bars = bars[len(bars)-summaryBars:]
			}
			sum := chart.Summarize(bars)
			info.Summary = &sum
			info.FetchedAt = &snap.FetchedAt
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":  s.Collector.Fetcher.Name(),
		"symbols": infos,
	})
}

type chartResponse struct {
	Symbol    string         `json:"symbol"`
	Interval  chart.Interval `json:"interval"`
	Source    string         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
	Summary   chart.Summary  `json:"summary"`
	Lines     []string       `json:"lines"`
	Series    []model.Row    `json:"series"`
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := collector.NormalizeSymbol(r.PathValue("symbol"))
	settings, err := chart.ParseSettings(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.Collector.Series(r.Context(), symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	view, err := chart.Build(snap.Bars, settings)
	s.Metrics.ObserveCompute(time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chartResponse{
		Symbol:    snap.Symbol,
		Interval:  view.Interval,
		Source:    snap.Source,
		FetchedAt: snap.FetchedAt,
		Summary:   view.Summary,
		Lines:     view.Lines,
		Series:    view.Rows,
	})
}

type seriesResponse struct {
	Lines  []string    `json:"lines"`
	Series []model.Row `json:"series"`
}

// handleGenerate serves a synthetic series with the default indicator set.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, opts, err := generateParams(q)
	if err != nil {
		writeError(w, err)
		return
	}
	bars, err := generator.Generate(n, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeComputed(w, bars, indicator.DefaultRequests())
}

func generateParams(q map[string][]string) (int, generator.Options, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	var opts generator.Options
	n := 90
	var err error
	if v := get("n"); v != "" {
		if n, err = strconv.Atoi(v); err != nil {
			return 0, opts, badParam("n", err)
		}
	}
	if n > maxGenerateBars {
		return 0, opts, badParam("n", errors.New("too many bars"))
	}
	if v := get("base"); v != "" {
		if opts.BasePrice, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, opts, badParam("base", err)
		}
		if opts.BasePrice <= 0 {
			return 0, opts, badParam("base", errors.New("must be positive"))
		}
	}
	if v := get("volatility"); v != "" {
		if opts.Volatility, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, opts, badParam("volatility", err)
		}
	}
	if v := get("seed"); v != "" {
		if opts.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return 0, opts, badParam("seed", err)
		}
	}
	return n, opts, nil
}

type indicatorsRequest struct {
	Bars       []model.OHLCV `json:"bars"`
	Indicators []string      `json:"indicators"`
}

// handleIndicators computes indicators over a caller-supplied series.
func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	var req indicatorsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := model.ValidateSeries(req.Bars); err != nil {
		writeError(w, err)
		return
	}
	reqs := indicator.DefaultRequests()
	if len(req.Indicators) > 0 {
		reqs = reqs[:0]
		for _, spec := range req.Indicators {
			ir, err := indicator.ParseRequest(spec)
			if err != nil {
				writeError(w, err)
				return
			}
			reqs = append(reqs, ir)
		}
	}
	s.writeComputed(w, req.Bars, reqs)
}

func (s *Server) writeComputed(w http.ResponseWriter, bars []model.OHLCV, reqs []indicator.Request) {
	start := time.Now()
	res, err := indicator.Compute(bars, reqs)
	s.Metrics.ObserveCompute(time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Lines: res.Order, Series: res.Rows()})
}

func badParam(name string, err error) error {
	return &paramError{name: name, err: err}
}

type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string { return "invalid parameter " + e.name + ": " + e.err.Error() }
func (e *paramError) Unwrap() []error {
	return []error{model.ErrInvalidParameter, e.err}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	switch {
	case errors.Is(err, model.ErrInvalidParameter):
		code = http.StatusBadRequest
	case errors.Is(err, collector.ErrUnknownSymbol):
		code = http.StatusNotFound
	default:
		log.Printf("[ERROR] %v", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeJSON encodes v before writing the header, so an encode failure is
// reported as a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
		buf.Reset()
		buf.WriteString(`{"error":"encode response"}` + "\n")
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("[WARN] write response: %v", err)
	}
}
