package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketCharts/internal/collector"
	"MarketCharts/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	return newTestServerFor(t, "HSI", "SPX500")
}

func newTestServerFor(t *testing.T, symbols ...string) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(nil)
	col := collector.NewCollector(collector.NewSyntheticFetcher(28000, 0.02, 11), symbols, 300, m)
	srv := httptest.NewServer(New(col, m).Routes("/metrics"))
	t.Cleanup(srv.Close)
	return srv, m
}

type seriesBody struct {
	Symbol   string                       `json:"symbol"`
	Interval string                       `json:"interval"`
	Source   string                       `json:"source"`
	Lines    []string                     `json:"lines"`
	Series   []map[string]json.RawMessage `json:"series"`
	Error    string                       `json:"error"`
}

func getJSON(t *testing.T, url string) (int, seriesBody) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body seriesBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// assertCount waits for the request counter; it is bumped after the handler
// returns, which can be after the client has read the body.
func assertCount(t *testing.T, m *metrics.Metrics, route, code string, want float64) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(route, code)) == want
	}, time.Second, 10*time.Millisecond)
}

func TestHealthAndSymbols(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	source, infos := getSymbols(t, srv.URL)
	assert.Equal(t, "synthetic", source)
	require.Len(t, infos, 2)
	assert.Equal(t, "HSI", infos[0].Symbol)
	assert.Equal(t, "SPX500", infos[1].Symbol)
	assert.Nil(t, infos[0].Summary, "nothing cached yet")

	code, chartBody := getJSON(t, srv.URL+"/api/v1/chart/HSI?interval=1D&sma=&sub=")
	require.Equal(t, http.StatusOK, code)

	_, infos = getSymbols(t, srv.URL)
	require.NotNil(t, infos[0].Summary)
	assert.Nil(t, infos[1].Summary)

	last := chartBody.Series[len(chartBody.Series)-1]
	var lastClose, lastVolume float64
	require.NoError(t, json.Unmarshal(last["close"], &lastClose))
	require.NoError(t, json.Unmarshal(last["volume"], &lastVolume))
	assert.Equal(t, lastClose, infos[0].Summary.Last)
	assert.Equal(t, lastVolume, infos[0].Summary.Volume)
	assert.GreaterOrEqual(t, infos[0].Summary.High, infos[0].Summary.Low)
}

type symbolBody struct {
	Symbol  string `json:"symbol"`
	Summary *struct {
		Last      float64 `json:"last"`
		ChangePct float64 `json:"change_pct"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Volume    float64 `json:"volume"`
	} `json:"summary"`
}

func getSymbols(t *testing.T, base string) (string, []symbolBody) {
	t.Helper()
	resp, err := http.Get(base + "/api/v1/symbols")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Source  string       `json:"source"`
		Symbols []symbolBody `json:"symbols"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Source, body.Symbols
}

func TestChartConfiguredSymbolCase(t *testing.T) {
	srv, _ := newTestServerFor(t, "hsi", " SPX500")

	for _, path := range []string{"/api/v1/chart/hsi", "/api/v1/chart/HSI", "/api/v1/chart/SPX500"} {
		code, body := getJSON(t, srv.URL+path)
		assert.Equal(t, http.StatusOK, code, path)
		assert.NotEmpty(t, body.Series, path)
	}
}

func TestChart(t *testing.T) {
	srv, m := newTestServer(t)

	code, body := getJSON(t, srv.URL+"/api/v1/chart/hsi?interval=1M&sma=20&sub=rsi")
	require.Equal(t, http.StatusOK, code, body.Error)
	assert.Equal(t, "HSI", body.Symbol)
	assert.Equal(t, "1M", body.Interval)
	assert.Equal(t, "synthetic", body.Source)
	assert.Equal(t, []string{"sma_20", "rsi_14"}, body.Lines)
	require.Len(t, body.Series, 22)
	for _, row := range body.Series {
		assert.Contains(t, row, "date")
		assert.NotEqual(t, "null", string(row["sma_20"]))
	}
	assertCount(t, m, "chart", "200", 1)
}

func TestChartErrors(t *testing.T) {
	srv, m := newTestServer(t)

	code, body := getJSON(t, srv.URL+"/api/v1/chart/DAX")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body.Error, "unknown symbol")

	code, _ = getJSON(t, srv.URL+"/api/v1/chart/HSI?macd=26,12,9")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = getJSON(t, srv.URL+"/api/v1/chart/HSI?interval=5Y")
	assert.Equal(t, http.StatusBadRequest, code)

	assertCount(t, m, "chart", "404", 1)
	assertCount(t, m, "chart", "400", 2)
}

func TestGenerate(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := getJSON(t, srv.URL+"/api/v1/generate?n=30&base=100&seed=5")
	require.Equal(t, http.StatusOK, code, body.Error)
	require.Len(t, body.Series, 30)
	assert.Equal(t, "100", string(body.Series[0]["open"]))
	// 30 bars cannot warm up SMA 50
	for _, row := range body.Series {
		assert.Equal(t, "null", string(row["sma_50"]))
	}
	assert.NotEqual(t, "null", string(body.Series[29]["sma_20"]))

	for _, q := range []string{"n=0", "n=abc", "n=100000", "base=-1", "volatility=2", "seed=-4"} {
		code, _ := getJSON(t, srv.URL+"/api/v1/generate?"+q)
		assert.Equal(t, http.StatusBadRequest, code, q)
	}
}

func TestIndicators(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{
		"bars": [
			{"time":"2024-01-02T00:00:00Z","open":10,"high":11,"low":9,"close":10,"volume":100},
			{"time":"2024-01-03T00:00:00Z","open":10,"high":12,"low":9,"close":11,"volume":200},
			{"time":"2024-01-04T00:00:00Z","open":11,"high":13,"low":10,"close":12,"volume":300}
		],
		"indicators": ["sma:2", "volume_sma:3", "rsi:14"]
	}`
	resp, err := http.Post(srv.URL+"/api/v1/indicators", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body seriesBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"sma_2", "volume_sma_3", "rsi_14"}, body.Lines)
	require.Len(t, body.Series, 3)
	assert.Equal(t, "null", string(body.Series[0]["sma_2"]))
	assert.Equal(t, "10.5", string(body.Series[1]["sma_2"]))
	assert.Equal(t, "11.5", string(body.Series[2]["sma_2"]))
	assert.Equal(t, "200", string(body.Series[2]["volume_sma_3"]))
	assert.Equal(t, `"2024-01-04"`, string(body.Series[2]["date"]))
	for _, row := range body.Series {
		assert.Equal(t, "null", string(row["rsi_14"]))
	}
}

func TestIndicatorsOverflowIsNull(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{
		"bars": [
			{"time":"2024-01-02T00:00:00Z","open":1e308,"high":1e308,"low":1e308,"close":1e308,"volume":1},
			{"time":"2024-01-03T00:00:00Z","open":1e308,"high":1e308,"low":1e308,"close":1e308,"volume":1}
		],
		"indicators": ["sma:2"]
	}`
	resp, err := http.Post(srv.URL+"/api/v1/indicators", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body seriesBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Series, 2)
	assert.Equal(t, "null", string(body.Series[1]["sma_2"]))
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"encode response"}`, rec.Body.String())
}

func TestIndicatorsErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, payload := range map[string]string{
		"bad json":   `{"bars": [`,
		"bad period": `{"bars": [], "indicators": ["sma:0"]}`,
		"bad macd":   `{"bars": [], "indicators": ["macd:26,12,9"]}`,
		"bad kind":   `{"bars": [], "indicators": ["atr:14"]}`,
		"bad ohlc": `{"bars": [
			{"time":"2024-01-02T00:00:00Z","open":10,"high":9,"low":8,"close":10,"volume":1}
		]}`,
		"unordered": `{"bars": [
			{"time":"2024-01-03T00:00:00Z","open":10,"high":11,"low":9,"close":10,"volume":1},
			{"time":"2024-01-02T00:00:00Z","open":10,"high":11,"low":9,"close":10,"volume":1}
		]}`,
		"duplicate day": `{"bars": [
			{"time":"2024-01-02T00:00:00Z","open":10,"high":11,"low":9,"close":10,"volume":1},
			{"time":"2024-01-02T00:00:00Z","open":10,"high":11,"low":9,"close":10,"volume":1}
		]}`,
	} {
		resp, err := http.Post(srv.URL+"/api/v1/indicators", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
}

func TestMetricsRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
