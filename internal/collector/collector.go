package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"MarketCharts/internal/metrics"
	"MarketCharts/internal/model"
)

// ErrUnknownSymbol is returned for symbols the collector does not track.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Snapshot is the cached daily history of one symbol.
type Snapshot struct {
	Symbol    string
	Source    string
	Bars      []model.OHLCV
	FetchedAt time.Time
}

// Collector fetches daily bars for a fixed symbol list and caches the latest
// series per symbol. Safe for concurrent use.
type Collector struct {
	Fetcher     Fetcher
	Symbols     []string
	HistoryDays int
	Metrics     *metrics.Metrics // optional

	mu    sync.RWMutex
	cache map[string]*Snapshot
}

// NewCollector creates a new Collector. Symbols are trimmed and upper-cased.
func NewCollector(fetcher Fetcher, symbols []string, historyDays int, m *metrics.Metrics) *Collector {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		normalized = append(normalized, NormalizeSymbol(s))
	}
	return &Collector{
		Fetcher:     fetcher,
		Symbols:     normalized,
		HistoryDays: historyDays,
		Metrics:     m,
		cache:       make(map[string]*Snapshot, len(symbols)),
	}
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Tracks reports whether symbol is configured.
func (c *Collector) Tracks(symbol string) bool {
	return slices.Contains(c.Symbols, NormalizeSymbol(symbol))
}

// Refresh fetches symbol and replaces its cached snapshot. On failure the
// previous snapshot is kept.
func (c *Collector) Refresh(ctx context.Context, symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if !c.Tracks(symbol) {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.HistoryDays)
	if err != nil {
		c.Metrics.ObserveRefresh(c.Fetcher.Name(), false)
		return fmt.Errorf("fetch %s daily bars: %w", symbol, err)
	}
	if len(bars) == 0 {
		c.Metrics.ObserveRefresh(c.Fetcher.Name(), false)
		return fmt.Errorf("fetch %s daily bars: empty series", symbol)
	}

	snap := &Snapshot{
		Symbol:    symbol,
		Source:    c.Fetcher.Name(),
		Bars:      bars,
		FetchedAt: time.Now(),
	}
	c.mu.Lock()
	c.cache[symbol] = snap
	c.mu.Unlock()

	c.Metrics.ObserveRefresh(snap.Source, true)
	c.Metrics.SetCachedBars(symbol, len(bars))
	log.Printf("[INFO] refreshed %s: %d bars from %s", symbol, len(bars), snap.Source)
	return nil
}

// RefreshAll refreshes every symbol and joins the failures.
func (c *Collector) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, s := range c.Symbols {
		if err := c.Refresh(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Series returns a copy of the cached snapshot for symbol, fetching it on
// first use.
func (c *Collector) Series(ctx context.Context, symbol string) (*Snapshot, error) {
	symbol = NormalizeSymbol(symbol)
	if !c.Tracks(symbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if snap, ok := c.Cached(symbol); ok {
		return snap, nil
	}
	if err := c.Refresh(ctx, symbol); err != nil {
		return nil, err
	}
	snap, _ := c.Cached(symbol)
	return snap, nil
}

// Cached returns a copy of the cached snapshot for symbol without fetching.
func (c *Collector) Cached(symbol string) (*Snapshot, bool) {
	symbol = NormalizeSymbol(symbol)
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.cache[symbol]
	if !ok {
		return nil, false
	}
	cp := *snap
	cp.Bars = model.CloneBars(snap.Bars)
	return &cp, true
}
