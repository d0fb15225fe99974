package collector

import (
	"context"

	"MarketCharts/internal/model"
)

// Fetcher defines the interface for loading daily market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}
