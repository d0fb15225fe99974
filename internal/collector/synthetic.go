package collector

import (
	"context"
	"hash/fnv"

	"MarketCharts/internal/generator"
	"MarketCharts/internal/model"
)

// SyntheticFetcher serves generated bars for environments without a market feed.
// With a non-zero Seed every symbol gets its own reproducible series.
type SyntheticFetcher struct {
	BasePrice  float64
	Volatility float64
	Seed       uint64
}

func NewSyntheticFetcher(basePrice, volatility float64, seed uint64) *SyntheticFetcher {
	return &SyntheticFetcher{BasePrice: basePrice, Volatility: volatility, Seed: seed}
}

func (f *SyntheticFetcher) Name() string { return "synthetic" }

func (f *SyntheticFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := generator.Options{
		BasePrice:  f.BasePrice,
		Volatility: f.Volatility,
	}
	if f.Seed != 0 {
		opts.Seed = f.Seed ^ symbolHash(symbol)
		if opts.Seed == 0 {
			opts.Seed = f.Seed
		}
	}
	return generator.Generate(days, opts)
}

func symbolHash(symbol string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return h.Sum64()
}
