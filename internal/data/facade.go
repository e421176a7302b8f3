// Package data is the boundary between the signal core and its collaborators:
// it fetches monthly bars through the provider, keeps a warm read-through
// cache, and hands normalized price series to the scorer.
package data

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wfairbank/glidepath/internal/data/cache"
	"github.com/wfairbank/glidepath/internal/domain/series"
	"github.com/wfairbank/glidepath/internal/provider"
	"github.com/wfairbank/glidepath/internal/telemetry/metrics"
)

// Field selects which candle field feeds the series.
type Field int

const (
	// FieldAdjClose uses the dividend-adjusted close: the total-return view.
	FieldAdjClose Field = iota
	// FieldClose uses the raw close: the price-return view.
	FieldClose
)

// Facade is the data collaborator handed to the CLI commands.
type Facade struct {
	source  provider.MonthlySource
	cache   cache.Cache
	ttl     time.Duration
	norm    series.Config
	metrics *metrics.Registry
	log     zerolog.Logger

	// now is injected for tests; time.Now in production.
	now func() time.Time
}

// New builds a facade. A nil metrics registry disables instrumentation; use
// cache.Nop{} to disable caching.
func New(source provider.MonthlySource, c cache.Cache, ttl time.Duration, norm series.Config, reg *metrics.Registry, log zerolog.Logger) *Facade {
	return &Facade{
		source:  source,
		cache:   c,
		ttl:     ttl,
		norm:    norm,
		metrics: reg,
		log:     log.With().Str("component", "data").Logger(),
		now:     time.Now,
	}
}

// MonthlySeries returns the normalized completed-month series for symbol,
// reading the chosen candle field.
func (f *Facade) MonthlySeries(ctx context.Context, symbol string, field Field) (series.PriceSeries, error) {
	bars, err := f.bars(ctx, symbol)
	if err != nil {
		return nil, err
	}

	raw := make([]series.RawObservation, 0, len(bars))
	for _, bar := range bars {
		px := bar.Close
		if field == FieldAdjClose && bar.AdjClose > 0 {
			px = bar.AdjClose
		}
		raw = append(raw, series.RawObservation{Time: bar.Timestamp, Close: px})
	}
	return series.Normalize(raw, f.now(), f.norm)
}

// MonthlyPair fetches the primary (total-return) and alternate (price-return)
// series concurrently. alternate may be empty, yielding a nil second series.
func (f *Facade) MonthlyPair(ctx context.Context, primary, alternate string) (series.PriceSeries, series.PriceSeries, error) {
	var (
		wg      sync.WaitGroup
		pSeries series.PriceSeries
		aSeries series.PriceSeries
		pErr    error
		aErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		pSeries, pErr = f.MonthlySeries(ctx, primary, FieldAdjClose)
	}()

	if alternate != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			aSeries, aErr = f.MonthlySeries(ctx, alternate, FieldClose)
		}()
	}
	wg.Wait()

	if pErr != nil {
		return nil, nil, pErr
	}
	if aErr != nil {
		return nil, nil, aErr
	}

	if aSeries != nil && !aSeries.Latest().Month.Equal(pSeries.Latest().Month) {
		f.log.Warn().
			Str("primary", primary).
			Str("alternate", alternate).
			Msg("index series end on different months")
	}
	return pSeries, aSeries, nil
}

// bars returns cached bars for symbol or fetches and caches them.
func (f *Facade) bars(ctx context.Context, symbol string) ([]provider.Bar, error) {
	key := "series:" + symbol

	if payload, ok, err := f.cache.Get(ctx, key); err != nil {
		// A broken cache degrades to a direct fetch.
		f.log.Warn().Err(err).Str("symbol", symbol).Msg("cache read failed")
	} else if ok {
		var bars []provider.Bar
		if err := json.Unmarshal(payload, &bars); err == nil {
			f.observeCache(true)
			return bars, nil
		}
		f.log.Warn().Str("symbol", symbol).Msg("discarding undecodable cache entry")
	}
	f.observeCache(false)

	bars, err := f.source.MonthlyBars(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(bars); err == nil {
		if err := f.cache.Set(ctx, key, payload, f.ttl); err != nil {
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("cache write failed")
		}
	}
	return bars, nil
}

func (f *Facade) observeCache(hit bool) {
	if f.metrics == nil {
		return
	}
	if hit {
		f.metrics.CacheHit(f.cache.Name())
	} else {
		f.metrics.CacheMiss(f.cache.Name())
	}
}
