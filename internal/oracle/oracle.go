package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const (
	marketsPath     = "/coins/markets"
	defaultCacheTTL = 5 * time.Minute
	fetchRetries    = 2

	priceCache = "prices"
)

type PriceOracle struct {
	mux *sync.Mutex

	http     *resty.Client
	cacheTTL time.Duration
	logger   *logger.Logger
	metrics  CacheRecorder
	now      func() time.Time

	cachedPrices []model.TokenPrice
	lastFetch    time.Time
	stats        CacheStatistics
}

// New builds the market price oracle. metrics may be nil.
func New(appConfig *config.AppConfig, logger *logger.Logger, metrics CacheRecorder) IOracle {
	o := newPriceOracle(appConfig.Oracle, logger)
	o.metrics = metrics
	return o
}

func newPriceOracle(cfg config.OracleConfig, logger *logger.Logger) *PriceOracle {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.PriceAPIURL, "/")).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(fetchRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &PriceOracle{
		mux:      &sync.Mutex{},
		http:     client,
		cacheTTL: ttl,
		logger:   logger,
		now:      time.Now,
	}
}

func (o *PriceOracle) GetPrices(ctx context.Context) ([]model.TokenPrice, error) {
	o.mux.Lock()
	if o.cacheValidLocked() {
		o.stats.Hits++
		prices := clonePrices(o.cachedPrices)
		o.mux.Unlock()
		o.recordCache("hit")
		return prices, nil
	}
	o.stats.Misses++
	o.mux.Unlock()
	o.recordCache("miss")

	prices, err := o.RefreshPrices(ctx)
	if err == nil {
		return prices, nil
	}

	cached, _ := o.GetCachedPrices()
	if len(cached) > 0 {
		o.logger.Warn("[GetPrices] serving stale prices", map[string]string{"error": err.Error()})
		return cached, nil
	}
	return nil, err
}

func (o *PriceOracle) recordCache(operation string) {
	if o.metrics != nil {
		o.metrics.RecordCacheOperation(priceCache, operation)
	}
}

func (o *PriceOracle) RefreshPrices(ctx context.Context) ([]model.TokenPrice, error) {
	markets, err := o.fetchMarkets(ctx)
	if err != nil {
		o.mux.Lock()
		o.stats.Failures++
		o.mux.Unlock()

		o.logger.Error("[RefreshPrices][fetchMarkets]", map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}

	prices := processMarkets(markets)

	o.mux.Lock()
	defer o.mux.Unlock()
	o.cachedPrices = prices
	o.lastFetch = o.now()
	o.stats.LastRefresh = o.lastFetch

	return clonePrices(prices), nil
}

func (o *PriceOracle) fetchMarkets(ctx context.Context) ([]coinMarket, error) {
	var markets []coinMarket
	resp, err := o.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency":             "usd",
			"order":                   "market_cap_desc",
			"per_page":                "50",
			"page":                    "1",
			"sparkline":               "false",
			"price_change_percentage": "24h",
		}).
		SetResult(&markets).
		Get(marketsPath)
	if err != nil {
		return nil, errors.Wrap(err, "fetch market prices")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("price api returned status %d", resp.StatusCode())
	}
	return markets, nil
}

func (o *PriceOracle) GetCachedPrices() ([]model.TokenPrice, time.Time) {
	o.mux.Lock()
	defer o.mux.Unlock()
	return clonePrices(o.cachedPrices), o.lastFetch
}

func (o *PriceOracle) ConvertToUSD(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	prices, err := o.GetPrices(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	for _, p := range prices {
		if strings.EqualFold(p.Symbol, symbol) {
			return amount.Mul(p.CurrentPrice), nil
		}
	}
	return decimal.Zero, errors.Wrap(model.ErrPriceUnavailable, strings.ToUpper(symbol))
}

func (o *PriceOracle) GetCacheStatistics() *CacheStatistics {
	o.mux.Lock()
	defer o.mux.Unlock()
	stats := o.stats
	stats.Entries = len(o.cachedPrices)
	return &stats
}

func (o *PriceOracle) cacheValidLocked() bool {
	return len(o.cachedPrices) > 0 && o.now().Sub(o.lastFetch) < o.cacheTTL
}

func clonePrices(prices []model.TokenPrice) []model.TokenPrice {
	if prices == nil {
		return nil
	}
	out := make([]model.TokenPrice, len(prices))
	copy(out, prices)
	return out
}
