package oracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

type CacheStatistics struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Failures    int64     `json:"failures"`
	Entries     int       `json:"entries"`
	LastRefresh time.Time `json:"last_refresh"`
}

// CacheRecorder receives price cache hits and misses. *monitoring.BusinessMetricsRecorder satisfies it.
type CacheRecorder interface {
	RecordCacheOperation(cacheType, operation string)
}

type IOracle interface {
	// GetPrices returns the cached market list, fetching it when the cache is stale
	GetPrices(ctx context.Context) ([]model.TokenPrice, error)

	// RefreshPrices always hits the market API and replaces the cache on success
	RefreshPrices(ctx context.Context) ([]model.TokenPrice, error)

	// GetCachedPrices never does I/O
	GetCachedPrices() ([]model.TokenPrice, time.Time)

	// ConvertToUSD prices amount units of symbol in USD
	ConvertToUSD(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error)

	GetCacheStatistics() *CacheStatistics
}
