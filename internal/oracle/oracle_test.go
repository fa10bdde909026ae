package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const marketsBody = `[
  {"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"btc.png","current_price":65000.5,"price_change_percentage_24h":1.2,"last_updated":"2024-05-01T10:00:00.000Z"},
  {"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3000,"price_change_percentage_24h":-0.5,"last_updated":"2024-05-01T10:00:00.000Z"},
  {"id":"weth","symbol":"weth","name":"Wrapped Ether","current_price":0,"last_updated":"2024-05-01T10:00:00.000Z"},
  {"id":"staked-ether","symbol":"eth","name":"Lido Staked Ether","current_price":2999,"last_updated":"2024-05-01T10:00:00.000Z"},
  {"id":"solana","symbol":"sol","name":"Solana","current_price":150,"last_updated":"2024-05-01T10:00:00.000Z"}
]`

var _ = Describe("PriceOracle", func() {
	var (
		server   *httptest.Server
		requests atomic.Int32
		status   atomic.Int32
		o        *PriceOracle
		clock    time.Time
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		requests.Store(0)
		status.Store(http.StatusOK)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			Expect(r.URL.Path).To(Equal("/coins/markets"))
			Expect(r.URL.Query().Get("vs_currency")).To(Equal("usd"))
			Expect(r.URL.Query().Get("per_page")).To(Equal("50"))
			Expect(r.URL.Query().Get("price_change_percentage")).To(Equal("24h"))

			if code := int(status.Load()); code != http.StatusOK {
				w.WriteHeader(code)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, marketsBody)
		}))

		clock = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		o = newPriceOracle(config.OracleConfig{PriceAPIURL: server.URL, CacheTTL: 5 * time.Minute}, logger.NewNop())
		o.http.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
		o.now = func() time.Time { return clock }
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("#RefreshPrices", func() {
		It("keeps the first priced coin per blockchain", func() {
			prices, err := o.RefreshPrices(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(prices).To(HaveLen(3))

			Expect(prices[0].Symbol).To(Equal("BTC"))
			Expect(prices[0].Blockchain).To(Equal("Bitcoin"))
			Expect(prices[1].ID).To(Equal("ethereum"))
			Expect(prices[1].CurrentPrice.Equal(decimal.NewFromInt(3000))).To(BeTrue())
			Expect(prices[2].Blockchain).To(Equal("Solana"))
			Expect(prices[0].LastUpdated.IsZero()).To(BeFalse())
		})

		It("retries twice before giving up", func() {
			status.Store(http.StatusBadGateway)

			_, err := o.RefreshPrices(ctx)
			Expect(err).To(HaveOccurred())
			Expect(requests.Load()).To(Equal(int32(3)))
			Expect(o.GetCacheStatistics().Failures).To(Equal(int64(1)))
		})
	})

	Describe("#GetPrices", func() {
		It("serves from cache within the ttl", func() {
			_, err := o.GetPrices(ctx)
			Expect(err).NotTo(HaveOccurred())
			clock = clock.Add(4 * time.Minute)
			_, err = o.GetPrices(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(requests.Load()).To(Equal(int32(1)))
			stats := o.GetCacheStatistics()
			Expect(stats.Hits).To(Equal(int64(1)))
			Expect(stats.Misses).To(Equal(int64(1)))
		})

		It("refetches once the ttl has passed", func() {
			_, _ = o.GetPrices(ctx)
			clock = clock.Add(6 * time.Minute)
			_, _ = o.GetPrices(ctx)

			Expect(requests.Load()).To(Equal(int32(2)))
		})

		It("keeps the previous cache when a refresh fails", func() {
			first, err := o.GetPrices(ctx)
			Expect(err).NotTo(HaveOccurred())

			status.Store(http.StatusInternalServerError)
			clock = clock.Add(10 * time.Minute)

			prices, err := o.GetPrices(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(prices).To(Equal(first))

			cached, last := o.GetCachedPrices()
			Expect(cached).To(HaveLen(3))
			Expect(last).To(Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
		})

		It("fails when nothing was ever cached", func() {
			status.Store(http.StatusInternalServerError)
			_, err := o.GetPrices(ctx)
			Expect(err).To(HaveOccurred())
		})

		It("reports hits and misses to the cache recorder", func() {
			recorder := &cacheRecorder{}
			o.metrics = recorder

			_, _ = o.GetPrices(ctx)
			_, _ = o.GetPrices(ctx)
			_, _ = o.GetPrices(ctx)

			Expect(recorder.ops).To(Equal([]string{"prices/miss", "prices/hit", "prices/hit"}))
		})
	})

	Describe("#ConvertToUSD", func() {
		It("multiplies by the current price", func() {
			usd, err := o.ConvertToUSD(ctx, "sol", decimal.RequireFromString("2.5"))
			Expect(err).NotTo(HaveOccurred())
			Expect(usd.String()).To(Equal("375"))
		})

		It("reports unknown symbols", func() {
			_, err := o.ConvertToUSD(ctx, "DOGE", decimal.NewFromInt(1))
			Expect(err).To(MatchError(model.ErrPriceUnavailable))
		})
	})
})

var _ = Describe("processMarkets", func() {
	It("stops at twenty entries", func() {
		markets := make([]coinMarket, 0, 30)
		for i := 0; i < 30; i++ {
			markets = append(markets, coinMarket{ID: fmt.Sprint(i), Symbol: fmt.Sprintf("tk%d", i), CurrentPrice: decimal.NewFromInt(1)})
		}
		Expect(processMarkets(markets)).To(HaveLen(maxListedPrices))
	})

	It("keeps every digit of the quoted price", func() {
		var markets []coinMarket
		body := `[{"id":"bitcoin","symbol":"btc","current_price":65000.123456789012345678},{"id":"x","symbol":"x","current_price":null}]`
		Expect(json.Unmarshal([]byte(body), &markets)).To(Succeed())

		prices := processMarkets(markets)
		Expect(prices).To(HaveLen(1))
		Expect(prices[0].CurrentPrice.String()).To(Equal("65000.123456789012345678"))
		Expect(prices[0].CurrentPrice.Mul(decimal.RequireFromString("0.1")).String()).To(Equal("6500.0123456789012345678"))
	})

	It("falls back to the upper-cased symbol", func() {
		Expect(blockchainFor("matic")).To(Equal("Polygon"))
		Expect(blockchainFor("pepe")).To(Equal("PEPE"))
	})
})

type cacheRecorder struct {
	ops []string
}

func (r *cacheRecorder) RecordCacheOperation(cacheType, operation string) {
	r.ops = append(r.ops, cacheType+"/"+operation)
}
