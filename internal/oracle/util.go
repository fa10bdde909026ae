package oracle

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dwarvesf/walletpay-backend/internal/model"
)

const maxListedPrices = 20

var blockchainBySymbol = map[string]string{
	"eth":   "Ethereum",
	"btc":   "Bitcoin",
	"bnb":   "Binance",
	"sol":   "Solana",
	"matic": "Polygon",
	"ada":   "Cardano",
	"xrp":   "Ripple",
	"dot":   "Polkadot",
	"doge":  "Dogecoin",
	"avax":  "Avalanche",
	"link":  "Chainlink",
	"ltc":   "Litecoin",
	"atom":  "Cosmos",
	"uni":   "Uniswap",
	"usdt":  "Tether",
	"usdc":  "USD Coin",
	"busd":  "Binance USD",
	"dai":   "DAI",
	"shib":  "Shiba Inu",
}

func blockchainFor(symbol string) string {
	if name, ok := blockchainBySymbol[strings.ToLower(symbol)]; ok {
		return name
	}
	return strings.ToUpper(symbol)
}

type coinMarket struct {
	ID             string          `json:"id"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Image          string          `json:"image"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	PriceChange24h float64         `json:"price_change_percentage_24h"`
	LastUpdated    string          `json:"last_updated"`
}

// processMarkets keeps the first priced coin per blockchain, up to maxListedPrices.
func processMarkets(markets []coinMarket) []model.TokenPrice {
	seen := map[string]bool{}
	prices := make([]model.TokenPrice, 0, maxListedPrices)

	for _, m := range markets {
		blockchain := blockchainFor(m.Symbol)
		if seen[blockchain] || !m.CurrentPrice.IsPositive() {
			continue
		}
		seen[blockchain] = true

		updated, _ := time.Parse(time.RFC3339, m.LastUpdated)
		prices = append(prices, model.TokenPrice{
			ID:             m.ID,
			Symbol:         strings.ToUpper(m.Symbol),
			Name:           m.Name,
			Blockchain:     blockchain,
			CurrentPrice:   m.CurrentPrice,
			PriceChange24h: m.PriceChange24h,
			Image:          m.Image,
			LastUpdated:    updated,
		})
		if len(prices) >= maxListedPrices {
			break
		}
	}
	return prices
}
