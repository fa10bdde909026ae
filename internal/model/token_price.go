package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TokenPrice struct {
	ID             string          `json:"id"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Blockchain     string          `json:"blockchain"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	PriceChange24h float64         `json:"price_change_percentage_24h"`
	Image          string          `json:"image,omitempty"`
	LastUpdated    time.Time       `json:"last_updated"`
}
