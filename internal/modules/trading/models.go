// Package trading implements a virtual paper-trading portfolio backed by
// stored daily prices. No real broker is involved; trades settle instantly
// against the latest close.
package trading

// Trade sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Portfolio is a user's virtual cash account
type Portfolio struct {
	UserID    string  `json:"user_id"`
	Cash      float64 `json:"cash"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

// Holding is a position in a single symbol
type Holding struct {
	UserID   string  `json:"user_id"`
	Symbol   string  `json:"symbol"`
	Quantity int     `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// Trade is an executed virtual order
type Trade struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	CreatedAt int64   `json:"created_at"`
}

// DailyPrice is one close for a symbol on a trading day
type DailyPrice struct {
	Symbol string  `json:"symbol"`
	Date   int64   `json:"date"`
	Close  float64 `json:"close"`
}

// HoldingValuation is a holding priced at the latest close
type HoldingValuation struct {
	Symbol       string  `json:"symbol"`
	Quantity     int     `json:"quantity"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	UnrealizedPL float64 `json:"unrealized_pl"`
}

// Valuation is a full portfolio snapshot
type Valuation struct {
	UserID     string             `json:"user_id"`
	Cash       float64            `json:"cash"`
	Holdings   []HoldingValuation `json:"holdings"`
	TotalValue float64            `json:"total_value"`
}

// Indicators holds the technical indicators for a symbol
type Indicators struct {
	Symbol      string   `json:"symbol"`
	LatestClose float64  `json:"latest_close"`
	RSI14       *float64 `json:"rsi_14"`
	SMA20       *float64 `json:"sma_20"`
	SMA50       *float64 `json:"sma_50"`
	Samples     int      `json:"samples"`
}
