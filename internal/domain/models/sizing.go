package models

import "time"

// RiskLevel is the volatility tier of an instrument.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Candle is one daily OHLC bar.
type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Quote is a live price snapshot.
type Quote struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price"`
	Exchange string  `json:"exchange,omitempty"`
}

// SearchResult is one hit from the market-data search endpoint.
type SearchResult struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	QuoteType string `json:"quote_type,omitempty"`
}

// PositionSizingResult is recomputed per request and never cached.
type PositionSizingResult struct {
	Symbol          string    `json:"symbol"`
	CurrentPrice    float64   `json:"current_price"`
	ATR             float64   `json:"atr"`
	VolatilityPct   float64   `json:"volatility_pct"`
	PositionSize    int64     `json:"position_size"`
	PositionValue   float64   `json:"position_value"`
	StopLossPrice   float64   `json:"stop_loss_price"`
	TakeProfitPrice float64   `json:"take_profit_price"`
	StopDistance    float64   `json:"stop_distance"`
	RiskLevel       RiskLevel `json:"risk_level"`
	MaxLossAmount   float64   `json:"max_loss_amount"`
	RiskRewardRatio float64   `json:"risk_reward_ratio"`
	Confidence      float64   `json:"confidence"`
	AccountBalance  float64   `json:"account_balance"`
	RiskPerTrade    float64   `json:"risk_per_trade"`
	HistoryPoints   int       `json:"history_points"`
}
