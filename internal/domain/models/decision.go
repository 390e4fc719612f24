package models

import "time"

// Peer categories. Weights are keyed by these names.
const (
	CategoryTechnical   = "technical"
	CategoryFundamental = "fundamental"
	CategoryNews        = "news"
	CategoryExpert      = "expert"
	CategoryRisk        = "risk"
)

// Categories lists every weighted category in reporting order.
var Categories = []string{
	CategoryTechnical,
	CategoryFundamental,
	CategoryNews,
	CategoryExpert,
	CategoryRisk,
}

// Signal is a qualitative grade returned by a peer.
type Signal string

const (
	SignalStrongBuy  Signal = "strong_buy"
	SignalBuy        Signal = "buy"
	SignalHold       Signal = "hold"
	SignalSell       Signal = "sell"
	SignalStrongSell Signal = "strong_sell"
)

// Action is the final trade instruction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// WeightConfig maps category to weight.
type WeightConfig map[string]float64

// Clone returns an independent copy.
func (w WeightConfig) Clone() WeightConfig {
	out := make(WeightConfig, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ThresholdConfig bounds the HOLD band; sell must be below buy.
type ThresholdConfig struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

// PeerScore explains one category's contribution to the final score.
type PeerScore struct {
	Category     string  `json:"category"`
	Signal       string  `json:"signal,omitempty"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Present      bool    `json:"present"`
}

// TradeDecision is the terminal artifact of one decision cycle.
type TradeDecision struct {
	ID           string             `json:"id"`
	Instrument   Instrument         `json:"instrument"`
	Action       Action             `json:"action"`
	FinalScore   float64            `json:"final_score"`
	Quantity     int64              `json:"quantity"`
	TargetPrice  float64            `json:"target_price"`
	StopLoss     float64            `json:"stop_loss"`
	TakeProfit   float64            `json:"take_profit"`
	RiskLevel    RiskLevel          `json:"risk_level,omitempty"`
	Reasoning    string             `json:"reasoning"`
	PeerScores   map[string]float64 `json:"peer_scores"`
	Breakdown    []PeerScore        `json:"breakdown"`
	SuccessCount int                `json:"success_count"`
	TotalCount   int                `json:"total_count"`
	Timestamp    time.Time          `json:"timestamp"`
}
