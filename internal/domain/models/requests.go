package models

// AnalyzeRequest starts one decision cycle.
type AnalyzeRequest struct {
	Query          string  `json:"query" validate:"required,max=100"`
	AccountBalance float64 `json:"account_balance" validate:"gte=0"`
	RiskPerTrade   float64 `json:"risk_per_trade" validate:"gte=0,lte=1"`
}

// SizeRequest runs the sizing engine alone.
type SizeRequest struct {
	Query          string  `json:"query" validate:"required,max=100"`
	AccountBalance float64 `json:"account_balance" validate:"gte=0"`
	RiskPerTrade   float64 `json:"risk_per_trade" validate:"gte=0,lte=1"`
}

// ResolveRequest resolves a free-form query.
type ResolveRequest struct {
	Query string `query:"query" validate:"required,max=100"`
}

// WeightsRequest replaces the weight configuration.
type WeightsRequest struct {
	Weights map[string]float64 `json:"weights" validate:"required"`
}

// ThresholdsRequest replaces the threshold configuration.
type ThresholdsRequest struct {
	Buy  *float64 `json:"buy" validate:"required,gte=-1,lte=1"`
	Sell *float64 `json:"sell" validate:"required,gte=-1,lte=1"`
}

// PromptRequest replaces one peer's prompt.
type PromptRequest struct {
	Peer   string `param:"peer" validate:"required"`
	Prompt string `json:"prompt" validate:"required,max=20000"`
}

// HistoryRequest lists persisted decisions.
type HistoryRequest struct {
	Symbol string `query:"symbol"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}
