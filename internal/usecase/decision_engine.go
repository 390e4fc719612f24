package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"TradeCouncil/internal/domain/models"
)

var signalScores = map[models.Signal]float64{
	models.SignalStrongBuy:  1.0,
	models.SignalBuy:        0.5,
	models.SignalHold:       0.0,
	models.SignalSell:       -0.5,
	models.SignalStrongSell: -1.0,
}

// Score maps a qualitative grade to its numeric value. Unknown grades are
// neutral.
func Score(signal string) float64 {
	return signalScores[models.Signal(normalizeSignal(signal))]
}

// CombineScores returns the weighted sum of peer scores rounded to four
// decimals. A category without a score contributes zero; the remaining
// weights are not renormalized.
func CombineScores(scores map[string]float64, weights models.WeightConfig) float64 {
	sum := decimal.Zero
	for cat, w := range weights {
		sum = sum.Add(decimal.NewFromFloat(w).Mul(decimal.NewFromFloat(scores[cat])))
	}
	return sum.Round(4).InexactFloat64()
}

// DecideAction applies open thresholds: a score equal to a threshold holds.
func DecideAction(score float64, t models.ThresholdConfig) models.Action {
	switch {
	case score > t.Buy:
		return models.ActionBuy
	case score < t.Sell:
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

// DecisionInput is everything BuildDecision needs for one instrument.
type DecisionInput struct {
	Instrument models.Instrument
	Scores     map[string]float64
	Signals    map[string]string
	Sizing     *models.PositionSizingResult
	Snapshot   DecisionSnapshot
	Success    int
	Total      int
	Now        time.Time
}

// BuildDecision combines peer scores with position sizing into a decision.
func BuildDecision(in DecisionInput) *models.TradeDecision {
	weights := in.Snapshot.Weights
	final := CombineScores(in.Scores, weights)
	action := DecideAction(final, in.Snapshot.Thresholds)

	breakdown := make([]models.PeerScore, 0, len(models.Categories))
	for _, cat := range orderedCategories(weights) {
		s, ok := in.Scores[cat]
		breakdown = append(breakdown, models.PeerScore{
			Category:     cat,
			Signal:       in.Signals[cat],
			Score:        s,
			Weight:       weights[cat],
			Contribution: decimal.NewFromFloat(weights[cat]).Mul(decimal.NewFromFloat(s)).Round(4).InexactFloat64(),
			Present:      ok,
		})
	}

	d := &models.TradeDecision{
		ID:           uuid.NewString(),
		Instrument:   in.Instrument,
		Action:       action,
		FinalScore:   final,
		PeerScores:   copyScores(in.Scores),
		Breakdown:    breakdown,
		SuccessCount: in.Success,
		TotalCount:   in.Total,
		Timestamp:    in.Now,
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}

	if sz := in.Sizing; sz != nil {
		d.RiskLevel = sz.RiskLevel
		d.TargetPrice = sz.CurrentPrice
		d.Quantity = sz.PositionSize
		if sz.RiskLevel == models.RiskHigh && d.Quantity > 0 {
			d.Quantity = maxInt64(1, d.Quantity/2)
		}
		d.StopLoss, d.TakeProfit = sz.StopLossPrice, sz.TakeProfitPrice
		if action == models.ActionSell {
			d.StopLoss = roundPrice(sz.CurrentPrice + sz.StopDistance)
			d.TakeProfit = roundPrice(sz.CurrentPrice - sz.StopDistance*rewardRatio)
		}
	}
	if action == models.ActionHold {
		d.Quantity = 0
	}

	d.Reasoning = reasoning(final, action, breakdown)
	return d
}

// reasoning is deterministic for equal inputs; categories follow the
// fixed reporting order.
func reasoning(final float64, action models.Action, breakdown []models.PeerScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "weighted score %.4f -> %s.", final, action)
	parts := make([]string, 0, len(breakdown))
	for _, ps := range breakdown {
		if !ps.Present {
			parts = append(parts, fmt.Sprintf("%s: n/a (w=%.2f)", ps.Category, ps.Weight))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %.2f x %.2f = %.4f", ps.Category, ps.Score, ps.Weight, ps.Contribution))
	}
	if len(parts) > 0 {
		b.WriteString(" contributions: ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

// orderedCategories lists known categories first, then any extra weight
// keys sorted by name.
func orderedCategories(w models.WeightConfig) []string {
	out := make([]string, 0, len(w))
	known := make(map[string]bool, len(models.Categories))
	for _, c := range models.Categories {
		known[c] = true
		if _, ok := w[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range w {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func copyScores(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
