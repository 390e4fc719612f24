package usecase

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"TradeCouncil/internal/domain/models"
)

var (
	signalKeys = []string{"signal", "technical_signal", "consensus_rating", "recommendation"}
	scoreKeys  = []string{"score", "sentiment_score"}

	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	// Longer grades first so strong_buy is not read as buy.
	keywordOrder = []models.Signal{
		models.SignalStrongBuy,
		models.SignalStrongSell,
		models.SignalBuy,
		models.SignalSell,
		models.SignalHold,
	}
	keywordPatterns = func() map[models.Signal]*regexp.Regexp {
		out := make(map[models.Signal]*regexp.Regexp, len(keywordOrder))
		for _, s := range keywordOrder {
			word := strings.ReplaceAll(string(s), "_", `[_\s-]`)
			out[s] = regexp.MustCompile(`(?i)\b` + word + `\b`)
		}
		return out
	}()
)

// ParsedSignal is the grade read from one peer reply.
type ParsedSignal struct {
	Signal string  `json:"signal,omitempty"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// ParseSignal reads a grade from free peer text. It tries a JSON object
// with a grade key, then a numeric score in that object, then a keyword
// scan. Text without any of these scores 0.
func ParseSignal(text string) ParsedSignal {
	if obj := findJSONObject(text); obj != nil {
		for _, k := range signalKeys {
			if v, ok := obj[k].(string); ok && strings.TrimSpace(v) != "" {
				return ParsedSignal{Signal: normalizeSignal(v), Score: Score(v), Source: "json:" + k}
			}
		}
		for _, k := range scoreKeys {
			if v, ok := numeric(obj[k]); ok {
				return ParsedSignal{Score: clamp(v, -1, 1), Source: "json:" + k}
			}
		}
	}
	for _, s := range keywordOrder {
		if keywordPatterns[s].MatchString(text) {
			return ParsedSignal{Signal: string(s), Score: signalScores[s], Source: "keyword"}
		}
	}
	return ParsedSignal{Source: "none"}
}

func findJSONObject(text string) map[string]interface{} {
	var candidates []string
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	trimmed := strings.TrimSpace(text)
	candidates = append(candidates, trimmed)
	if i, j := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); i >= 0 && j > i {
		candidates = append(candidates, trimmed[i:j+1])
	}
	for _, c := range candidates {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(c), &obj); err == nil {
			return obj
		}
	}
	return nil
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}

func normalizeSignal(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
