package usecase

import (
	"context"
	"sync"
	"time"

	"TradeCouncil/internal/domain/models"
	drepo "TradeCouncil/internal/domain/repository"
)

type fakeMarketData struct {
	mu       sync.Mutex
	quotes   map[string]float64
	history  map[string][]models.Candle
	search   []models.SearchResult
	err      error
	searched []string
	quoted   []string
}

func (f *fakeMarketData) Quote(_ context.Context, symbol string) (*models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoted = append(f.quoted, symbol)
	if p, ok := f.quotes[symbol]; ok {
		return &models.Quote{Symbol: symbol, Price: p}, nil
	}
	return nil, drepo.ErrNoQuote
}

func (f *fakeMarketData) History(_ context.Context, symbol string, _, _ time.Time) ([]models.Candle, error) {
	return f.history[symbol], nil
}

func (f *fakeMarketData) Search(_ context.Context, query string, _ int) ([]models.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.search, nil
}

// flatCandles returns n bars closing at price with a high-low span of
// 2*halfRange, so every true range equals 2*halfRange.
func flatCandles(n int, price, halfRange float64) []models.Candle {
	out := make([]models.Candle, n)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.Candle{
			Time:  start.AddDate(0, 0, i),
			Open:  price,
			High:  price + halfRange,
			Low:   price - halfRange,
			Close: price,
		}
	}
	return out
}

type callerFunc func(ctx context.Context, peer models.Peer, message string) models.PeerCallResult

func (f callerFunc) Call(ctx context.Context, peer models.Peer, message string) models.PeerCallResult {
	return f(ctx, peer, message)
}

func okResult(payload string) models.PeerCallResult {
	return models.PeerCallResult{Status: models.StatusSuccess, Payload: payload}
}

func errResult(kind models.ErrorKind) models.PeerCallResult {
	return models.PeerCallResult{Status: models.StatusError, Kind: kind, Error: string(kind)}
}

func testPeers() []models.Peer {
	return []models.Peer{
		{Name: "news_agent", Category: models.CategoryNews, URL: "http://localhost:8001/", Template: "news {{.Ticker}} ({{.Market}})"},
		{Name: "fundamental_agent", Category: models.CategoryFundamental, URL: "http://localhost:8002/", Template: "fundamentals {{.Ticker}}"},
		{Name: "technical_agent", Category: models.CategoryTechnical, URL: "http://localhost:8003/", Template: "technicals {{.Ticker}}"},
		{Name: "expert_agent", Category: models.CategoryExpert, URL: "http://localhost:8004/", Template: "experts {{.Ticker}}"},
		{Name: "risk_agent", Category: models.CategoryRisk, URL: "http://localhost:8005/", Template: "risk {{.Ticker}}"},
	}
}

func defaultWeights() models.WeightConfig {
	return models.WeightConfig{
		models.CategoryTechnical:   0.30,
		models.CategoryFundamental: 0.25,
		models.CategoryNews:        0.20,
		models.CategoryExpert:      0.15,
		models.CategoryRisk:        0.10,
	}
}

func defaultThresholds() models.ThresholdConfig {
	return models.ThresholdConfig{Buy: 0.3, Sell: -0.3}
}

type memConfigStore struct {
	mu         sync.Mutex
	weights    models.WeightConfig
	thresholds *models.ThresholdConfig
	prompts    map[string]string
	setErr     error
}

func (m *memConfigStore) GetWeights(context.Context) (models.WeightConfig, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.weights == nil {
		return nil, false, nil
	}
	return m.weights.Clone(), true, nil
}

func (m *memConfigStore) SetWeights(_ context.Context, w models.WeightConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.weights = w.Clone()
	return nil
}

func (m *memConfigStore) GetThresholds(context.Context) (models.ThresholdConfig, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.thresholds == nil {
		return models.ThresholdConfig{}, false, nil
	}
	return *m.thresholds, true, nil
}

func (m *memConfigStore) SetThresholds(_ context.Context, t models.ThresholdConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.thresholds = &t
	return nil
}

func (m *memConfigStore) GetPrompt(_ context.Context, peer string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prompts[peer]
	return p, ok, nil
}

func (m *memConfigStore) SetPrompt(_ context.Context, peer, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prompts == nil {
		m.prompts = map[string]string{}
	}
	m.prompts[peer] = text
	return nil
}

func (m *memConfigStore) ListPrompts(_ context.Context, peers []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for _, p := range peers {
		if v, ok := m.prompts[p]; ok {
			out[p] = v
		}
	}
	return out, nil
}

func (m *memConfigStore) SeedDefaults(context.Context, map[string]interface{}) (int, error) {
	return 0, nil
}
