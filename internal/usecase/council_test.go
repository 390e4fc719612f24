package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeCouncil/internal/domain/models"
)

type recordingSink struct {
	mu        sync.Mutex
	published []*models.TradeDecision
	stored    []*models.TradeDecision
	err       error
}

func (r *recordingSink) Publish(_ context.Context, d *models.TradeDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, d)
	return r.err
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) Store(_ context.Context, d *models.TradeDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = append(r.stored, d)
	return r.err
}

func (r *recordingSink) Query(context.Context, string, time.Time, time.Time, int) ([]*models.TradeDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored, nil
}

func (r *recordingSink) Health(context.Context) error { return nil }

func newTestCouncil(t *testing.T, caller callerFunc, opts ...CouncilOption) *Council {
	t.Helper()
	md := &fakeMarketData{
		quotes:  map[string]float64{"005930.KS": 70000},
		history: map[string][]models.Candle{"005930.KS": flatCandles(60, 70000, 1000)},
	}
	reg, err := NewPeerRegistry(testPeers())
	require.NoError(t, err)

	return NewCouncil(
		NewResolver(md),
		NewFanOut(reg, caller, nil),
		NewPositionSizer(md, SizingConfig{AccountBalance: 10_000_000, RiskPerTrade: 0.02, MaxExposure: 0.2}, nil),
		NewDecisionConfig(nil, defaultWeights(), defaultThresholds(), nil, nil),
		opts...,
	)
}

func TestCouncilEndToEndBuy(t *testing.T) {
	replies := map[string]string{
		"technical_agent":   "Trend is up. signal: BUY",
		"fundamental_agent": `{"recommendation": "hold"}`,
		"news_agent":        `{"signal": "buy", "summary": "positive headlines"}`,
		"expert_agent":      "```json\n{\"consensus_rating\": \"BUY\"}\n```",
		"risk_agent":        `{"signal": "hold", "risk_level": "MEDIUM"}`,
	}
	caller := callerFunc(func(_ context.Context, peer models.Peer, msg string) models.PeerCallResult {
		return okResult(replies[peer.Name])
	})
	sink := &recordingSink{}
	c := newTestCouncil(t, caller, WithPublisher(sink), WithDecisionStore(sink))

	res, err := c.Analyze(context.Background(), AnalyzeParams{Query: "005930"})
	require.NoError(t, err)

	d := res.Decision
	assert.Equal(t, models.Instrument{Symbol: "005930.KS", Market: models.MarketDomestic}, d.Instrument)
	assert.Equal(t, 0.325, d.FinalScore)
	assert.Equal(t, models.ActionBuy, d.Action)
	assert.Equal(t, int64(28), d.Quantity)
	assert.Equal(t, models.RiskMedium, d.RiskLevel)
	assert.Equal(t, 66000.0, d.StopLoss)
	assert.Equal(t, 5, d.SuccessCount)
	assert.Equal(t, map[string]float64{"technical": 0.5, "fundamental": 0, "news": 0.5, "expert": 0.5, "risk": 0}, d.PeerScores)
	assert.Equal(t, "json:consensus_rating", res.Signals["expert"].Source)
	assert.Empty(t, res.SizingError)

	require.Len(t, sink.published, 1)
	require.Len(t, sink.stored, 1)
	assert.Equal(t, d.ID, sink.stored[0].ID)

	history, err := c.History(context.Background(), "005930.KS", time.Time{}, time.Now(), 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCouncilAllPeersFailHolds(t *testing.T) {
	caller := callerFunc(func(context.Context, models.Peer, string) models.PeerCallResult {
		return errResult(models.ErrorKindConnect)
	})
	c := newTestCouncil(t, caller)

	res, err := c.Analyze(context.Background(), AnalyzeParams{Query: "005930.KS"})
	require.NoError(t, err)

	d := res.Decision
	assert.Empty(t, d.PeerScores)
	assert.Equal(t, 0.0, d.FinalScore)
	assert.Equal(t, models.ActionHold, d.Action)
	assert.Zero(t, d.Quantity)
	assert.Equal(t, 0, d.SuccessCount)
	assert.Equal(t, 5, d.TotalCount)
}

func TestCouncilSinkFailuresDoNotFailDecision(t *testing.T) {
	caller := callerFunc(func(context.Context, models.Peer, string) models.PeerCallResult {
		return okResult("strong buy")
	})
	sink := &recordingSink{err: errors.New("broker down")}
	c := newTestCouncil(t, caller, WithPublisher(sink), WithDecisionStore(sink))

	res, err := c.Analyze(context.Background(), AnalyzeParams{Query: "005930"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionBuy, res.Decision.Action)
	assert.Equal(t, 1.0, res.Decision.FinalScore)
}

func TestCouncilResolveFailure(t *testing.T) {
	called := false
	caller := callerFunc(func(context.Context, models.Peer, string) models.PeerCallResult {
		called = true
		return okResult("buy")
	})
	c := newTestCouncil(t, caller)

	_, err := c.Analyze(context.Background(), AnalyzeParams{Query: "999999"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, called)
}

func TestCouncilSizingUnavailableStillDecides(t *testing.T) {
	caller := callerFunc(func(context.Context, models.Peer, string) models.PeerCallResult {
		return okResult("strong_buy")
	})
	md := &fakeMarketData{quotes: map[string]float64{"MSFT": 400}}
	reg, err := NewPeerRegistry(testPeers())
	require.NoError(t, err)
	c := NewCouncil(
		NewResolver(md),
		NewFanOut(reg, caller, nil),
		NewPositionSizer(md, SizingConfig{AccountBalance: 1000, RiskPerTrade: 0.02}, nil),
		NewDecisionConfig(nil, defaultWeights(), defaultThresholds(), nil, nil),
	)

	res, err := c.Analyze(context.Background(), AnalyzeParams{Query: "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionBuy, res.Decision.Action)
	assert.Zero(t, res.Decision.Quantity)
	assert.Nil(t, res.Sizing)
	assert.Contains(t, res.SizingError, "market data unavailable")
}

func TestCouncilHistoryDisabled(t *testing.T) {
	c := newTestCouncil(t, callerFunc(func(context.Context, models.Peer, string) models.PeerCallResult {
		return okResult("")
	}))
	_, err := c.History(context.Background(), "A", time.Time{}, time.Now(), 10)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}
