package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TradeCouncil/internal/domain/models"
	"TradeCouncil/internal/service/configstore"
	"TradeCouncil/internal/service/ratelimit"
	"TradeCouncil/internal/usecase"
	"TradeCouncil/pkg/cache"
	xhttp "TradeCouncil/pkg/http"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPeers = []models.Peer{
	{Name: "technical_agent", Category: models.CategoryTechnical, URL: "http://tech/"},
	{Name: "fundamental_agent", Category: models.CategoryFundamental, URL: "http://fund/"},
	{Name: "risk_agent", Category: models.CategoryRisk, URL: "http://risk/"},
}

type stubResolver map[string]models.Instrument

func (s stubResolver) Resolve(_ context.Context, q string) (models.Instrument, error) {
	if inst, ok := s[q]; ok {
		return inst, nil
	}
	return models.Instrument{}, models.ErrNotFound
}

type stubAnalyzer struct {
	payloads map[string]string // category -> reply
}

func (s stubAnalyzer) Peers() []models.Peer { return testPeers }

func (s stubAnalyzer) Analyze(_ context.Context, inst models.Instrument) (*models.AggregatedAnalysis, error) {
	out := &models.AggregatedAnalysis{
		Instrument:  inst,
		PeerResults: make(map[string]models.PeerCallResult),
		TotalCount:  len(testPeers),
	}
	for _, p := range testPeers {
		r := models.PeerCallResult{PeerName: p.Name, Category: p.Category}
		if text, ok := s.payloads[p.Category]; ok {
			r.Status, r.Payload = models.StatusSuccess, text
			out.SuccessCount++
		} else {
			r.Status, r.Kind, r.Error = models.StatusError, models.ErrorKindTimeout, "timeout"
		}
		out.PeerResults[p.Name] = r
	}
	return out, nil
}

type stubSizer struct {
	res *models.PositionSizingResult
	err error
}

func (s stubSizer) Size(context.Context, models.Instrument, float64, float64) (*models.PositionSizingResult, error) {
	return s.res, s.err
}

type notifySpy struct {
	mu    sync.Mutex
	peers []string
}

func (n *notifySpy) NotifyReload(_ context.Context, p models.Peer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers = append(n.peers, p.Name)
}

func (n *notifySpy) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.peers...)
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	e        *echo.Echo
	handler  *CouncilHandler
	store    *configstore.Store
	notifier *notifySpy
}

func defaultWeights() models.WeightConfig {
	return models.WeightConfig{
		"technical": 0.30, "fundamental": 0.25, "news": 0.20, "expert": 0.15, "risk": 0.10,
	}
}

func newFixture(t *testing.T, sizer stubSizer, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	store := configstore.New(cache.NewMemoryCache())
	cfg := usecase.NewDecisionConfig(store, defaultWeights(), models.ThresholdConfig{Buy: 0.3, Sell: -0.3}, nil, nil)
	council := usecase.NewCouncil(
		stubResolver{
			"apple": {Symbol: "AAPL", Market: models.MarketForeign},
			"삼성전자":  {Symbol: "005930.KS", Market: models.MarketDomestic},
		},
		stubAnalyzer{payloads: map[string]string{
			models.CategoryTechnical:   `{"technical_signal": "strong_buy"}`,
			models.CategoryFundamental: "Overall this looks like a buy.",
		}},
		sizer,
		cfg,
	)
	spy := &notifySpy{}
	h := NewCouncilHandler(council, store, spy, limiter, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	e := echo.New()
	h.RegisterRoutes(e)
	return &fixture{e: e, handler: h, store: store, notifier: spy}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func sizing() *models.PositionSizingResult {
	return &models.PositionSizingResult{
		Symbol:          "AAPL",
		CurrentPrice:    200,
		PositionSize:    10,
		StopLossPrice:   190,
		TakeProfitPrice: 215,
		StopDistance:    10,
		RiskLevel:       models.RiskLow,
	}
}

func TestHealthAndAgents(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, env := f.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"status":"ok"`)

	rec, env = f.do(t, http.MethodGet, "/api/agents", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []models.Peer `json:"rows"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 3, list.Total)
	assert.Equal(t, "technical_agent", list.Rows[0].Name)
}

func TestAnalyzeReturnsDecision(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, env := f.do(t, http.MethodPost, "/api/analyze", `{"query":"apple"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res usecase.AnalyzeResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Decision)
	// 1.0*0.30 + 0.5*0.25
	assert.InDelta(t, 0.425, res.Decision.FinalScore, 1e-9)
	assert.Equal(t, models.ActionBuy, res.Decision.Action)
	assert.EqualValues(t, 10, res.Decision.Quantity)
	assert.Equal(t, 2, res.Decision.SuccessCount)
	assert.Equal(t, 3, res.Decision.TotalCount)
}

func TestAnalyzeValidation(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, _ := f.do(t, http.MethodPost, "/api/analyze", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/analyze", `{"query":"apple","risk_per_trade":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUnknownInstrument(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, env := f.do(t, http.MethodPost, "/api/analyze", `{"query":"nothing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_NOT_FOUND")
}

func TestAnalyzeRateLimited(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, ratelimit.New(0.001, 1))

	rec, _ := f.do(t, http.MethodPost, "/api/analyze", `{"query":"apple"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/analyze", `{"query":"apple"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_RATE_LIMITED")
}

func TestResolve(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, env := f.do(t, http.MethodGet, "/api/resolve?query=apple", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inst models.Instrument
	require.NoError(t, json.Unmarshal(env.Data, &inst))
	assert.Equal(t, models.Instrument{Symbol: "AAPL", Market: models.MarketForeign}, inst)

	rec, _ = f.do(t, http.MethodGet, "/api/resolve", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSizeMapsDataUnavailable(t *testing.T) {
	f := newFixture(t, stubSizer{err: models.ErrDataUnavailable}, nil)

	rec, env := f.do(t, http.MethodPost, "/api/size", `{"query":"apple"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_DATA_UNAVAILABLE")
}

func TestSizeReturnsResult(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, env := f.do(t, http.MethodPost, "/api/size", `{"query":"apple","account_balance":50000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.PositionSizingResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.EqualValues(t, 10, res.PositionSize)
}

func TestDecisionsWithoutStore(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, _ := f.do(t, http.MethodGet, "/api/decisions?symbol=AAPL", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/decisions?from=2025-06-02&to=2025-06-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.NewValidationError("weights", "bad"), http.StatusUnprocessableEntity},
		{models.ErrDataUnavailable, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, xhttp.AppErrorResponse(c, toAppError(tc.err)))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}
