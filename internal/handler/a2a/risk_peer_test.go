package a2a

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"TradeCouncil/internal/domain/models"
	rpc "TradeCouncil/internal/service/a2a"
	"TradeCouncil/internal/service/configstore"
	"TradeCouncil/internal/usecase"
	"TradeCouncil/pkg/cache"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, q string) (models.Instrument, error)

func (f resolverFunc) Resolve(ctx context.Context, q string) (models.Instrument, error) {
	return f(ctx, q)
}

type sizerFunc func(ctx context.Context, inst models.Instrument, balance, risk float64) (*models.PositionSizingResult, error)

func (f sizerFunc) Size(ctx context.Context, inst models.Instrument, balance, risk float64) (*models.PositionSizingResult, error) {
	return f(ctx, inst, balance, risk)
}

func staticResolver(queries *[]string) resolverFunc {
	return func(_ context.Context, q string) (models.Instrument, error) {
		*queries = append(*queries, q)
		if q == "AAPL" {
			return models.Instrument{Symbol: "AAPL", Market: models.MarketForeign}, nil
		}
		return models.Instrument{}, models.ErrNotFound
	}
}

func sizeAs(level models.RiskLevel) sizerFunc {
	return func(_ context.Context, inst models.Instrument, _, _ float64) (*models.PositionSizingResult, error) {
		return &models.PositionSizingResult{
			Symbol:          inst.Symbol,
			CurrentPrice:    100,
			PositionSize:    20,
			StopLossPrice:   96,
			TakeProfitPrice: 106,
			RiskLevel:       level,
		}, nil
	}
}

func newPeer(t *testing.T, sizer sizerFunc) (*echo.Echo, *RiskPeerHandler, *configstore.Store, *[]string) {
	t.Helper()
	var queries []string
	store := configstore.New(cache.NewMemoryCache())
	h := NewRiskPeerHandler("risk_agent", staticResolver(&queries), sizer, store, "default prompt", nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h, store, &queries
}

func post(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sendBody(t *testing.T, text string) string {
	t.Helper()
	req, err := rpc.NewSendMessageRequest("abc12345", text)
	require.NoError(t, err)
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return string(b)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) rpc.Response {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var resp rpc.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func rpcCode(t *testing.T, resp rpc.Response) int {
	t.Helper()
	var e rpc.RPCError
	require.NoError(t, json.Unmarshal(resp.Error, &e))
	return e.Code
}

func TestMessageSendRepliesWithSizing(t *testing.T) {
	e, _, _, queries := newPeer(t, sizeAs(models.RiskLow))

	rec := post(e, "/", sendBody(t, "Assess the risk given the current account state for: AAPL (US)"))
	resp := decode(t, rec)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `"abc12345"`, string(resp.ID))
	assert.Equal(t, []string{"AAPL"}, *queries)

	text, strategy, ok := rpc.ExtractText(resp.Result, rpc.DefaultExtractors)
	require.True(t, ok)
	assert.Equal(t, "artifact", strategy)

	var reply RiskReply
	require.NoError(t, json.Unmarshal([]byte(text), &reply))
	assert.Equal(t, models.SignalBuy, reply.Signal)
	assert.Equal(t, models.RiskLow, reply.RiskLevel)
	assert.EqualValues(t, 20, reply.Sizing.PositionSize)

	parsed := usecase.ParseSignal(text)
	assert.Equal(t, "buy", parsed.Signal)
	assert.Equal(t, "json:signal", parsed.Source)
}

func TestMessageSendHighRiskSells(t *testing.T) {
	e, _, _, _ := newPeer(t, sizeAs(models.RiskHigh))

	resp := decode(t, post(e, "/", sendBody(t, "AAPL")))
	text, _, ok := rpc.ExtractText(resp.Result, rpc.DefaultExtractors)
	require.True(t, ok)
	assert.Contains(t, text, `"signal":"sell"`)
}

func TestMessageSendProtocolErrors(t *testing.T) {
	e, _, _, _ := newPeer(t, sizeAs(models.RiskLow))

	cases := []struct {
		name string
		body string
		code int
	}{
		{"not json", `{oops`, codeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"message/send"}`, codeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{}}`, codeMethodNotFound},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"message/send","params":[1]}`, codeInvalidParams},
		{"no text", `{"jsonrpc":"2.0","id":1,"method":"message/send","params":{"message":{"parts":[]}}}`, codeInvalidParams},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := decode(t, post(e, "/", tc.body))
			assert.Nil(t, resp.Result)
			assert.Equal(t, tc.code, rpcCode(t, resp))
		})
	}
}

func TestMessageSendDomainErrors(t *testing.T) {
	e, _, _, _ := newPeer(t, sizeAs(models.RiskLow))
	resp := decode(t, post(e, "/", sendBody(t, "for: NOPE (US)")))
	assert.Equal(t, codeNotFound, rpcCode(t, resp))

	unavailable := func(context.Context, models.Instrument, float64, float64) (*models.PositionSizingResult, error) {
		return nil, models.ErrDataUnavailable
	}
	e, _, _, _ = newPeer(t, unavailable)
	resp = decode(t, post(e, "/", sendBody(t, "AAPL")))
	assert.Equal(t, codeDataMissing, rpcCode(t, resp))
}

func TestReloadReadsPromptFromStore(t *testing.T) {
	e, h, store, _ := newPeer(t, sizeAs(models.RiskLow))
	assert.Equal(t, "default prompt", h.Prompt())

	require.NoError(t, store.SetPrompt(context.Background(), "risk_agent", "stricter limits"))
	rec := post(e, "/reload", "{}")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"store"`)
	assert.Equal(t, "stricter limits", h.Prompt())

	req := httptest.NewRequest(http.MethodGet, "/.well-known/agent.json", nil)
	card := httptest.NewRecorder()
	e.ServeHTTP(card, req)
	assert.Contains(t, card.Body.String(), "stricter limits")
}

func TestQueryFromMessage(t *testing.T) {
	cases := map[string]string{
		"Assess the risk for: AAPL (US)":               "AAPL",
		"Run a technical analysis for: 005930.KS (KR)": "005930.KS",
		"삼성전자":                                         "삼성전자",
		"  TSLA  ":                                     "TSLA",
		"trailing colon:":                              "trailing colon:",
	}
	for in, want := range cases {
		assert.Equal(t, want, QueryFromMessage(in), in)
	}
}
