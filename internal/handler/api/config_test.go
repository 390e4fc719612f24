package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"TradeCouncil/internal/domain/models"
	"TradeCouncil/internal/usecase"
	xhttp "TradeCouncil/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutWeights(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	body := `{"weights":{"technical":0.2,"fundamental":0.2,"news":0.2,"expert":0.2,"risk":0.2}}`
	rec, env := f.do(t, http.MethodPut, "/api/config/weights", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap usecase.DecisionSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, 0.2, snap.Weights["news"])
	assert.Equal(t, "update", snap.Source)

	stored, found, err := f.store.GetWeights(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0.2, stored["risk"])

	rec, env = f.do(t, http.MethodGet, "/api/config/weights", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"news":0.2`)
}

func TestPutWeightsRejectsBadSum(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)
	before := f.handler.council.Config().Get()

	body := `{"weights":{"technical":0.5,"fundamental":0.5,"news":0.5,"expert":0,"risk":0}}`
	rec, env := f.do(t, http.MethodPut, "/api/config/weights", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_VALIDATION")
	assert.Equal(t, before.Version, f.handler.council.Config().Get().Version)
}

func TestPutThresholds(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, env := f.do(t, http.MethodPut, "/api/config/thresholds", `{"buy":0.4,"sell":-0.2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap usecase.DecisionSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, models.ThresholdConfig{Buy: 0.4, Sell: -0.2}, snap.Thresholds)

	rec, _ = f.do(t, http.MethodPut, "/api/config/thresholds", `{"buy":-0.1,"sell":0.2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = f.do(t, http.MethodPut, "/api/config/thresholds", `{"buy":0.4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/config/thresholds", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPromptRoundTripNotifiesPeer(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, _ := f.do(t, http.MethodGet, "/api/config/prompts/risk_agent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodPut, "/api/config/prompts/risk_agent", `{"prompt":"be careful"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"risk_agent"}, f.notifier.names())

	rec, env := f.do(t, http.MethodGet, "/api/config/prompts/risk_agent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "be careful")
}

func TestPromptUnknownPeer(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)

	rec, env := f.do(t, http.MethodPut, "/api/config/prompts/ghost", `{"prompt":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.notifier.names())

	var errs []xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_NOT_FOUND", errs[0].Code)
	assert.Equal(t, "ghost", errs[0].Params["peer"])
}

func TestListPrompts(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)
	require.NoError(t, f.store.SetPrompt(context.Background(), "risk_agent", "size conservatively"))

	rec, env := f.do(t, http.MethodGet, "/api/config/prompts", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Prompts map[string]string `json:"prompts"`
		Missing []string          `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, map[string]string{"risk_agent": "size conservatively"}, out.Prompts)
	assert.Equal(t, []string{"technical_agent", "fundamental_agent"}, out.Missing)
}

func TestReloadBroadcasts(t *testing.T) {
	f := newFixture(t, stubSizer{res: sizing()}, nil)
	require.NoError(t, f.store.SetThresholds(context.Background(), models.ThresholdConfig{Buy: 0.5, Sell: -0.5}))

	rec, env := f.do(t, http.MethodPost, "/api/config/reload", "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var out struct {
		Config   usecase.DecisionSnapshot `json:"config"`
		Notified []string                 `json:"notified"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 0.5, out.Config.Thresholds.Buy)
	assert.Equal(t, "store", out.Config.Source)
	assert.ElementsMatch(t, []string{"technical_agent", "fundamental_agent", "risk_agent"}, out.Notified)
	assert.Len(t, f.notifier.names(), 3)
}
