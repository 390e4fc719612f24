package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCountsOnPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordPeerCall("technical_agent", "SUCCESS", "", 1.2)
	r.RecordPeerCall("news_agent", "ERROR", "TIMEOUT", 90)
	r.RecordDecision("005930.KS", "KR", "BUY", 0.325)
	r.RecordError("resolve")
	r.RecordConfigReload(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.peerCalls.WithLabelValues("news_agent", "ERROR", "TIMEOUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("BUY", "KR")))
	assert.Equal(t, 0.325, testutil.ToFloat64(r.lastScore.WithLabelValues("005930.KS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.configReload.WithLabelValues("ok")))

	// A second recorder on a fresh registry must not collide.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
