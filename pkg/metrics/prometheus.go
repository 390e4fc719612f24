package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	peerCalls    *prometheus.CounterVec
	peerLatency  *prometheus.HistogramVec
	decisions    *prometheus.CounterVec
	lastScore    *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
	opLatency    *prometheus.HistogramVec
	configReload *prometheus.CounterVec
}

// New creates a recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		peerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradecouncil_peer_calls_total",
				Help: "Peer RPC calls by outcome",
			},
			[]string{"peer", "status", "kind"},
		),
		peerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradecouncil_peer_call_duration_seconds",
				Help:    "Peer RPC call duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
			},
			[]string{"peer"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradecouncil_decisions_total",
				Help: "Trade decisions by action",
			},
			[]string{"action", "market"},
		),
		lastScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradecouncil_last_final_score",
				Help: "Most recent weighted score per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradecouncil_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		opLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradecouncil_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		configReload: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradecouncil_config_reloads_total",
				Help: "Config snapshot reloads by result",
			},
			[]string{"result"},
		),
	}
}

// RecordPeerCall records one settled peer call.
func (r *Recorder) RecordPeerCall(peer, status, kind string, seconds float64) {
	r.peerCalls.WithLabelValues(peer, status, kind).Inc()
	r.peerLatency.WithLabelValues(peer).Observe(seconds)
}

// RecordDecision records a produced decision.
func (r *Recorder) RecordDecision(symbol, market, action string, score float64) {
	r.decisions.WithLabelValues(action, market).Inc()
	r.lastScore.WithLabelValues(symbol).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.opLatency.WithLabelValues(op).Observe(seconds)
}

// RecordConfigReload records a snapshot reload attempt.
func (r *Recorder) RecordConfigReload(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.configReload.WithLabelValues(result).Inc()
}
