package service

import (
	"context"

	"TradeCouncil/internal/domain/models"
)

// PeerCaller performs one RPC round trip to a peer. Failures are reported in
// the returned result, never as a Go error.
type PeerCaller interface {
	Call(ctx context.Context, peer models.Peer, message string) models.PeerCallResult
}

// InstrumentResolver maps a free-form query to a canonical instrument.
type InstrumentResolver interface {
	Resolve(ctx context.Context, query string) (models.Instrument, error)
}

// PositionSizer computes risk-based position sizing for an instrument.
type PositionSizer interface {
	Size(ctx context.Context, inst models.Instrument, balance, riskPerTrade float64) (*models.PositionSizingResult, error)
}

// Analyzer fans a request out to every registered peer.
type Analyzer interface {
	Analyze(ctx context.Context, inst models.Instrument) (*models.AggregatedAnalysis, error)
	Peers() []models.Peer
}
