package repository

import (
	"context"
	"time"

	"TradeCouncil/internal/domain/models"
)

// ConfigStore persists weights, thresholds and prompts shared with peers.
// Getters report found=false when nothing is stored yet.
type ConfigStore interface {
	GetWeights(ctx context.Context) (w models.WeightConfig, found bool, err error)
	SetWeights(ctx context.Context, w models.WeightConfig) error
	GetThresholds(ctx context.Context) (t models.ThresholdConfig, found bool, err error)
	SetThresholds(ctx context.Context, t models.ThresholdConfig) error
	GetPrompt(ctx context.Context, peer string) (text string, found bool, err error)
	SetPrompt(ctx context.Context, peer, text string) error
	ListPrompts(ctx context.Context, peers []string) (map[string]string, error)
	SeedDefaults(ctx context.Context, defaults map[string]interface{}) (int, error)
}

// DecisionStore keeps an audit history of decisions.
type DecisionStore interface {
	Store(ctx context.Context, d *models.TradeDecision) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeDecision, error)
	Health(ctx context.Context) error
}

// DecisionPublisher streams decisions to downstream consumers.
type DecisionPublisher interface {
	Publish(ctx context.Context, d *models.TradeDecision) error
	Close() error
}

// PeerNotifier tells a peer to re-read its configuration.
type PeerNotifier interface {
	NotifyReload(ctx context.Context, peer models.Peer)
}

type Metrics interface {
	RecordPeerCall(peer, status, kind string, seconds float64)
	RecordDecision(symbol, market, action string, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordConfigReload(ok bool)
}
