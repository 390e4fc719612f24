//go:build wireinject
// +build wireinject

package di

import (
	"TradeCouncil/internal/usecase"
	"TradeCouncil/pkg/config"
	"TradeCouncil/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideKV,
	ProvideConfigStore,
	ProvideMarketData,
	ProvideResolver,
	ProvidePositionSizer,
)

var decisionSet = wire.NewSet(
	infraSet,
	ProvideRegistry,
	ProvideMetrics,
	ProvidePeerRegistry,
	ProvidePeerClient,
	ProvideFanOut,
	ProvideDecisionPublisher,
	ProvideDecisionStore,
	ProvideCouncil,
)

// councilSet loads stored settings in the load_config start hook.
var councilSet = wire.NewSet(decisionSet, ProvideDecisionConfig)

// InitializeApp wires the orchestrator API server.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		councilSet,
		ProvideNotifier,
		ProvideLimiter,
		ProvideCouncilHandler,
		ProvideServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeCouncil wires the decision cycle without an HTTP server, for
// one-shot CLI commands.
func InitializeCouncil(cfg *config.Config) (*usecase.Council, func(), error) {
	wire.Build(decisionSet, ProvideStoredDecisionConfig)
	return nil, nil, nil
}

// InitializeRiskPeer wires the risk peer server.
func InitializeRiskPeer(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		ProvideRiskPeerHandler,
		ProvideRiskPeerApp,
	)
	return nil, nil, nil
}
