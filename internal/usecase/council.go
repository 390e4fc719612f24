package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradeCouncil/internal/domain/models"
	drepo "TradeCouncil/internal/domain/repository"
	domsvc "TradeCouncil/internal/domain/service"
	applogger "TradeCouncil/pkg/logger"
)

const sinkTimeout = 5 * time.Second

// AnalyzeParams is one decision request.
type AnalyzeParams struct {
	Query          string
	AccountBalance float64
	RiskPerTrade   float64
}

// AnalyzeResult is a decision with the data it was derived from.
type AnalyzeResult struct {
	Decision    *models.TradeDecision        `json:"decision"`
	Analysis    *models.AggregatedAnalysis   `json:"analysis"`
	Signals     map[string]ParsedSignal      `json:"signals"`
	Sizing      *models.PositionSizingResult `json:"sizing,omitempty"`
	SizingError string                       `json:"sizing_error,omitempty"`
	Config      DecisionSnapshot             `json:"config"`
}

// Council runs the full decision cycle: resolve, fan out, size, decide.
type Council struct {
	resolver  domsvc.InstrumentResolver
	analyzer  domsvc.Analyzer
	sizer     domsvc.PositionSizer
	config    *DecisionConfig
	publisher drepo.DecisionPublisher
	store     drepo.DecisionStore
	metrics   drepo.Metrics
	logger    *applogger.Logger
	now       func() time.Time
}

// CouncilOption configures Council.
type CouncilOption func(*Council)

// WithPublisher streams every decision to p.
func WithPublisher(p drepo.DecisionPublisher) CouncilOption {
	return func(c *Council) { c.publisher = p }
}

// WithDecisionStore records every decision in s.
func WithDecisionStore(s drepo.DecisionStore) CouncilOption {
	return func(c *Council) { c.store = s }
}

// WithCouncilMetrics sets the metrics sink.
func WithCouncilMetrics(m drepo.Metrics) CouncilOption {
	return func(c *Council) { c.metrics = m }
}

// WithCouncilLogger sets the logger.
func WithCouncilLogger(l *applogger.Logger) CouncilOption {
	return func(c *Council) { c.logger = l }
}

// NewCouncil wires the decision cycle.
func NewCouncil(resolver domsvc.InstrumentResolver, analyzer domsvc.Analyzer, sizer domsvc.PositionSizer, cfg *DecisionConfig, opts ...CouncilOption) *Council {
	c := &Council{
		resolver: resolver,
		analyzer: analyzer,
		sizer:    sizer,
		config:   cfg,
		logger:   applogger.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Peers returns the registered peers.
func (c *Council) Peers() []models.Peer { return c.analyzer.Peers() }

// Config returns the decision settings handle.
func (c *Council) Config() *DecisionConfig { return c.config }

// Resolve exposes the resolver.
func (c *Council) Resolve(ctx context.Context, query string) (models.Instrument, error) {
	return c.resolver.Resolve(ctx, query)
}

// Size resolves query and sizes a position for it.
func (c *Council) Size(ctx context.Context, query string, balance, riskPerTrade float64) (*models.PositionSizingResult, error) {
	inst, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.sizer.Size(ctx, inst, balance, riskPerTrade)
}

// Analyze produces a decision whenever the instrument resolves, even if
// every peer fails. Only resolution errors are returned.
func (c *Council) Analyze(ctx context.Context, p AnalyzeParams) (*AnalyzeResult, error) {
	start := time.Now()

	inst, err := c.resolver.Resolve(ctx, p.Query)
	if err != nil {
		c.recordError("resolve")
		return nil, err
	}
	snap := c.config.Get()

	var (
		wg        sync.WaitGroup
		analysis  *models.AggregatedAnalysis
		fanErr    error
		sizing    *models.PositionSizingResult
		sizingErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		analysis, fanErr = c.analyzer.Analyze(ctx, inst)
	}()
	go func() {
		defer wg.Done()
		sizing, sizingErr = c.sizer.Size(ctx, inst, p.AccountBalance, p.RiskPerTrade)
	}()
	wg.Wait()

	if fanErr != nil {
		c.recordError("fanout")
		return nil, fmt.Errorf("fan-out for %s: %w", inst.Symbol, fanErr)
	}

	scores := make(map[string]float64, analysis.SuccessCount)
	signals := make(map[string]string, analysis.SuccessCount)
	parsed := make(map[string]ParsedSignal, analysis.SuccessCount)
	for cat, res := range analysis.Successful() {
		ps := ParseSignal(res.Payload)
		parsed[cat] = ps
		scores[cat] = ps.Score
		signals[cat] = ps.Signal
	}

	result := &AnalyzeResult{
		Analysis: analysis,
		Signals:  parsed,
		Config:   snap,
	}
	if sizingErr != nil {
		result.SizingError = sizingErr.Error()
		c.logger.Warn("position_sizing_failed",
			applogger.String("symbol", inst.Symbol),
			applogger.Error(sizingErr),
		)
	} else {
		result.Sizing = sizing
	}

	d := BuildDecision(DecisionInput{
		Instrument: inst,
		Scores:     scores,
		Signals:    signals,
		Sizing:     result.Sizing,
		Snapshot:   snap,
		Success:    analysis.SuccessCount,
		Total:      analysis.TotalCount,
		Now:        c.now(),
	})
	result.Decision = d

	c.logger.Info("trade_decision",
		applogger.String("decision_id", d.ID),
		applogger.String("symbol", inst.Symbol),
		applogger.String("action", string(d.Action)),
		applogger.Float64("final_score", d.FinalScore),
		applogger.Int64("quantity", d.Quantity),
		applogger.Int("success", d.SuccessCount),
		applogger.Int("total", d.TotalCount),
		applogger.Int64("config_version", int64(snap.Version)),
	)
	if c.metrics != nil {
		c.metrics.RecordDecision(inst.Symbol, string(inst.Market), string(d.Action), d.FinalScore)
		c.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	}

	c.emit(ctx, d)
	return result, nil
}

// History returns stored decisions, newest first.
func (c *Council) History(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeDecision, error) {
	if c.store == nil {
		return nil, fmt.Errorf("%w: decision history is not enabled", models.ErrDataUnavailable)
	}
	return c.store.Query(ctx, symbol, from, to, limit)
}

// emit hands d to the optional sinks. Sink failures never affect the
// decision.
func (c *Council) emit(ctx context.Context, d *models.TradeDecision) {
	if c.publisher == nil && c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, d); err != nil {
			c.recordError("publish")
			c.logger.Warn("decision_publish_failed", applogger.String("decision_id", d.ID), applogger.Error(err))
		}
	}
	if c.store != nil {
		if err := c.store.Store(ctx, d); err != nil {
			c.recordError("store")
			c.logger.Warn("decision_store_failed", applogger.String("decision_id", d.ID), applogger.Error(err))
		}
	}
}

func (c *Council) recordError(kind string) {
	if c.metrics != nil {
		c.metrics.RecordError(kind)
	}
}
