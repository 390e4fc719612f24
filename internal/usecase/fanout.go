package usecase

import (
	"context"
	"sync"
	"time"

	"TradeCouncil/internal/domain/models"
	domsvc "TradeCouncil/internal/domain/service"
	applogger "TradeCouncil/pkg/logger"
)

// FanOut queries every registered peer concurrently and waits for all of
// them to settle. A failing peer only affects its own slot.
type FanOut struct {
	registry *PeerRegistry
	caller   domsvc.PeerCaller
	logger   *applogger.Logger
}

// NewFanOut creates a coordinator over registry.
func NewFanOut(registry *PeerRegistry, caller domsvc.PeerCaller, l *applogger.Logger) *FanOut {
	if l == nil {
		l = applogger.Nop()
	}
	return &FanOut{registry: registry, caller: caller, logger: l}
}

var _ domsvc.Analyzer = (*FanOut)(nil)

// Peers returns the registered peers.
func (f *FanOut) Peers() []models.Peer {
	return f.registry.Peers()
}

// Analyze never fails because of peer outcomes; the error return is kept
// for context cancellation before any call is issued.
func (f *FanOut) Analyze(ctx context.Context, inst models.Instrument) (*models.AggregatedAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	results := make([]models.PeerCallResult, len(f.registry.peers))
	var wg sync.WaitGroup
	for i, rp := range f.registry.peers {
		wg.Add(1)
		go func(i int, rp registeredPeer) {
			defer wg.Done()
			results[i] = f.callOne(ctx, rp, inst)
		}(i, rp)
	}
	wg.Wait()

	out := &models.AggregatedAnalysis{
		Instrument:  inst,
		PeerResults: make(map[string]models.PeerCallResult, len(results)),
		TotalCount:  len(results),
	}
	for _, r := range results {
		out.PeerResults[r.PeerName] = r
		if r.OK() {
			out.SuccessCount++
		}
	}

	f.logger.Info("parallel_analysis_complete",
		applogger.String("symbol", inst.Symbol),
		applogger.Int("success", out.SuccessCount),
		applogger.Int("total", out.TotalCount),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (f *FanOut) callOne(ctx context.Context, rp registeredPeer, inst models.Instrument) (res models.PeerCallResult) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("peer_call_panic", applogger.String("peer", rp.peer.Name), applogger.Any("panic", r))
			res = models.PeerCallResult{
				PeerName: rp.peer.Name,
				Category: rp.peer.Category,
				Status:   models.StatusError,
				Kind:     models.ErrorKindParse,
				Error:    "peer call panicked",
			}
		}
	}()

	msg, err := rp.message(inst)
	if err != nil {
		return models.PeerCallResult{
			PeerName: rp.peer.Name,
			Category: rp.peer.Category,
			Status:   models.StatusError,
			Kind:     models.ErrorKindParse,
			Error:    err.Error(),
		}
	}
	res = f.caller.Call(ctx, rp.peer, msg)
	res.PeerName = rp.peer.Name
	res.Category = rp.peer.Category
	return res
}
