package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"TradeCouncil/internal/domain/models"
	drepo "TradeCouncil/internal/domain/repository"
	applogger "TradeCouncil/pkg/logger"
)

const weightSumTolerance = 0.01

// DecisionSnapshot is one immutable version of weights and thresholds.
type DecisionSnapshot struct {
	Version    uint64                 `json:"version"`
	Weights    models.WeightConfig    `json:"weights"`
	Thresholds models.ThresholdConfig `json:"thresholds"`
	Source     string                 `json:"source"`
}

// DecisionConfig holds the process-wide snapshot. Readers get a whole
// snapshot without locking. Writers are serialized by mu so that a
// store read and the swap that follows it are never interleaved with
// another write.
type DecisionConfig struct {
	mu       sync.Mutex
	store    drepo.ConfigStore
	defaults DecisionSnapshot
	current  atomic.Pointer[DecisionSnapshot]
	version  atomic.Uint64
	logger   *applogger.Logger
	metrics  drepo.Metrics
}

// NewDecisionConfig starts from defaults. Call Reload to pick up stored
// values. store may be nil, in which case updates stay in memory.
func NewDecisionConfig(store drepo.ConfigStore, w models.WeightConfig, t models.ThresholdConfig, l *applogger.Logger, m drepo.Metrics) *DecisionConfig {
	if l == nil {
		l = applogger.Nop()
	}
	dc := &DecisionConfig{
		store:    store,
		defaults: DecisionSnapshot{Weights: w.Clone(), Thresholds: t, Source: "defaults"},
		logger:   l,
		metrics:  m,
	}
	dc.swap(dc.defaults.Weights, t, "defaults")
	return dc
}

// Get returns the current snapshot. The returned value must not be mutated.
func (dc *DecisionConfig) Get() DecisionSnapshot {
	return *dc.current.Load()
}

// Reload re-reads weights and thresholds from the store. Missing or
// unreadable entries fall back to the defaults.
func (dc *DecisionConfig) Reload(ctx context.Context) DecisionSnapshot {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	w, t := dc.defaults.Weights.Clone(), dc.defaults.Thresholds
	source := "defaults"
	ok := true

	if dc.store != nil {
		if sw, found, err := dc.store.GetWeights(ctx); err != nil {
			ok = false
			dc.logger.Warn("weights_load_failed", applogger.Error(err))
		} else if found {
			if verr := ValidateWeights(sw); verr != nil {
				ok = false
				dc.logger.Warn("weights_invalid", applogger.Error(verr))
			} else {
				w, source = sw, "store"
			}
		}
		if st, found, err := dc.store.GetThresholds(ctx); err != nil {
			ok = false
			dc.logger.Warn("thresholds_load_failed", applogger.Error(err))
		} else if found {
			if verr := ValidateThresholds(st); verr != nil {
				ok = false
				dc.logger.Warn("thresholds_invalid", applogger.Error(verr))
			} else {
				t, source = st, "store"
			}
		}
	}

	snap := dc.swap(w, t, source)
	if dc.metrics != nil {
		dc.metrics.RecordConfigReload(ok)
	}
	dc.logger.Info("config_reloaded",
		applogger.Any("weights", snap.Weights),
		applogger.Any("thresholds", snap.Thresholds),
		applogger.Int64("version", int64(snap.Version)),
		applogger.String("source", snap.Source),
	)
	return snap
}

// UpdateWeights validates, persists and applies new weights. Nothing
// changes if validation or persistence fails.
func (dc *DecisionConfig) UpdateWeights(ctx context.Context, w models.WeightConfig) (DecisionSnapshot, error) {
	if err := ValidateWeights(w); err != nil {
		return DecisionSnapshot{}, err
	}
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.store != nil {
		if err := dc.store.SetWeights(ctx, w); err != nil {
			return DecisionSnapshot{}, fmt.Errorf("persist weights: %w", err)
		}
	}
	cur := dc.Get()
	return dc.swap(w.Clone(), cur.Thresholds, "update"), nil
}

// UpdateThresholds validates, persists and applies new thresholds.
func (dc *DecisionConfig) UpdateThresholds(ctx context.Context, t models.ThresholdConfig) (DecisionSnapshot, error) {
	if err := ValidateThresholds(t); err != nil {
		return DecisionSnapshot{}, err
	}
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.store != nil {
		if err := dc.store.SetThresholds(ctx, t); err != nil {
			return DecisionSnapshot{}, fmt.Errorf("persist thresholds: %w", err)
		}
	}
	cur := dc.Get()
	return dc.swap(cur.Weights, t, "update"), nil
}

func (dc *DecisionConfig) swap(w models.WeightConfig, t models.ThresholdConfig, source string) DecisionSnapshot {
	snap := &DecisionSnapshot{
		Version:    dc.version.Add(1),
		Weights:    w,
		Thresholds: t,
		Source:     source,
	}
	dc.current.Store(snap)
	return *snap
}

// ValidateWeights requires exactly the known categories, each in [0,1],
// summing to 1 within tolerance.
func ValidateWeights(w models.WeightConfig) error {
	if len(w) != len(models.Categories) {
		return models.NewValidationError("weights", "expected %d categories, got %d", len(models.Categories), len(w))
	}
	var sum float64
	for _, c := range models.Categories {
		v, ok := w[c]
		if !ok {
			return models.NewValidationError("weights", "missing category %q", c)
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			return models.NewValidationError("weights."+c, "must be between 0 and 1")
		}
		sum += v
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return models.NewValidationError("weights", "must sum to 1.0 (got %.4f)", sum)
	}
	return nil
}

// ValidateThresholds requires both bounds in [-1,1] with sell below buy.
func ValidateThresholds(t models.ThresholdConfig) error {
	if t.Buy < -1 || t.Buy > 1 {
		return models.NewValidationError("buy", "must be between -1 and 1")
	}
	if t.Sell < -1 || t.Sell > 1 {
		return models.NewValidationError("sell", "must be between -1 and 1")
	}
	if t.Sell >= t.Buy {
		return models.NewValidationError("sell", "must be below buy (%.2f >= %.2f)", t.Sell, t.Buy)
	}
	return nil
}
