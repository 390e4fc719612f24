package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TradeCouncil/internal/domain/models"
	drepo "TradeCouncil/internal/domain/repository"
	domsvc "TradeCouncil/internal/domain/service"
	applogger "TradeCouncil/pkg/logger"
)

const (
	atrPeriod          = 14
	stopATRMultiple    = 2.0
	rewardRatio        = 1.5
	highConfidenceBars = 60

	highVolatilityPct   = 5.0
	mediumVolatilityPct = 2.5
)

// SizingConfig holds account defaults for position sizing.
type SizingConfig struct {
	AccountBalance float64
	RiskPerTrade   float64
	MaxExposure    float64 // max fraction of balance in one instrument
	HistoryDays    int
}

// PositionSizer computes ATR-based position sizes from daily history.
type PositionSizer struct {
	data   drepo.MarketData
	cfg    SizingConfig
	logger *applogger.Logger
	now    func() time.Time
}

// NewPositionSizer creates a sizer over a market data provider.
func NewPositionSizer(data drepo.MarketData, cfg SizingConfig, l *applogger.Logger) *PositionSizer {
	if cfg.MaxExposure <= 0 {
		cfg.MaxExposure = 0.2
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 90
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &PositionSizer{data: data, cfg: cfg, logger: l, now: time.Now}
}

var _ domsvc.PositionSizer = (*PositionSizer)(nil)

// Defaults returns the configured account balance and risk per trade.
func (s *PositionSizer) Defaults() (balance, riskPerTrade float64) {
	return s.cfg.AccountBalance, s.cfg.RiskPerTrade
}

// Size returns ErrDataUnavailable when fewer than 14 daily bars exist.
// Non-positive balance or risk fall back to the configured defaults.
func (s *PositionSizer) Size(ctx context.Context, inst models.Instrument, balance, riskPerTrade float64) (*models.PositionSizingResult, error) {
	if balance <= 0 {
		balance = s.cfg.AccountBalance
	}
	if riskPerTrade <= 0 {
		riskPerTrade = s.cfg.RiskPerTrade
	}
	if riskPerTrade > 1 {
		return nil, models.NewValidationError("risk_per_trade", "must be a fraction between 0 and 1")
	}

	symbol := providerSymbol(inst)
	to := s.now()
	from := to.AddDate(0, 0, -s.cfg.HistoryDays)

	candles, err := s.data.History(ctx, symbol, from, to)
	if err != nil {
		s.logger.Warn("sizing_history_failed", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", models.ErrDataUnavailable, symbol, err)
	}
	if len(candles) < atrPeriod {
		return nil, fmt.Errorf("%w: %s has %d daily bars, need %d", models.ErrDataUnavailable, symbol, len(candles), atrPeriod)
	}

	price := candles[len(candles)-1].Close
	if price <= 0 {
		return nil, fmt.Errorf("%w: %s has no valid closing price", models.ErrDataUnavailable, symbol)
	}

	atr := ATR(candles, atrPeriod)
	res := SizePosition(price, atr, balance, riskPerTrade, s.cfg.MaxExposure)
	res.Symbol = symbol
	res.HistoryPoints = len(candles)
	res.Confidence = 0.5
	if len(candles) >= highConfidenceBars {
		res.Confidence = 0.8
	}

	s.logger.Debug("position_sized",
		applogger.String("symbol", symbol),
		applogger.Float64("atr", res.ATR),
		applogger.Int64("position_size", res.PositionSize),
		applogger.String("risk_level", string(res.RiskLevel)),
	)
	return res, nil
}

// SizePosition applies the sizing rules to a price and ATR. Prices are
// rounded to two decimals.
func SizePosition(price, atr, balance, riskPerTrade, maxExposure float64) *models.PositionSizingResult {
	stop := atr * stopATRMultiple
	target := stop * rewardRatio
	maxRisk := balance * riskPerTrade

	capShares := int64(math.Floor(balance * maxExposure / price))
	var size int64
	if stop > 0 {
		size = int64(math.Floor(maxRisk / stop))
		if size > capShares {
			size = capShares
		}
	} else {
		size = capShares
	}
	if size < 1 && maxRisk > 0 {
		size = 1
	}

	volPct := atr / price * 100
	level := models.RiskLow
	switch {
	case volPct > highVolatilityPct:
		level = models.RiskHigh
	case volPct > mediumVolatilityPct:
		level = models.RiskMedium
	}

	var rr float64
	if stop > 0 {
		rr = target / stop
	}

	return &models.PositionSizingResult{
		CurrentPrice:    roundPrice(price),
		ATR:             roundPrice(atr),
		VolatilityPct:   roundPrice(volPct),
		PositionSize:    size,
		PositionValue:   roundPrice(float64(size) * price),
		StopLossPrice:   roundPrice(price - stop),
		TakeProfitPrice: roundPrice(price + target),
		StopDistance:    roundPrice(stop),
		RiskLevel:       level,
		MaxLossAmount:   roundPrice(float64(size) * stop),
		RiskRewardRatio: roundPrice(rr),
		AccountBalance:  balance,
		RiskPerTrade:    riskPerTrade,
	}
}

// ATR is the simple mean of the last period true ranges. The first bar's
// true range is its high-low span.
func ATR(candles []models.Candle, period int) float64 {
	if len(candles) == 0 || period <= 0 {
		return 0
	}
	trs := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			prev := candles[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(c.High-prev), math.Abs(c.Low-prev)))
		}
		trs[i] = tr
	}
	if period > len(trs) {
		period = len(trs)
	}
	var sum float64
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period)
}

// SignalForRisk maps a risk tier to the grade the risk peer reports.
func SignalForRisk(level models.RiskLevel) models.Signal {
	switch level {
	case models.RiskLow:
		return models.SignalBuy
	case models.RiskHigh:
		return models.SignalSell
	default:
		return models.SignalHold
	}
}

// IsDataUnavailable reports whether err means sizing had no usable data.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, models.ErrDataUnavailable)
}

func providerSymbol(inst models.Instrument) string {
	sym := strings.ToUpper(strings.TrimSpace(inst.Symbol))
	if inst.Market == models.MarketDomestic && !hasDomesticSuffix(sym) && domesticCode.MatchString(sym) {
		return sym + suffixKOSPI
	}
	return sym
}

func roundPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
