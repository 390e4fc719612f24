package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"golang.org/x/time/rate"

	"TradeCouncil/internal/domain/models"
	drepo "TradeCouncil/internal/domain/repository"
	applogger "TradeCouncil/pkg/logger"
)

const (
	DefaultSearchURL = "https://query2.finance.yahoo.com"
	searchPath       = "/v1/finance/search"
	userAgent        = "Mozilla/5.0 (compatible; TradeCouncil/1.0)"
)

type quoteFunc func(symbol string) (*finance.Quote, error)
type historyFunc func(symbol string, from, to time.Time) ([]models.Candle, error)

// Config holds Yahoo adapter settings.
type Config struct {
	SearchURL string
	Timeout   time.Duration
	RateLimit float64 // requests per second shared by all calls
	RateBurst int
}

// Client implements MarketData on top of Yahoo Finance.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *applogger.Logger

	quote   quoteFunc
	history historyFunc
}

// New creates a Yahoo Finance market data adapter.
func New(cfg Config, l *applogger.Logger) *Client {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	if l == nil {
		l = applogger.Nop()
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.SearchURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    hc,
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
		logger:  l,
		quote:   quote.Get,
		history: fetchChart,
	}
}

var _ drepo.MarketData = (*Client)(nil)

// Quote returns the latest regular market price for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	q, err := c.quote(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return nil, drepo.ErrNoQuote
	}
	return &models.Quote{
		Symbol:   q.Symbol,
		Name:     q.ShortName,
		Price:    q.RegularMarketPrice,
		Exchange: q.FullExchangeName,
	}, nil
}

// History returns daily candles between from and to, oldest first.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	candles, err := c.history(symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, err)
	}
	c.logger.Debug("yahoo_history",
		applogger.String("symbol", symbol),
		applogger.Int("candles", len(candles)),
	)
	return candles, nil
}

func fetchChart(symbol string, from, to time.Time) ([]models.Candle, error) {
	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&from),
		End:      datetime.New(&to),
		Interval: datetime.OneDay,
	})

	var out []models.Candle
	for iter.Next() {
		bar := iter.Bar()
		if bar.Close.IsZero() {
			continue
		}
		out = append(out, models.Candle{
			Time:  time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:  bar.Open.InexactFloat64(),
			High:  bar.High.InexactFloat64(),
			Low:   bar.Low.InexactFloat64(),
			Close: bar.Close.InexactFloat64(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
