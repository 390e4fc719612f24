package repository

import (
	"context"
	"errors"
	"time"

	"TradeCouncil/internal/domain/models"
)

// ErrNoQuote means the provider has no live price for the symbol.
var ErrNoQuote = errors.New("no quote for symbol")

// MarketData provides read-only access to quotes, daily candles and symbol
// search.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	History(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}
