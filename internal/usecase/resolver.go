package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"TradeCouncil/internal/domain/models"
	drepo "TradeCouncil/internal/domain/repository"
	domsvc "TradeCouncil/internal/domain/service"
	"TradeCouncil/pkg/cache"
	applogger "TradeCouncil/pkg/logger"
	"TradeCouncil/pkg/util"
)

const (
	suffixKOSPI  = ".KS"
	suffixKOSDAQ = ".KQ"

	resolveCachePrefix = "resolve"
)

var (
	canonicalDomestic = regexp.MustCompile(`^\d{6}\.(KS|KQ)$`)
	domesticCode      = regexp.MustCompile(`^\d{6}$`)
	foreignTicker     = regexp.MustCompile(`^[A-Z]{1,5}(-[A-Z])?$`)

	// Yahoo exchange codes for KOSPI and KOSDAQ.
	domesticExchanges = map[string]bool{"KSC": true, "KOE": true}

	// Yahoo exchange codes for US listings.
	foreignExchanges = map[string]bool{
		"NMS": true, "NYQ": true, "NGM": true, "NCM": true,
		"NAS": true, "NYSE": true, "NASDAQ": true,
	}

	// Listings outside both markets; search hits with these suffixes are skipped.
	otherMarketSuffixes = []string{".T", ".HK", ".L", ".PA", ".DE"}
)

// strategy reports ok=false to pass the query to the next strategy.
type strategy struct {
	name    string
	resolve func(ctx context.Context, q string) (models.Instrument, bool)
}

// Resolver normalizes free-form queries into canonical instruments.
type Resolver struct {
	data        drepo.MarketData
	cache       cache.Service
	cacheTTL    time.Duration
	searchLimit int
	logger      *applogger.Logger
	strategies  []strategy
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithResolverCache caches successful resolutions for ttl.
func WithResolverCache(c cache.Service, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithSearchLimit bounds the fallback search result count.
func WithSearchLimit(n int) ResolverOption {
	return func(r *Resolver) { r.searchLimit = n }
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l *applogger.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver backed by data for quote checks and search.
func NewResolver(data drepo.MarketData, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		data:        data,
		searchLimit: 10,
		logger:      applogger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.strategies = []strategy{
		{name: "canonical", resolve: r.canonical},
		{name: "domestic_code", resolve: r.domesticCode},
		{name: "foreign_ticker", resolve: r.foreignTicker},
		{name: "alias", resolve: r.alias},
		{name: "search", resolve: r.search},
	}
	return r
}

var _ domsvc.InstrumentResolver = (*Resolver)(nil)

// CleanQuery trims the query and strips trailing request phrases.
func CleanQuery(query string) string {
	return util.StripSuffixes(strings.TrimSpace(query), requestSuffixes)
}

// Resolve tries each strategy in order and returns ErrNotFound when none
// matched.
func (r *Resolver) Resolve(ctx context.Context, query string) (models.Instrument, error) {
	q := CleanQuery(query)
	if q == "" {
		return models.Instrument{}, models.NewValidationError("query", "must not be empty")
	}

	key := cache.GenerateKey(resolveCachePrefix, cache.HashKey(q))
	if r.cache != nil {
		var inst models.Instrument
		if err := r.cache.Get(ctx, key, &inst); err == nil && inst.Symbol != "" {
			return inst, nil
		}
	}

	for _, s := range r.strategies {
		inst, ok := s.resolve(ctx, q)
		if !ok {
			continue
		}
		r.logger.Debug("ticker_resolved",
			applogger.String("query", q),
			applogger.String("symbol", inst.Symbol),
			applogger.String("strategy", s.name),
		)
		if r.cache != nil {
			if err := r.cache.Set(ctx, key, inst, r.cacheTTL); err != nil {
				r.logger.Warn("resolve_cache_set_failed", applogger.Error(err))
			}
		}
		return inst, nil
	}
	if err := ctx.Err(); err != nil {
		return models.Instrument{}, err
	}
	return models.Instrument{}, fmt.Errorf("%w: %q", models.ErrNotFound, q)
}

func (r *Resolver) canonical(_ context.Context, q string) (models.Instrument, bool) {
	sym := strings.ToUpper(q)
	if !canonicalDomestic.MatchString(sym) {
		return models.Instrument{}, false
	}
	return models.Instrument{Symbol: sym, Market: models.MarketDomestic}, true
}

// domesticCode tries KOSPI then KOSDAQ. A code with no live quote on
// either board is left to the later strategies.
func (r *Resolver) domesticCode(ctx context.Context, q string) (models.Instrument, bool) {
	if !domesticCode.MatchString(q) {
		return models.Instrument{}, false
	}
	for _, suffix := range []string{suffixKOSPI, suffixKOSDAQ} {
		sym := q + suffix
		if r.hasQuote(ctx, sym) {
			return models.Instrument{Symbol: sym, Market: models.MarketDomestic}, true
		}
	}
	return models.Instrument{}, false
}

func (r *Resolver) foreignTicker(ctx context.Context, q string) (models.Instrument, bool) {
	sym := strings.ToUpper(q)
	if !foreignTicker.MatchString(sym) || !r.hasQuote(ctx, sym) {
		return models.Instrument{}, false
	}
	return models.Instrument{Symbol: sym, Market: models.MarketForeign}, true
}

func (r *Resolver) alias(_ context.Context, q string) (models.Instrument, bool) {
	key := strings.ToLower(q)
	if sym, ok := domesticAliases[key]; ok {
		return models.Instrument{Symbol: sym, Market: models.MarketDomestic}, true
	}
	if sym, ok := foreignAliases[key]; ok {
		return models.Instrument{Symbol: sym, Market: models.MarketForeign}, true
	}
	return models.Instrument{}, false
}

// search errors are treated as no match.
func (r *Resolver) search(ctx context.Context, q string) (models.Instrument, bool) {
	if r.data == nil {
		return models.Instrument{}, false
	}
	results, err := r.data.Search(ctx, q, r.searchLimit)
	if err != nil {
		r.logger.Warn("ticker_search_failed", applogger.String("query", q), applogger.Error(err))
		return models.Instrument{}, false
	}
	for _, res := range results {
		if inst, ok := classify(res); ok {
			return inst, true
		}
	}
	return models.Instrument{}, false
}

// classify maps a search hit to an instrument. Hits listed on neither
// market are rejected.
func classify(res models.SearchResult) (models.Instrument, bool) {
	sym := strings.ToUpper(strings.TrimSpace(res.Symbol))
	if sym == "" {
		return models.Instrument{}, false
	}
	exchange := strings.ToUpper(res.Exchange)
	switch {
	case hasDomesticSuffix(sym) || domesticExchanges[exchange]:
		return models.Instrument{Symbol: sym, Market: models.MarketDomestic}, true
	case foreignExchanges[exchange]:
		return models.Instrument{Symbol: sym, Market: models.MarketForeign}, true
	case hasOtherMarketSuffix(sym):
		return models.Instrument{}, false
	default:
		return models.Instrument{Symbol: sym, Market: models.MarketForeign}, true
	}
}

func (r *Resolver) hasQuote(ctx context.Context, symbol string) bool {
	if r.data == nil {
		return false
	}
	q, err := r.data.Quote(ctx, symbol)
	if err != nil {
		if !errors.Is(err, drepo.ErrNoQuote) {
			r.logger.Debug("quote_check_failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
		return false
	}
	return q != nil && q.Price > 0
}

func hasDomesticSuffix(sym string) bool {
	return strings.HasSuffix(sym, suffixKOSPI) || strings.HasSuffix(sym, suffixKOSDAQ)
}

func hasOtherMarketSuffix(sym string) bool {
	for _, suffix := range otherMarketSuffixes {
		if strings.HasSuffix(sym, suffix) {
			return true
		}
	}
	return false
}
