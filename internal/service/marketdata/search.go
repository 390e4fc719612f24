package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"TradeCouncil/internal/domain/models"
)

type searchQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quoteType"`
}

type searchResponse struct {
	Quotes []searchQuote `json:"quotes"`
}

// Search queries Yahoo's symbol search and returns at most limit matches.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":           query,
			"quotesCount": fmt.Sprintf("%d", limit),
			"newsCount":   "0",
		}).
		SetResult(&body).
		Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("yahoo search %q: %w", query, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("yahoo search %q: status %d", query, resp.StatusCode())
	}

	out := make([]models.SearchResult, 0, len(body.Quotes))
	for _, q := range body.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		out = append(out, models.SearchResult{
			Symbol:    q.Symbol,
			Name:      name,
			Exchange:  q.Exchange,
			QuoteType: q.QuoteType,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
