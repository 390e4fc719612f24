package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"TradeCouncil/internal/domain/models"
	"TradeCouncil/internal/domain/repository"
	xhttp "TradeCouncil/pkg/http"
	applogger "TradeCouncil/pkg/logger"
	"TradeCouncil/pkg/util"
)

const (
	DefaultMaxResponseLength = 3000
	DefaultCallTimeout       = 90 * time.Second

	maxBodyBytes = 8 << 20
)

// Option configures Client.
type Option func(*Client)

// Client sends message/send calls to peers.
type Client struct {
	http       *xhttp.Client
	timeout    time.Duration
	maxLen     int
	extractors []Extractor
	newID      func() string
	logger     *applogger.Logger
	metrics    repository.Metrics
}

// NewClient creates a peer RPC client. The per-call timeout is enforced
// through the request context so every call gets its own budget.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:    DefaultCallTimeout,
		maxLen:     DefaultMaxResponseLength,
		extractors: DefaultExtractors,
		newID:      NewRequestID,
		logger:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(0))
	}
	return c
}

// WithCallTimeout sets the per-call budget.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxResponseLength sets the truncation limit in characters.
func WithMaxResponseLength(n int) Option {
	return func(c *Client) { c.maxLen = n }
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records per-call outcomes.
func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithIDGenerator overrides request id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// Call sends message to peer and always returns a result; failures are
// classified into ErrorKind rather than returned.
func (c *Client) Call(ctx context.Context, peer models.Peer, message string) models.PeerCallResult {
	start := time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id := c.newID()
	c.logger.Debug("peer_call_start",
		applogger.String("peer", peer.Name),
		applogger.String("url", peer.URL),
		applogger.String("request_id", id),
	)

	res := c.do(ctx, peer, id, message)
	res.PeerName = peer.Name
	res.Category = peer.Category
	res.Duration = time.Since(start)

	c.record(res)
	return res
}

func (c *Client) do(ctx context.Context, peer models.Peer, id, message string) models.PeerCallResult {
	req, err := NewSendMessageRequest(id, message)
	if err != nil {
		return failure(models.ErrorKindParse, fmt.Sprintf("encode request: %v", err))
	}

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     peer.URL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    req,
	})
	if err != nil {
		return failure(classify(ctx, err), err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		kind := classify(ctx, err)
		return failure(kind, fmt.Sprintf("read body: %v", err))
	}

	var env Response
	decodeErr := json.Unmarshal(body, &env)

	// An error member wins regardless of the HTTP status.
	if decodeErr == nil && hasError(env.Error) {
		return failure(models.ErrorKindRPC, compact(env.Error))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(models.ErrorKindRPC, fmt.Sprintf("http status %d: %s", resp.StatusCode, util.Preview(string(body), 200)))
	}
	if decodeErr != nil {
		return failure(models.ErrorKindParse, fmt.Sprintf("malformed envelope: %v", decodeErr))
	}

	text, _, ok := ExtractText(env.Result, c.extractors)
	if !ok {
		return failure(models.ErrorKindEmpty, "empty response")
	}

	text, truncated := util.Truncate(text, c.maxLen)
	return models.PeerCallResult{
		Status:    models.StatusSuccess,
		Payload:   text,
		Truncated: truncated,
	}
}

func (c *Client) record(res models.PeerCallResult) {
	if res.OK() {
		c.logger.Info("peer_call_success",
			applogger.String("peer", res.PeerName),
			applogger.Int("response_length", len(res.Payload)),
			applogger.Bool("truncated", res.Truncated),
			applogger.Duration("duration_ms", res.Duration),
		)
	} else {
		c.logger.Warn("peer_call_failed",
			applogger.String("peer", res.PeerName),
			applogger.String("kind", string(res.Kind)),
			applogger.String("error", res.Error),
			applogger.Duration("duration_ms", res.Duration),
		)
	}
	if c.metrics != nil {
		c.metrics.RecordPeerCall(res.PeerName, string(res.Status), string(res.Kind), res.Duration.Seconds())
	}
}

func failure(kind models.ErrorKind, msg string) models.PeerCallResult {
	return models.PeerCallResult{
		Status: models.StatusError,
		Kind:   kind,
		Error:  msg,
	}
}

// classify maps a transport error onto TIMEOUT or CONNECT_ERROR.
func classify(ctx context.Context, err error) models.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.ErrorKindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return models.ErrorKindTimeout
	}
	return models.ErrorKindConnect
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
