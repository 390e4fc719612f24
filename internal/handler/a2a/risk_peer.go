package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"

	"TradeCouncil/internal/domain/models"
	domrepo "TradeCouncil/internal/domain/repository"
	domsvc "TradeCouncil/internal/domain/service"
	rpc "TradeCouncil/internal/service/a2a"
	"TradeCouncil/internal/usecase"
	xhttp "TradeCouncil/pkg/http"
	applogger "TradeCouncil/pkg/logger"

	"github.com/labstack/echo/v4"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeNotFound       = -32001
	codeDataMissing    = -32002
	codeInternal       = -32603
)

// MaxBodyBytes is the largest request body read by MessageSend.
const MaxBodyBytes = 1 << 20

var trailingParens = regexp.MustCompile(`\s*\([^()]*\)\s*$`)

type inbound struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// RiskReply is the artifact text returned for message/send.
type RiskReply struct {
	Agent     string                       `json:"agent"`
	Symbol    string                       `json:"symbol"`
	Market    models.Market                `json:"market"`
	Signal    models.Signal                `json:"signal"`
	RiskLevel models.RiskLevel             `json:"risk_level"`
	Summary   string                       `json:"summary"`
	Sizing    *models.PositionSizingResult `json:"sizing"`
}

// RiskPeerHandler exposes the position sizing engine as an RPC peer.
type RiskPeerHandler struct {
	name          string
	resolver      domsvc.InstrumentResolver
	sizer         domsvc.PositionSizer
	store         domrepo.ConfigStore
	defaultPrompt string
	prompt        atomic.Pointer[string]
	logger        *applogger.Logger
}

// NewRiskPeerHandler creates the handler. store may be nil, in which case
// the default prompt is used for the life of the process.
func NewRiskPeerHandler(
	name string,
	resolver domsvc.InstrumentResolver,
	sizer domsvc.PositionSizer,
	store domrepo.ConfigStore,
	defaultPrompt string,
	l *applogger.Logger,
) *RiskPeerHandler {
	if l == nil {
		l = applogger.Nop()
	}
	h := &RiskPeerHandler{
		name:          name,
		resolver:      resolver,
		sizer:         sizer,
		store:         store,
		defaultPrompt: defaultPrompt,
		logger:        l.With(applogger.String("peer", name)),
	}
	h.prompt.Store(&defaultPrompt)
	return h
}

var _ xhttp.Handler = (*RiskPeerHandler)(nil)

func (h *RiskPeerHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/", h.MessageSend)
	e.POST("/reload", h.Reload)
	e.GET("/.well-known/agent.json", h.Card)
}

// Prompt returns the active prompt.
func (h *RiskPeerHandler) Prompt() string {
	return *h.prompt.Load()
}

// LoadPrompt re-reads the prompt from the store and reports where the
// active prompt came from.
func (h *RiskPeerHandler) LoadPrompt(ctx context.Context) (string, error) {
	if h.store == nil {
		return "default", nil
	}
	text, found, err := h.store.GetPrompt(ctx, h.name)
	if err != nil {
		return "", err
	}
	if !found || strings.TrimSpace(text) == "" {
		h.prompt.Store(&h.defaultPrompt)
		return "default", nil
	}
	h.prompt.Store(&text)
	return "store", nil
}

func (h *RiskPeerHandler) Reload(c echo.Context) error {
	source, err := h.LoadPrompt(c.Request().Context())
	if err != nil {
		h.logger.Error("prompt_reload_failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.DataUnavailableError("config store unavailable").WithError(err))
	}
	h.logger.Info("prompt_reloaded", applogger.String("source", source), applogger.Int("length", len(h.Prompt())))
	return xhttp.SuccessResponse(c, map[string]string{"status": "reloaded", "source": source})
}

// Card describes the peer for discovery.
func (h *RiskPeerHandler) Card(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"name":        h.name,
		"description": h.Prompt(),
		"url":         "/",
		"capabilities": map[string]bool{
			"streaming": false,
		},
		"defaultInputModes":  []string{"text"},
		"defaultOutputModes": []string{"text"},
	})
}

// MessageSend handles one JSON-RPC call. Protocol failures are reported
// as JSON-RPC errors with HTTP 200.
func (h *RiskPeerHandler) MessageSend(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxBodyBytes))
	if err != nil {
		return h.rpcError(c, nil, codeParseError, "unreadable body")
	}
	var req inbound
	if err := json.Unmarshal(body, &req); err != nil {
		return h.rpcError(c, nil, codeParseError, "parse error")
	}
	if req.JSONRPC != rpc.JSONRPCVersion {
		return h.rpcError(c, req.ID, codeInvalidRequest, "jsonrpc must be \"2.0\"")
	}
	if req.Method != rpc.MethodMessageSend {
		return h.rpcError(c, req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}

	var params rpc.SendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return h.rpcError(c, req.ID, codeInvalidParams, "invalid params")
	}
	text := strings.TrimSpace(rpc.FirstText(params.Message.Parts))
	if text == "" {
		return h.rpcError(c, req.ID, codeInvalidParams, "message has no text part")
	}

	ctx := c.Request().Context()
	query := QueryFromMessage(text)
	inst, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		h.logger.Warn("risk_resolve_failed", applogger.String("query", query), applogger.Error(err))
		return h.rpcError(c, req.ID, codeFor(err), err.Error())
	}

	res, err := h.sizer.Size(ctx, inst, 0, 0)
	if err != nil {
		h.logger.Warn("risk_sizing_failed", applogger.String("symbol", inst.Symbol), applogger.Error(err))
		return h.rpcError(c, req.ID, codeFor(err), err.Error())
	}

	reply := RiskReply{
		Agent:     h.name,
		Symbol:    inst.Symbol,
		Market:    inst.Market,
		Signal:    usecase.SignalForRisk(res.RiskLevel),
		RiskLevel: res.RiskLevel,
		Summary:   summarize(res),
		Sizing:    res,
	}
	out, err := json.Marshal(reply)
	if err != nil {
		return h.rpcError(c, req.ID, codeInternal, "encode reply")
	}

	h.logger.Info("risk_assessed",
		applogger.String("symbol", inst.Symbol),
		applogger.String("risk_level", string(res.RiskLevel)),
		applogger.Int64("position_size", res.PositionSize),
	)
	return c.JSON(http.StatusOK, rpc.Response{
		JSONRPC: rpc.JSONRPCVersion,
		ID:      req.ID,
		Result:  rpc.TextResult(rpc.NewRequestID(), string(out)),
	})
}

func (h *RiskPeerHandler) rpcError(c echo.Context, id json.RawMessage, code int, msg string) error {
	raw, _ := json.Marshal(rpc.RPCError{Code: code, Message: msg})
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return c.JSON(http.StatusOK, rpc.Response{
		JSONRPC: rpc.JSONRPCVersion,
		ID:      id,
		Error:   raw,
	})
}

func codeFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return codeNotFound
	case errors.Is(err, models.ErrDataUnavailable):
		return codeDataMissing
	case errors.Is(err, models.ErrValidation):
		return codeInvalidParams
	default:
		return codeInternal
	}
}

// QueryFromMessage pulls the instrument out of a templated request such as
// "Assess the risk for: AAPL (US)". Untemplated text is used whole.
func QueryFromMessage(text string) string {
	q := strings.TrimSpace(text)
	if i := strings.LastIndex(q, ":"); i >= 0 && i < len(q)-1 {
		q = strings.TrimSpace(q[i+1:])
	}
	if stripped := strings.TrimSpace(trailingParens.ReplaceAllString(q, "")); stripped != "" {
		q = stripped
	}
	return q
}

func summarize(r *models.PositionSizingResult) string {
	return fmt.Sprintf("%s risk: up to %d shares, stop %.2f, target %.2f",
		r.RiskLevel, r.PositionSize, r.StopLossPrice, r.TakeProfitPrice)
}
