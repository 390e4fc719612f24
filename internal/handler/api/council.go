package api

import (
	"errors"
	"time"

	"TradeCouncil/internal/domain/models"
	domrepo "TradeCouncil/internal/domain/repository"
	"TradeCouncil/internal/service/ratelimit"
	"TradeCouncil/internal/usecase"
	xhttp "TradeCouncil/pkg/http"
	applogger "TradeCouncil/pkg/logger"
	"TradeCouncil/pkg/util"

	"github.com/labstack/echo/v4"
)

const defaultHistoryWindow = 30 * 24 * time.Hour

// CouncilHandler serves the orchestrator API.
type CouncilHandler struct {
	council  *usecase.Council
	store    domrepo.ConfigStore
	notifier domrepo.PeerNotifier
	limiter  *ratelimit.Limiter
	logger   *applogger.Logger
	now      func() time.Time
}

// NewCouncilHandler creates the handler. store and notifier may be nil, in
// which case prompt routes report 503 and reloads stay local.
func NewCouncilHandler(
	council *usecase.Council,
	store domrepo.ConfigStore,
	notifier domrepo.PeerNotifier,
	limiter *ratelimit.Limiter,
	logger *applogger.Logger,
) *CouncilHandler {
	if limiter == nil {
		limiter = ratelimit.New(0, 0)
	}
	if logger == nil {
		logger = applogger.Nop()
	}
	return &CouncilHandler{
		council:  council,
		store:    store,
		notifier: notifier,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
	}
}

var _ xhttp.Handler = (*CouncilHandler)(nil)

func (h *CouncilHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/agents", h.Agents)
	g.POST("/analyze", h.Analyze)
	g.GET("/resolve", h.Resolve)
	g.POST("/size", h.Size)
	g.GET("/decisions", h.Decisions)

	cfg := g.Group("/config")
	cfg.GET("/weights", h.GetWeights)
	cfg.PUT("/weights", h.PutWeights)
	cfg.GET("/thresholds", h.GetThresholds)
	cfg.PUT("/thresholds", h.PutThresholds)
	cfg.GET("/prompts", h.ListPrompts)
	cfg.GET("/prompts/:peer", h.GetPrompt)
	cfg.PUT("/prompts/:peer", h.PutPrompt)
	cfg.POST("/reload", h.Reload)
}

func (h *CouncilHandler) Health(c echo.Context) error {
	snap := h.council.Config().Get()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":         "ok",
		"peers":          len(h.council.Peers()),
		"config_version": snap.Version,
	})
}

func (h *CouncilHandler) Agents(c echo.Context) error {
	peers := h.council.Peers()
	return xhttp.ListResponse(c, peers, int64(len(peers)))
}

func (h *CouncilHandler) Analyze(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many analysis requests, slow down"))
	}
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.council.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Query:          req.Query,
		AccountBalance: req.AccountBalance,
		RiskPerTrade:   req.RiskPerTrade,
	})
	if err != nil {
		h.logger.Warn("analyze_failed", applogger.String("query", req.Query), applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *CouncilHandler) Resolve(c echo.Context) error {
	req := &models.ResolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	inst, err := h.council.Resolve(c.Request().Context(), req.Query)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, inst)
}

func (h *CouncilHandler) Size(c echo.Context) error {
	req := &models.SizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.council.Size(c.Request().Context(), req.Query, req.AccountBalance, req.RiskPerTrade)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Decisions lists stored decisions, newest first. The window defaults to
// the last 30 days.
func (h *CouncilHandler) Decisions(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := h.now().UTC()
	to := util.ParseTimeDefault(req.To, now)
	from := util.ParseTimeDefault(req.From, to.Add(-defaultHistoryWindow))
	if !from.Before(to) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from must be before to"))
	}

	rows, err := h.council.History(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("decision_history_failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *CouncilHandler) findPeer(name string) (models.Peer, bool) {
	for _, p := range h.council.Peers() {
		if p.Name == name {
			return p, true
		}
	}
	return models.Peer{}, false
}

// toAppError maps domain errors onto API errors.
func toAppError(err error) error {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return xhttp.ValidationFailed(verr.Field, verr.Message).WithError(err)
	case errors.Is(err, models.ErrValidation):
		return xhttp.ValidationFailed("", err.Error()).WithError(err)
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrDataUnavailable):
		return xhttp.DataUnavailableError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
