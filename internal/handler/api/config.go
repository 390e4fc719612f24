package api

import (
	"context"

	"TradeCouncil/internal/domain/models"
	xhttp "TradeCouncil/pkg/http"
	applogger "TradeCouncil/pkg/logger"

	"github.com/labstack/echo/v4"
)

func (h *CouncilHandler) GetWeights(c echo.Context) error {
	snap := h.council.Config().Get()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"weights": snap.Weights,
		"version": snap.Version,
		"source":  snap.Source,
	})
}

func (h *CouncilHandler) PutWeights(c echo.Context) error {
	req := &models.WeightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, err := h.council.Config().UpdateWeights(c.Request().Context(), models.WeightConfig(req.Weights))
	if err != nil {
		h.logger.Warn("weights_update_rejected", applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.logger.Info("weights_updated", applogger.Any("weights", snap.Weights), applogger.Int64("version", int64(snap.Version)))
	return xhttp.SuccessResponse(c, snap)
}

func (h *CouncilHandler) GetThresholds(c echo.Context) error {
	snap := h.council.Config().Get()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"thresholds": snap.Thresholds,
		"version":    snap.Version,
		"source":     snap.Source,
	})
}

func (h *CouncilHandler) PutThresholds(c echo.Context) error {
	req := &models.ThresholdsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, err := h.council.Config().UpdateThresholds(c.Request().Context(), models.ThresholdConfig{
		Buy:  *req.Buy,
		Sell: *req.Sell,
	})
	if err != nil {
		h.logger.Warn("thresholds_update_rejected", applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.logger.Info("thresholds_updated", applogger.Any("thresholds", snap.Thresholds), applogger.Int64("version", int64(snap.Version)))
	return xhttp.SuccessResponse(c, snap)
}

// ListPrompts returns the stored prompt of every registered peer. Peers
// with no stored prompt are listed under "missing".
func (h *CouncilHandler) ListPrompts(c echo.Context) error {
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.DataUnavailableError("config store is not enabled"))
	}
	peers := h.council.Peers()
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		names = append(names, p.Name)
	}
	prompts, err := h.store.ListPrompts(c.Request().Context(), names)
	if err != nil {
		h.logger.Error("prompt_list_failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	missing := make([]string, 0)
	for _, name := range names {
		if _, ok := prompts[name]; !ok {
			missing = append(missing, name)
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"prompts": prompts,
		"missing": missing,
	})
}

func (h *CouncilHandler) GetPrompt(c echo.Context) error {
	name := c.Param("peer")
	if _, ok := h.findPeer(name); !ok {
		return xhttp.AppErrorResponse(c, unknownPeer(name))
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.DataUnavailableError("config store is not enabled"))
	}
	text, found, err := h.store.GetPrompt(c.Request().Context(), name)
	if err != nil {
		h.logger.Error("prompt_read_failed", applogger.String("peer", name), applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	if !found {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no prompt stored for %q", name))
	}
	return xhttp.SuccessResponse(c, map[string]string{"peer": name, "prompt": text})
}

// PutPrompt stores the prompt and tells the peer to reload it.
func (h *CouncilHandler) PutPrompt(c echo.Context) error {
	req := &models.PromptRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	peer, ok := h.findPeer(req.Peer)
	if !ok {
		return xhttp.AppErrorResponse(c, unknownPeer(req.Peer))
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.DataUnavailableError("config store is not enabled"))
	}
	if err := h.store.SetPrompt(c.Request().Context(), peer.Name, req.Prompt); err != nil {
		h.logger.Error("prompt_write_failed", applogger.String("peer", peer.Name), applogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.notify(c.Request().Context(), peer)
	h.logger.Info("prompt_updated", applogger.String("peer", peer.Name), applogger.Int("length", len(req.Prompt)))
	return xhttp.AcceptedResponse(c, map[string]string{"peer": peer.Name, "status": "reload_sent"})
}

// Reload refreshes the local snapshot from the store and broadcasts a
// reload to every peer.
func (h *CouncilHandler) Reload(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.council.Config().Reload(ctx)

	peers := h.council.Peers()
	notified := make([]string, 0, len(peers))
	for _, p := range peers {
		if h.notify(ctx, p) {
			notified = append(notified, p.Name)
		}
	}
	return xhttp.AcceptedResponse(c, map[string]interface{}{
		"config":   snap,
		"notified": notified,
	})
}

func unknownPeer(name string) *xhttp.AppError {
	return xhttp.NotFoundErrorf("unknown peer %q", name).WithParam("peer", name)
}

func (h *CouncilHandler) notify(ctx context.Context, p models.Peer) bool {
	if h.notifier == nil {
		return false
	}
	h.notifier.NotifyReload(ctx, p)
	return true
}
