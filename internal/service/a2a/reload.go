package a2a

import (
	"context"
	"strings"
	"time"

	"TradeCouncil/internal/domain/models"
	xhttp "TradeCouncil/pkg/http"
	applogger "TradeCouncil/pkg/logger"
)

const DefaultReloadTimeout = 5 * time.Second

// Notifier posts reload hints to peers. Delivery is fire-and-forget.
type Notifier struct {
	http    *xhttp.Client
	timeout time.Duration
	logger  *applogger.Logger
	done    func(peer string, err error)
}

// NewNotifier creates a reload notifier.
func NewNotifier(timeout time.Duration, l *applogger.Logger) *Notifier {
	if timeout <= 0 {
		timeout = DefaultReloadTimeout
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Notifier{
		http:    xhttp.NewClient(xhttp.WithTimeout(0)),
		timeout: timeout,
		logger:  l,
	}
}

// ReloadURL derives the reload endpoint from a peer base URL.
func ReloadURL(base string) string {
	return strings.TrimRight(base, "/") + "/reload"
}

// NotifyReload returns immediately; the POST runs detached from ctx
// cancellation but bounded by the notifier timeout.
func (n *Notifier) NotifyReload(ctx context.Context, peer models.Peer) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		err := n.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    ReloadURL(peer.URL),
			Body:   []byte("{}"),
		}, nil)
		if err != nil {
			n.logger.Warn("peer_reload_failed",
				applogger.String("peer", peer.Name),
				applogger.Error(err),
			)
		} else {
			n.logger.Info("peer_reload_sent", applogger.String("peer", peer.Name))
		}
		if n.done != nil {
			n.done(peer.Name, err)
		}
	}()
}
