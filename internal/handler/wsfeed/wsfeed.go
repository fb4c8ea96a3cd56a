// Package wsfeed streams recorded-game events to websocket clients.
package wsfeed

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/Nicoding1996/art-society/internal/events"
	"github.com/Nicoding1996/art-society/internal/metrics"
)

const pingInterval = 30 * time.Second

type Handler struct {
	logger  *slog.Logger
	broker  *events.Broker
	metrics *metrics.Metrics
}

func NewHandler(logger *slog.Logger, broker *events.Broker, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, broker: broker, metrics: m}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/events", h.stream)
	return r
}

// stream writes one text message per event. Anything the client sends is
// ignored; a read error or close ends the stream.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)
	h.metrics.StreamOpened()
	defer h.metrics.StreamClosed()

	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("websocket feed ended", "error", ctx.Err())
			return
		case data := <-ch:
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.Ping(ctx); err != nil {
				h.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}
