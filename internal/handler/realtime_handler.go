package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/OdenEater/wedding-sns/internal/auth"
	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/gorilla/websocket"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// ブラウザ以外のクライアント
			if origin == "" {
				return true
			}
			if slices.Contains(h.opts.AllowedOrigins, "*") || slices.Contains(h.opts.AllowedOrigins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// serveRealtime upgrades to a websocket that receives change events for the
// tables named in ?tables=.
func (h *Handler) serveRealtime(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		return
	}

	tables := realtime.ParseTables(r.URL.Query().Get("tables"))
	client, err := h.hub.Register(conn, auth.UserID(r.Context()), tables)
	if err != nil {
		code := websocket.CloseInternalServerErr
		if errors.Is(err, realtime.ErrTooManyConnections) {
			code = websocket.CloseTryAgainLater
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, err.Error()))
		_ = conn.Close()
		observability.FromContext(r.Context()).WarnContext(r.Context(), "realtime register rejected", slog.Any("error", err))
		return
	}

	go client.WritePump()
	client.ReadPump()
}
