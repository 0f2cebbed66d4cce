package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/OdenEater/wedding-sns/internal/realtime"
	"github.com/gorilla/websocket"
)

// Subscribe opens the realtime channel for tables. The returned channel is
// closed when ctx is cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context, tables ...realtime.Table) (<-chan realtime.Event, error) {
	u := c.baseURL.JoinPath("/realtime")
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = string(t)
	}
	u.RawQuery = url.Values{"tables": {strings.Join(names, ",")}}.Encode()

	header := http.Header{}
	if tok := c.store.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	events := make(chan realtime.Event)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		defer close(done)
		for {
			var ev realtime.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil {
					observability.GlobalLogger.Warn("realtime connection closed", slog.Any("error", err))
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// watch re-fetches with reload on every notification until ctx is done.
func watch(ctx context.Context, c *Client, reload func(context.Context) error, tables ...realtime.Table) error {
	events, err := c.Subscribe(ctx, tables...)
	if err != nil {
		return err
	}
	for range events {
		if err := reload(ctx); err != nil && ctx.Err() == nil {
			observability.GlobalLogger.Warn("re-fetch after change failed", slog.Any("error", err))
		}
	}
	return ctx.Err()
}
