// internal/push/websocket.go
//
// WebSocket subscriber. One connection per room subscription:
//   - a reader goroutine decodes events until the connection or ctx ends;
//   - a writer goroutine pings every pingPeriod and sends the close frame.
// A server that stops answering pings for pongWait ends the subscription.

package push

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsPath         = "/ws/room/"
	wsPongWait     = time.Minute
	wsPingPeriod   = wsPongWait * 9 / 10
	wsWriteWait    = 10 * time.Second
	wsHandshake    = 10 * time.Second
	eventQueueSize = 16
)

// WebSocket subscribes over ws:// or wss:// derived from the HTTP base URL.
type WebSocket struct {
	base       string
	dialer     *websocket.Dialer
	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewWebSocket builds a subscriber for the server at baseURL (http or https).
func NewWebSocket(baseURL string) (*WebSocket, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("push: parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("push: unsupported scheme %q", u.Scheme)
	}
	return &WebSocket{
		base:       u.String(),
		dialer:     &websocket.Dialer{HandshakeTimeout: wsHandshake},
		pongWait:   wsPongWait,
		pingPeriod: wsPingPeriod,
	}, nil
}

// Subscribe dials the room's socket.
func (w *WebSocket) Subscribe(ctx context.Context, roomID string) (<-chan Event, error) {
	endpoint := w.base + wsPath + url.PathEscape(roomID)
	conn, _, err := w.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("push: dial %s: %w", endpoint, err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(w.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(w.pongWait))
	})

	out := make(chan Event, eventQueueSize)
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(w.pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					log.Debug().Err(err).Str("roomId", roomID).Msg("push ping failed")
					_ = conn.Close()
					return
				}
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				_ = conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("roomId", roomID).Msg("push socket closed")
				}
				return
			}
			if ev.RoomID == "" {
				ev.RoomID = roomID
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
