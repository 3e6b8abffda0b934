package vitals

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	feedSubprotocol = "vitalis.feed.v1"

	feedSendQueueSize = 64
	feedWriteTimeout  = 5 * time.Second
	feedPingInterval  = 30 * time.Second
)

// handleStream upgrades the request to a WebSocket and pushes each new
// reading for the target user as a JSON message until the client disconnects.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.guard.RequireAuth(w, r)
	if !ok {
		return
	}

	target := h.targetUser(r, claims)
	if err := authorize(claims.UserID, claims.Role, target); err != nil {
		h.writeError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}

	if h.feed == nil {
		h.writeError(w, http.StatusNotImplemented, "unsupported", "live feed disabled")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{feedSubprotocol},
	})
	if err != nil {
		h.log.Info("vitals.stream.accept.fail", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	sub := h.feed.Subscribe(target, feedSendQueueSize)
	defer h.feed.Unsubscribe(sub)

	h.log.Info("vitals.stream.open", "user_id", target, "caller_id", claims.UserID)

	// CloseRead consumes incoming frames (the feed is one-way) and cancels the
	// context when the peer closes or errors.
	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("vitals.stream.close", "user_id", target)
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case reading := <-sub.Readings():
			if err := writeReading(ctx, conn, reading); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.log.Info("vitals.stream.write.fail", "err", err, "user_id", target)
				}
				return
			}

		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Info("vitals.stream.ping.fail", "err", err, "user_id", target)
				return
			}
		}
	}
}

func writeReading(ctx context.Context, conn *websocket.Conn, r Reading) error {
	writeCtx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, toReadingResponse(r))
}
