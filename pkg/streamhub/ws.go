package streamhub

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader mirrors a2a/server.go's handleStreamTask upgrader: origin
// checking is left to the REST layer's CORS policy, not enforced twice.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// ServeWS upgrades r into a websocket connection, attaches clientID to the
// hub, and forwards every event received on the subscription channel until
// the connection closes or the channel is detached.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, clientID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "client_id", clientID, "error", err)
		return
	}
	defer conn.Close()

	events := h.Attach(clientID)
	defer h.Detach(clientID)

	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
