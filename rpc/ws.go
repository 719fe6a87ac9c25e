package rpc

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Siasom1/orderly-counter/events"
	"github.com/Siasom1/orderly-counter/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage is one frame on the event stream.
type WSMessage struct {
	Type string      `json:"type"` // "tx" or "block"
	Data interface{} `json:"data"`
}

// WSHandler exposes the EventBus over websocket.
func WSHandler(bus *events.EventBus, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// subscribed before the handshake completes so nothing published
		// after the client sees 101 is missed
		txCh := bus.SubscribeTxs()
		blockCh := bus.SubscribeBlocks()
		defer bus.UnsubscribeTxs(txCh)
		defer bus.UnsubscribeBlocks(blockCh)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("ws upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		// the read loop only detects the peer going away
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			var msg WSMessage
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case tx := <-txCh:
				msg = WSMessage{Type: "tx", Data: tx}
			case blk := <-blockCh:
				msg = WSMessage{Type: "block", Data: blk}
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
