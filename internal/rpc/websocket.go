package rpc

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cgc-labs/marketd/internal/node"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsMaxMessage   = 64 * 1024
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsCommand is a client request on a websocket connection.
type wsCommand struct {
	Command string   `json:"command"`
	Streams []string `json:"streams"`
	ID      any      `json:"id"`
}

// wsSession is one websocket connection with its subscription state.
type wsSession struct {
	conn *websocket.Conn
	node *node.Node

	send chan []byte
	done chan struct{}

	mu       sync.Mutex
	cancelTx func()
}

// serveWS upgrades the connection and runs the subscription protocol:
// the client subscribes to the "transactions" stream and receives one
// message per applied transaction.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ws := &wsSession{
		conn: conn,
		node: s.node,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go ws.writeLoop()
	ws.readLoop()
}

func (ws *wsSession) readLoop() {
	defer func() {
		ws.unsubscribeTx()
		close(ws.done)
	}()

	ws.conn.SetReadLimit(wsMaxMessage)
	ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.conn.SetPongHandler(func(string) error {
		ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var cmd wsCommand
		if err := ws.conn.ReadJSON(&cmd); err != nil {
			return
		}
		ws.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch cmd.Command {
		case "subscribe":
			if hasStream(cmd.Streams, "transactions") {
				ws.subscribeTx()
			}
			ws.reply(cmd, "success")
		case "unsubscribe":
			if hasStream(cmd.Streams, "transactions") {
				ws.unsubscribeTx()
			}
			ws.reply(cmd, "success")
		default:
			ws.reply(cmd, "error")
		}
	}
}

func (ws *wsSession) writeLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	defer ws.conn.Close()

	for {
		select {
		case msg := <-ws.send:
			ws.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ws.done:
			return
		}
	}
}

// subscribeTx starts forwarding applied-transaction events. Idempotent.
func (ws *wsSession) subscribeTx() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.cancelTx != nil {
		return
	}
	events, cancel := ws.node.SubscribeTx()
	ws.cancelTx = cancel

	go func() {
		for ev := range events {
			ws.enqueue(map[string]any{
				"type":        "transaction",
				"transaction": ev,
			})
		}
	}()
}

func (ws *wsSession) unsubscribeTx() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.cancelTx != nil {
		ws.cancelTx()
		ws.cancelTx = nil
	}
}

func (ws *wsSession) reply(cmd wsCommand, status string) {
	ws.enqueue(map[string]any{
		"type":    "response",
		"command": cmd.Command,
		"status":  status,
		"id":      cmd.ID,
	})
}

// enqueue queues a message for the write loop, dropping it if the
// client cannot keep up.
func (ws *wsSession) enqueue(msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal websocket message: %v", err)
		return
	}
	select {
	case ws.send <- data:
	default:
	}
}

func hasStream(streams []string, name string) bool {
	for _, s := range streams {
		if s == name {
			return true
		}
	}
	return false
}
