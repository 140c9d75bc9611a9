package rpc

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cgc-labs/marketd/internal/core/tx"
	"github.com/cgc-labs/marketd/internal/crypto"
)

func ownerAddress() string {
	return crypto.NewKeyPairFromSeed(crypto.SeedFromName("owner")).Address()
}

func dialWS(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func wsCommandRoundTrip(t *testing.T, conn *websocket.Conn, command string, streams []string) map[string]any {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{
		"command": command,
		"streams": streams,
		"id":      1,
	}); err != nil {
		t.Fatalf("write %s: %v", command, err)
	}
	var resp map[string]any
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read %s response: %v", command, err)
	}
	return resp
}

func TestWebSocketSubscribeTransactions(t *testing.T) {
	s, _ := newTestServer(t)
	owner := tx.NewMarketSetup(ownerAddress(), 250)

	conn := dialWS(t, s)
	resp := wsCommandRoundTrip(t, conn, "subscribe", []string{"transactions"})
	if resp["status"] != "success" {
		t.Fatalf("subscribe response = %v", resp)
	}

	result := submitTx(t, s, owner)
	if result["engine_result"] != "tesSUCCESS" {
		t.Fatalf("setup result = %v", result["engine_result"])
	}

	var event map[string]any
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event["type"] != "transaction" {
		t.Fatalf("event type = %v", event["type"])
	}
	txn, ok := event["transaction"].(map[string]any)
	if !ok {
		t.Fatalf("no transaction payload: %v", event)
	}
	if txn["hash"] != result["tx_hash"] {
		t.Errorf("hash = %v, want %v", txn["hash"], result["tx_hash"])
	}
	if txn["tx_type"] != "MarketSetup" {
		t.Errorf("tx_type = %v", txn["tx_type"])
	}
	if txn["result"] != "tesSUCCESS" {
		t.Errorf("result = %v", txn["result"])
	}
	if txn["ledger_seq"].(float64) != 1 {
		t.Errorf("ledger_seq = %v, want 1", txn["ledger_seq"])
	}
}

func TestWebSocketUnsubscribeStopsEvents(t *testing.T) {
	s, _ := newTestServer(t)

	conn := dialWS(t, s)
	wsCommandRoundTrip(t, conn, "subscribe", []string{"transactions"})
	resp := wsCommandRoundTrip(t, conn, "unsubscribe", []string{"transactions"})
	if resp["status"] != "success" {
		t.Fatalf("unsubscribe response = %v", resp)
	}

	submitTx(t, s, tx.NewMarketSetup(ownerAddress(), 250))

	// Only the ping keepalive may arrive now; a data message is a bug.
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var event map[string]any
	if err := conn.ReadJSON(&event); err == nil {
		t.Fatalf("received event after unsubscribe: %v", event)
	}
}

func TestWebSocketRejectsUnknownCommand(t *testing.T) {
	s, _ := newTestServer(t)

	conn := dialWS(t, s)
	resp := wsCommandRoundTrip(t, conn, "bogus", nil)
	if resp["status"] != "error" {
		t.Fatalf("response = %v", resp)
	}
}
