// Package rpc serves the node's JSON-RPC API over HTTP.
package rpc

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/cgc-labs/marketd/internal/node"
)

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
	codeNotFound       = -32000
)

// rpcError carries a JSON-RPC error code alongside the message.
type rpcError struct {
	code    int
	message string
}

func (e *rpcError) Error() string { return e.message }

func errInvalidParams(msg string) *rpcError {
	return &rpcError{code: codeInvalidParams, message: msg}
}

func errNotFound(msg string) *rpcError {
	return &rpcError{code: codeNotFound, message: msg}
}

// Server is the JSON-RPC HTTP server.
type Server struct {
	node *node.Node
	addr string
}

// NewServer creates a server for the given node, listening on addr.
func NewServer(n *node.Node, addr string) *Server {
	return &Server{node: n, addr: addr}
}

// request is a JSON-RPC 2.0 request envelope.
type request struct {
	JsonRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.serveWS(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, codeParseError, "Parse error")
		return
	}

	result, err := s.dispatch(r.Context(), req.Method, req.Params)
	if err != nil {
		if rpcErr, ok := err.(*rpcError); ok {
			writeError(w, req.ID, rpcErr.code, rpcErr.message)
			return
		}
		writeError(w, req.ID, codeInternalError, err.Error())
		return
	}

	response := map[string]any{
		"jsonrpc": "2.0",
		"result":  result,
		"id":      req.ID,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to marshal response: %v", err)
	}
}

func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "server_info":
		return s.serverInfo(ctx)
	case "market_info":
		return s.marketInfo()
	case "token_info":
		return s.tokenInfo(params)
	case "listing":
		return s.listing(params)
	case "listing_offers":
		return s.listingOffers(params)
	case "account_info":
		return s.accountInfo(params)
	case "submit":
		return s.submit(ctx, params)
	case "tx":
		return s.tx(ctx, params)
	case "tx_history":
		return s.txHistory(ctx, params)
	}
	return nil, &rpcError{code: codeMethodNotFound, message: "unknown method: " + method}
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	response := map[string]any{
		"jsonrpc": "2.0",
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
		"id": id,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to marshal error response: %v", err)
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log.Printf("JSON-RPC server listening on %s", s.addr)
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
