package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin validation is left to fronting middleware
		return true
	},
}

// WebSocketHandler serves the LSP protocol over WebSocket connections.
type WebSocketHandler struct {
	handler *Handler
	logger  *zap.SugaredLogger
}

// NewWebSocketHandler creates a WebSocket LSP endpoint.
func NewWebSocketHandler(handler *Handler, logger *zap.SugaredLogger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &WebSocketHandler{handler: handler, logger: logger}
}

// ServeHTTP upgrades the connection and serves LSP over it until the
// connection closes.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Infow("LSP WebSocket connection request", "remote", r.RemoteAddr)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("failed to upgrade WebSocket", "error", err)
		return
	}

	protocolHandler := protocol.Handler{
		Initialize:             h.handler.Initialize,
		Initialized:            h.handler.Initialized,
		Shutdown:               h.handler.Shutdown,
		TextDocumentDidOpen:    h.handler.TextDocumentDidOpen,
		TextDocumentDidChange:  h.handler.TextDocumentDidChange,
		TextDocumentDidClose:   h.handler.TextDocumentDidClose,
		TextDocumentCompletion: h.handler.TextDocumentCompletion,
	}

	glspServer := glspserver.NewServer(&protocolHandler, serverName, false)

	// Blocks until the connection closes
	glspServer.ServeWebSocket(conn)

	h.logger.Infow("LSP WebSocket connection closed", "remote", r.RemoteAddr)
}

// ListenAndServe mounts the LSP endpoint at /lsp and serves until the HTTP
// server stops.
func ListenAndServe(addr string, handler *Handler, logger *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/lsp", NewWebSocketHandler(handler, logger))

	logger.Infow("LSP front end listening", "addr", addr, "endpoint", "/lsp")
	return http.ListenAndServe(addr, mux)
}
