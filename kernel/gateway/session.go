// Package gateway implements kernel.Session over a WebSocket channel to a
// Jupyter-style kernel gateway. One Session owns one socket: a read pump
// correlates complete_reply messages with in-flight requests by parent
// message ID and tracks the kernel execution state from status messages.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nbforge/kernelbridge/errors"
	"github.com/nbforge/kernelbridge/kernel"
)

// WebSocket timeout constants following Gorilla best practices
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 1024 * 1024
)

// Config holds gateway session settings.
type Config struct {
	// URL is the gateway base URL, e.g. ws://localhost:8888
	URL string
	// KernelID identifies the kernel whose channel endpoint to join
	KernelID string
	// HandshakeTimeout bounds the WebSocket dial
	HandshakeTimeout time.Duration
	// RequestsPerSecond paces outgoing completion requests. A paced-out
	// request short-circuits to the empty reply, the same degradation as a
	// busy kernel. Zero disables pacing.
	RequestsPerSecond float64
	Logger            *zap.SugaredLogger
}

// Session is a kernel.Session backed by a gateway WebSocket channel.
type Session struct {
	conn      *websocket.Conn
	sessionID string
	limiter   *rate.Limiter
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	status  kernel.SessionStatus
	pending map[string]chan []byte

	disposed    chan struct{}
	disposeOnce sync.Once
}

var _ kernel.Session = (*Session)(nil)

// Dial connects to the kernel's channel endpoint and starts the read and
// ping pumps.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.URL == "" || cfg.KernelID == "" {
		return nil, errors.New("gateway URL and kernel ID are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	endpoint := fmt.Sprintf("%s/api/kernels/%s/channels", cfg.URL, cfg.KernelID)
	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial kernel gateway %s", endpoint)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	s := &Session{
		conn:      conn,
		sessionID: uuid.NewString(),
		limiter:   limiter,
		logger:    logger,
		status:    kernel.StatusUnknown,
		pending:   make(map[string]chan []byte),
		disposed:  make(chan struct{}),
	}

	go s.readPump()
	go s.pingPump()

	logger.Infow("kernel gateway session established", "endpoint", endpoint, "session", s.sessionID)
	return s, nil
}

// Status reports the most recently observed kernel execution state.
func (s *Session) Status() kernel.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Disposed is closed when the session has been torn down.
func (s *Session) Disposed() <-chan struct{} {
	return s.disposed
}

// RequestComplete asks the kernel for completions of code at cursorPos.
// Protocol-shape mismatches in the reply yield the empty reply; errors are
// reserved for transport failures and cancellation.
func (s *Session) RequestComplete(ctx context.Context, code string, cursorPos int) (*kernel.CompleteReply, error) {
	if !s.limiter.Allow() {
		s.logger.Debugw("completion request paced out", "session", s.sessionID)
		return kernel.EmptyCompleteReply(), nil
	}

	req, msgID := newCompleteRequest(s.sessionID, code, cursorPos)
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal complete_request")
	}

	replyCh := make(chan []byte, 1)
	s.mu.Lock()
	s.pending[msgID] = replyCh
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msgID)
		s.mu.Unlock()
	}()

	if err := s.write(payload); err != nil {
		return nil, err
	}

	select {
	case content := <-replyCh:
		return parseCompleteReply(content), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.disposed:
		return nil, errors.ErrSessionDisposed
	}
}

// Dispose tears the session down. Safe to call more than once.
func (s *Session) Dispose(ctx context.Context) error {
	s.disposeOnce.Do(func() {
		s.mu.Lock()
		s.status = kernel.StatusDead
		s.mu.Unlock()

		// Best effort close handshake before dropping the socket
		deadline := time.Now().Add(writeWait)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
		close(s.disposed)

		s.logger.Infow("kernel gateway session disposed", "session", s.sessionID)
	})
	return nil
}

// write sends one message under the write deadline. Gorilla connections
// support one concurrent writer, so writes are serialized by the mutex.
func (s *Session) write(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "failed to set write deadline")
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errors.Wrap(err, "failed to write kernel message")
	}
	return nil
}

// readPump consumes incoming messages until the socket dies, dispatching
// complete replies to their waiters and folding status messages into the
// session state.
func (s *Session) readPump() {
	defer s.Dispose(context.Background())

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnw("kernel gateway connection lost", "session", s.sessionID, "error", err)
			}
			return
		}
		s.dispatch(raw)
	}
}

// dispatch routes one incoming kernel message.
func (s *Session) dispatch(raw []byte) {
	msgType := gjson.GetBytes(raw, "header.msg_type").String()

	switch msgType {
	case msgTypeStatus:
		state := gjson.GetBytes(raw, "content.execution_state").String()
		s.mu.Lock()
		s.status = statusFromExecutionState(state)
		s.mu.Unlock()

	case msgTypeCompleteReply:
		parentID := gjson.GetBytes(raw, "parent_header.msg_id").String()
		content := gjson.GetBytes(raw, "content")

		s.mu.Lock()
		replyCh, ok := s.pending[parentID]
		s.mu.Unlock()
		if !ok {
			// Reply for a request that already timed out or was cancelled
			s.logger.Debugw("dropping stale complete_reply", "parent", parentID)
			return
		}
		select {
		case replyCh <- []byte(content.Raw):
		default:
		}

	default:
		// Other IOPub traffic is not this client's concern
	}
}

// pingPump keeps the connection alive per the pong deadline contract.
func (s *Session) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-s.disposed:
			return
		}
	}
}
