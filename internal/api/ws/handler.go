package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/domain/workspace"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codepad/internal/shared/id"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	eventBuffer = 64
	maxMessage  = 4096
)

// Message is the envelope for both directions
type Message struct {
	Type      string      `json:"type"`
	Event     interface{} `json:"event,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Handler streams workspace change events to WebSocket clients
type Handler struct {
	workspace *workspace.Workspace
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(ws *workspace.Workspace, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		workspace: ws,
		metrics:   metrics,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // The REST API is equally open; CORS governs browsers
			},
		},
	}
}

// conn serialises writes; gorilla allows one concurrent writer
type conn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(msg Message) error {
	msg.Timestamp = time.Now().Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteJSON(msg)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// HandleConnection upgrades the request and streams events until the client
// goes away or the workspace closes
func (h *Handler) HandleConnection(c *gin.Context) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	ws := &conn{Conn: raw}
	defer ws.Close()

	connID := id.NewConnectionID()
	logger := h.logger.With(zap.String("connection_id", connID.String()))
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	logger.Debug("Stream connected")

	events, cancel := h.workspace.Subscribe(eventBuffer)
	defer cancel()

	if err := ws.send(Message{
		Type:    "system",
		Message: connID.String(),
		Data:    h.workspace.Status(),
	}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.readLoop(ws, logger)
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				_ = ws.send(Message{Type: "closing", Message: "workspace closed"})
				return
			}
			if err := ws.send(Message{Type: "event", Event: e}); err != nil {
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}
			h.record("event")
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				return
			}
		case <-done:
			logger.Debug("Stream disconnected")
			return
		}
	}
}

// readLoop answers client requests until the connection fails
func (h *Handler) readLoop(ws *conn, logger *zap.Logger) {
	ws.SetReadLimit(maxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Stream read error", zap.Error(err))
			}
			return
		}

		kind := msg.Type
		var reply Message
		switch msg.Type {
		case "ping":
			reply = Message{Type: "pong"}
		case "snapshot":
			reply = Message{Type: "snapshot", Data: h.workspace.Snapshot()}
		case "session":
			reply = Message{Type: "session", Data: h.workspace.Session()}
		case "status":
			reply = Message{Type: "status", Data: h.workspace.Status()}
		default:
			kind = "unknown"
			reply = Message{Type: "error", Message: "unknown message type"}
		}
		h.record(kind)
		if err := ws.send(reply); err != nil {
			return
		}
	}
}

func (h *Handler) record(msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(msgType)
	}
}
