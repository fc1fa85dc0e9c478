package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/bridge"
	"github.com/GriffinCanCode/playground/internal/domain/playground"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Metrics receives connection measurements
type Metrics interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

type nopMetrics struct{}

func (nopMetrics) IncWSConnections()              {}
func (nopMetrics) DecWSConnections()              {}
func (nopMetrics) RecordWSMessage(string, string) {}

// Handler relays sandbox diagnostics from browser host pages into the
// playground and pushes console and document events back.
type Handler struct {
	playground *playground.Playground
	upgrader   websocket.Upgrader
	metrics    Metrics
	logger     *zap.Logger

	mu     sync.Mutex
	conns  map[id.ConnectionID]*websocket.Conn
	owner  relayOwner
	closed bool
	wg     sync.WaitGroup
}

// relayOwner is the connection whose iframe executes the current instance
type relayOwner struct {
	instance id.SandboxID
	conn     id.ConnectionID
}

// Option configures a Handler
type Option func(*Handler)

// WithMetrics sets the connection metrics recorder
func WithMetrics(m Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the handler logger
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithCheckOrigin overrides the upgrade origin check
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = check }
}

// NewHandler creates a new WebSocket handler
func NewHandler(p *playground.Playground, opts ...Option) *Handler {
	h := &Handler{
		playground: p,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the host page may be served from any dev origin
			},
		},
		metrics: nopMetrics{},
		logger:  zap.NewNop(),
		conns:   make(map[id.ConnectionID]*websocket.Conn),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	connID := id.NewConnectionID()
	if !h.track(connID, conn) {
		conn.Close()
		return
	}
	defer h.untrack(connID)

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	log := h.logger.With(zap.String("connection", connID.String()))
	log.Debug("Bridge client connected")

	out := make(chan Frame, sendBuffer)
	stop := make(chan struct{})

	unsubscribe := h.playground.Subscribe(func(ev playground.Event) {
		frame := newFrame(string(ev.Type))
		frame.Instance = ev.Instance
		frame.Line = ev.Line
		select {
		case out <- frame:
		default:
			log.Warn("Bridge client too slow, event dropped", zap.String("type", string(ev.Type)))
		}
	})

	welcome := newFrame(FrameSystem)
	welcome.Connection = connID
	welcome.Message = "connected"
	welcome.Mode = ModeBrowser
	if h.playground.Headless() {
		welcome.Mode = ModeHeadless
	}
	if inst := h.playground.Current(); inst != nil {
		welcome.Instance = inst.ID
	}
	out <- welcome

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		h.writePump(conn, out, stop, log)
	}()

	h.readPump(connID, conn, out, log)

	unsubscribe()
	close(stop)
	writer.Wait()
	conn.Close()
	log.Debug("Bridge client disconnected")
}

func (h *Handler) readPump(connID id.ConnectionID, conn *websocket.Conn, out chan<- Frame, log *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.metrics.RecordWSMessage("in", "invalid")
			h.reply(out, errorFrame("invalid message"))
			continue
		}

		switch msg.Type {
		case inboundPing:
			h.metrics.RecordWSMessage("in", inboundPing)
			h.reply(out, newFrame(FramePong))
			continue
		case bridge.TypeConsole:
			if h.playground.Headless() {
				// the headless sandbox already reports this instance
				h.metrics.RecordWSMessage("in", "ignored")
				log.Debug("Ignoring browser diagnostic in headless mode",
					zap.String("instance", msg.Instance))
				continue
			}
			if !h.claim(connID, id.SandboxID(msg.Instance)) {
				h.metrics.RecordWSMessage("in", "duplicate")
				continue
			}
			h.metrics.RecordWSMessage("in", bridge.TypeConsole)
		default:
			// forwarded anyway so the bridge counts the drop
			h.metrics.RecordWSMessage("in", "other")
		}

		h.playground.Post(bridge.Message{
			Type:     msg.Type,
			Message:  msg.Message,
			Instance: id.SandboxID(msg.Instance),
		})
	}
}

// claim reports whether conn may relay diagnostics for instance. The first
// connection to relay for the current instance owns it; other host pages
// executing the same document are duplicates. Messages for any other
// instance pass through so the playground counts them as stale.
func (h *Handler) claim(conn id.ConnectionID, instance id.SandboxID) bool {
	current := h.playground.Current()
	if current == nil || current.ID != instance {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.owner.instance != instance {
		h.owner = relayOwner{instance: instance, conn: conn}
		return true
	}
	return h.owner.conn == conn
}

func (h *Handler) writePump(conn *websocket.Conn, out <-chan Frame, stop <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-out:
			data, err := sonic.Marshal(frame)
			if err != nil {
				log.Error("Failed to encode frame", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("WebSocket write error", zap.Error(err))
				conn.Close()
				return
			}
			h.metrics.RecordWSMessage("out", frame.Type)
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-stop:
			return
		}
	}
}

func (h *Handler) reply(out chan<- Frame, frame Frame) {
	select {
	case out <- frame:
	default:
	}
}

func errorFrame(msg string) Frame {
	frame := newFrame(FrameError)
	frame.Message = msg
	return frame
}

func (h *Handler) track(connID id.ConnectionID, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[connID] = conn
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(connID id.ConnectionID) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
	h.wg.Done()
}

// Connections returns the number of open connections
func (h *Handler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client and waits for their handlers to return.
// Later upgrades are refused.
func (h *Handler) Close() error {
	h.mu.Lock()
	h.closed = true
	for _, conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}
