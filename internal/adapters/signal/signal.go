package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Backstage/internal/app"
	"github.com/dkeye/Backstage/internal/config"
	"github.com/dkeye/Backstage/internal/core"
	"github.com/dkeye/Backstage/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// envelope is the wire frame for every signal message, in and out.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Hub owns every live websocket connection and implements core.Notifier
// on top of them. Room sockets dispatch inbound envelopes to the session
// controller's named handlers; lobby sockets only receive room-list
// broadcasts.
type Hub struct {
	cfg      *config.Config
	sessions *app.SessionController
	handlers map[string]app.Handler
	limiter  *EventRateLimiter

	// lifecycle orders session attach/detach per connection id: a stale
	// socket's teardown and a takeover's registration never interleave.
	// It is never held while sending, so notifier callbacks that take mu
	// for reading cannot deadlock against it.
	lifecycle sync.Mutex

	mu    sync.RWMutex
	conns map[domain.ConnectionID]*wsConn
	lobby map[*wsConn]struct{}
}

func NewHub(cfg *config.Config) *Hub {
	return &Hub{
		cfg:     cfg,
		limiter: NewEventRateLimiter(cfg.EventLimit, cfg.EventWindow),
		conns:   make(map[domain.ConnectionID]*wsConn),
		lobby:   make(map[*wsConn]struct{}),
	}
}

// Bind attaches the session controller after construction. The hub needs
// the controller's handler table and the controller needs the hub as its
// notifier, so wiring happens in two steps.
func (h *Hub) Bind(sessions *app.SessionController) {
	h.sessions = sessions
	h.handlers = sessions.Handlers()
}

// ToConnection implements core.Notifier.
func (h *Hub) ToConnection(id domain.ConnectionID, event string, payload any) {
	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.sendJSON(conn, event, payload)
}

// ToConnections implements core.Notifier.
func (h *Hub) ToConnections(ids []domain.ConnectionID, event string, payload any) {
	for _, id := range ids {
		h.ToConnection(id, event, payload)
	}
}

// ToLobby implements core.Notifier.
func (h *Hub) ToLobby(event string, payload any) {
	h.mu.RLock()
	subs := make([]*wsConn, 0, len(h.lobby))
	for conn := range h.lobby {
		subs = append(subs, conn)
	}
	h.mu.RUnlock()
	for _, conn := range subs {
		h.sendJSON(conn, event, payload)
	}
}

// HandleRoom upgrades a room signal socket and runs its pumps. The
// upgrade itself is the connection-established event.
func (h *Hub) HandleRoom(ctx context.Context, c *gin.Context) {
	cid := domain.ConnectionID(c.GetString("client_token"))
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(h.cfg.ReadLimit)
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("room socket attached")

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, h.cfg.SendQueueLen),
	}

	h.lifecycle.Lock()
	h.mu.Lock()
	old, takeover := h.conns[cid]
	h.conns[cid] = conn
	h.mu.Unlock()

	if takeover {
		// A reconnect supersedes the previous socket. Tear the old session
		// down here, before the fresh one registers, so the superseded
		// socket's cleanup goroutine can never undo the new session's
		// state: it will find itself no longer current and back off.
		old.Close()
		h.sessions.Disconnect(cid)
		h.limiter.Forget(cid)
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("room socket taken over")
	}

	h.sessions.OnNewConnection(cid)
	h.lifecycle.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	go h.writePump(ctx, conn)
	go func() {
		defer cancel()
		h.readPump(ctx, cid, conn)
		h.dropRoomConn(cid, conn)
	}()
}

// dropRoomConn tears down a room socket: the hub forgets the connection
// first, and only the goroutine that was still current runs the
// disconnect transition. A socket superseded by a takeover finds a newer
// conn under its id and must not touch the live session.
func (h *Hub) dropRoomConn(cid domain.ConnectionID, conn *wsConn) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	current := h.conns[cid] == conn
	if current {
		delete(h.conns, cid)
	}
	h.mu.Unlock()
	conn.Close()

	if !current {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("stale room socket closed")
		return
	}

	h.sessions.Disconnect(cid)
	h.limiter.Forget(cid)
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("room socket detached")
}

// HandleLobby upgrades a lobby socket: it is primed with the current room
// list and then receives every room-list broadcast until it goes away.
func (h *Hub) HandleLobby(ctx context.Context, c *gin.Context) {
	cid := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("cid", cid).Msg("lobby socket attached")

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, h.cfg.SendQueueLen),
	}

	h.mu.Lock()
	h.lobby[conn] = struct{}{}
	h.mu.Unlock()

	h.sendJSON(conn, core.EventLobbyUpdated, h.sessions.RoomList())

	ctx, cancel := context.WithCancel(ctx)
	go h.writePump(ctx, conn)
	go func() {
		defer cancel()
		h.drainPump(ctx, conn)

		h.mu.Lock()
		delete(h.lobby, conn)
		h.mu.Unlock()
		conn.Close()
		log.Info().Str("module", "signal").Str("cid", cid).Msg("lobby socket detached")
	}()
}

func (h *Hub) sendJSON(c *wsConn, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("sendJSON marshal payload")
		return
	}
	data, err := json.Marshal(envelope{Event: event, Payload: body})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("sendJSON marshal envelope")
		return
	}
	if err := c.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("event", event).Msg("send dropped")
	}
}
