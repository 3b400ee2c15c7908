package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Backstage/internal/domain"
)

const writeWait = 5 * time.Second

func (h *Hub) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(h.cfg.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (h *Hub) readPump(ctx context.Context, cid domain.ConnectionID, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			h.dispatch(cid, c, data)
		}
	}
}

// drainPump reads and discards inbound frames until the peer goes away.
// Lobby sockets send nothing we care about, but reads must keep running
// for close and ping/pong processing.
func (h *Hub) drainPump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound envelope: call-signaling passthrough stays
// in the adapter, everything else goes to the controller's named handler.
func (h *Hub) dispatch(cid domain.ConnectionID, c *wsConn, data []byte) {
	if !h.limiter.Allow(cid) {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Msg("rate limited, frame dropped")
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad envelope")
		return
	}

	switch env.Event {
	case EventCallOffer, EventCallAnswer, EventCallCandidate:
		h.relayCall(cid, env)
		return
	}

	handler, ok := h.handlers[env.Event]
	if !ok {
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
		return
	}
	handler(cid, env.Payload)
}
