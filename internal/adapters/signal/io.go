package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/guilhermebehs/clone-clubehouse-back/internal/config"
	"github.com/guilhermebehs/clone-clubehouse-back/internal/core"
)

// envelope is the wire frame: the event name plus its body.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const writeWait = 5 * time.Second

// HandleRoom serves the room websocket: the session is announced to the
// controller, then inbound frames are dispatched through the static event
// table until the socket dies, which counts as a disconnect.
func (h *Hub) HandleRoom(ctx context.Context, cfg *config.Config, c *gin.Context) {
	sid, conn, err := h.upgrade(c.Writer, c.Request, 32)
	if err != nil {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new room connection")

	conn.conn.SetReadLimit(cfg.ReadLimit)
	h.onConnect(sid)

	go h.writePump(ctx, conn, cfg.PingPeriod)
	go h.readPump(ctx, sid, conn, true)
}

// HandleLobby serves the lobby websocket: push-only LOBBY_UPDATED plus the
// PING keepalive. Lobby sessions have no room state to clean up.
func (h *Hub) HandleLobby(ctx context.Context, cfg *config.Config, c *gin.Context, subscribe func(core.SessionID)) {
	sid, conn, err := h.upgrade(c.Writer, c.Request, 8)
	if err != nil {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new lobby connection")

	conn.conn.SetReadLimit(cfg.ReadLimit)
	subscribe(sid)

	go h.writePump(ctx, conn, cfg.PingPeriod)
	go h.readPump(ctx, sid, conn, false)
}

func (h *Hub) writePump(ctx context.Context, c *wsConn, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
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
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(ctx context.Context, sid core.SessionID, c *wsConn, room bool) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		if room {
			if err := h.onDisconnect(sid); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("disconnect cleanup")
			}
		}
		h.dropSession(sid)
		c.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			h.dispatch(sid, c, data)
		}
	}
}

func (h *Hub) dispatch(sid core.SessionID, c *wsConn, data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		h.sendError(c, "bad_payload")
		return
	}

	if in.Type == eventPing {
		h.handlePing(c)
		return
	}
	if in.Type == core.EventJoinRoom && !h.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("join rate limited")
		h.sendError(c, "too_many_joins")
		return
	}

	handler, ok := h.events[in.Type]
	if !ok {
		log.Warn().Str("module", "signal").Str("type", in.Type).Msg("unknown event")
		return
	}
	if err := handler(sid, in.Payload); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", in.Type).Str("sid", string(sid)).Msg("handler error")
		h.sendError(c, "handler_failed")
	}
}

func (h *Hub) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.trySend(b)
}

func (h *Hub) sendError(c *wsConn, reason string) {
	h.sendJSON(c, map[string]any{"type": "error", "error": reason})
}
