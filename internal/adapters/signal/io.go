package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (g *Gateway) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(g.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "adapters.signal").Msg("writePump ctx done")
			g.drop(c)
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Msg("writePump ping")
				g.drop(c)
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "adapters.signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Msg("writePump set deadline")
				g.drop(c)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Msg("writePump write error")
				g.drop(c)
				return
			}
		}
	}
}

func (g *Gateway) readPump(ctx context.Context, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "adapters.signal").Str("actor", string(c.actor)).Msg("readPump closing")
		g.drop(c)
	}()

	if g.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(g.opts.ReadLimit)
	}
	// A client that answers no ping within a period and a bit is gone.
	pongWait := g.opts.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "adapters.signal").Str("actor", string(c.actor)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "adapters.signal").Str("actor", string(c.actor)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			g.handleFrame(ctx, c, data)
		}
	}
}

func (g *Gateway) handleFrame(ctx context.Context, c *WsSignalConn, data []byte) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warn().Err(err).Str("module", "adapters.signal").Msg("bad json")
		g.sendJSON(c, errorFrame{Type: "error", Error: "bad_payload"})
		return
	}
	if f.Channel == "" {
		f.Channel = DefaultChannel
	}

	switch f.Type {
	case FrameInteract:
		g.handleInteract(ctx, c, f)
	case FrameSetup:
		g.handleSetup(ctx, c, f)
	case FramePing:
		g.sendJSON(c, struct {
			Type string `json:"type"`
		}{Type: "pong"})
	case FrameWhoAmI:
		g.sendJSON(c, whoamiFrame{Type: "whoami", Actor: c.actor})
	default:
		log.Warn().Str("module", "adapters.signal").Str("type", f.Type).Msg("unknown frame")
		g.sendJSON(c, errorFrame{Type: "error", Error: "unknown_type"})
	}
}

func (g *Gateway) sendJSON(c *WsSignalConn, v any) {
	b, err := marshalFrame(v)
	if err != nil {
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "adapters.signal").Str("actor", string(c.actor)).Msg("sendJSON")
	}
}
