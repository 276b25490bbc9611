// Package signal is a websocket chat gateway for browsers and local testing.
// Every connected client sees every message; notices and forms go only to the
// actor's connection.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

// DefaultChannel is used when a frame names no channel.
const DefaultChannel = "web"

var (
	ErrBackpressure   = errors.New("backpressure")
	ErrConnClosed     = errors.New("connection closed")
	ErrUnknownMessage = errors.New("unknown message")
	ErrUnknownRoom    = errors.New("unknown room")
)

// Dispatcher consumes inbound events. Implemented by app.Router.
type Dispatcher interface {
	Handle(ctx context.Context, ev core.Event) error
	PostTrigger(ctx context.Context, channel string) (domain.MessageRef, error)
}

// wsConn is an indirection over *websocket.Conn to ease testing.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	WriteControl(mt int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	Close() error
}

// WsSignalConn is one connected client.
type WsSignalConn struct {
	actor domain.UserID
	conn  wsConn
	send  chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	Limiter    *ActorRateLimiter
}

// Gateway serves websocket clients and implements core.Gateway on top of them.
type Gateway struct {
	opts Options

	mu       sync.RWMutex
	conns    map[*WsSignalConn]struct{}
	messages map[domain.SessionID]string
	rooms    map[domain.RoomID]domain.RoomName
	dispatch Dispatcher
}

func NewGateway(opts Options) *Gateway {
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	return &Gateway{
		opts:     opts,
		conns:    make(map[*WsSignalConn]struct{}),
		messages: make(map[domain.SessionID]string),
		rooms:    make(map[domain.RoomID]domain.RoomName),
	}
}

// Bind sets the dispatcher. Must be called before serving connections.
func (g *Gateway) Bind(d Dispatcher) {
	g.mu.Lock()
	g.dispatch = d
	g.mu.Unlock()
}

func (g *Gateway) dispatcher() Dispatcher {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dispatch
}

// Clients returns the number of connected clients.
func (g *Gateway) Clients() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request. The actor is the client token set by the
// HTTP layer.
func (g *Gateway) HandleSignal(ctx context.Context, c *gin.Context) {
	actor := domain.UserID(c.GetString("client_token"))
	if actor == "" || len(actor) > domain.MaxUserIDLen {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	log.Info().Str("module", "adapters.signal").Str("actor", string(actor)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("ws upgrade")
		return
	}
	g.serve(ctx, actor, ws)
}

func (g *Gateway) serve(ctx context.Context, actor domain.UserID, ws wsConn) *WsSignalConn {
	conn := &WsSignalConn{
		actor: actor,
		conn:  ws,
		send:  make(chan []byte, 32),
	}
	g.mu.Lock()
	g.conns[conn] = struct{}{}
	g.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	go g.writePump(ctx, conn)
	go func() {
		defer cancel()
		g.readPump(ctx, conn)
	}()
	return conn
}

func (g *Gateway) drop(c *WsSignalConn) {
	g.mu.Lock()
	delete(g.conns, c)
	g.mu.Unlock()
	c.Close()
}

func (g *Gateway) broadcast(v any) {
	b, err := marshalFrame(v)
	if err != nil {
		return
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := range g.conns {
		if err := c.TrySend(b); err != nil {
			log.Warn().Err(err).Str("module", "adapters.signal").Str("actor", string(c.actor)).Msg("broadcast skipped")
		}
	}
}
