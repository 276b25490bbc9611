package signal

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

func (g *Gateway) allow(c *WsSignalConn) bool {
	if g.opts.Limiter == nil || g.opts.Limiter.Allow(c.actor) {
		return true
	}
	log.Warn().Str("module", "adapters.signal").Str("actor", string(c.actor)).Msg("rate limited")
	g.sendJSON(c, errorFrame{Type: "error", Error: "rate_limited"})
	return false
}

func (g *Gateway) handleInteract(ctx context.Context, c *WsSignalConn, f inboundFrame) {
	d := g.dispatcher()
	if d == nil || !g.allow(c) {
		return
	}
	ev := core.Event{
		Actor:   c.actor,
		Control: f.Control,
		Fields:  f.Fields,
		Channel: f.Channel,
		Reply:   &connResponder{g: g, c: c},
	}
	if err := d.Handle(ctx, ev); errors.Is(err, domain.ErrBadControl) {
		g.sendJSON(c, errorFrame{Type: "error", Error: "bad_control"})
	}
}

func (g *Gateway) handleSetup(ctx context.Context, c *WsSignalConn, f inboundFrame) {
	d := g.dispatcher()
	if d == nil || !g.allow(c) {
		return
	}
	if _, err := d.PostTrigger(ctx, f.Channel); err != nil {
		g.sendJSON(c, errorFrame{Type: "error", Error: err.Error()})
	}
}

// connResponder answers on the actor's own connection.
type connResponder struct {
	g *Gateway
	c *WsSignalConn
}

// Defer is a no-op: a websocket has no answer deadline.
func (r *connResponder) Defer(context.Context) error { return nil }

func (r *connResponder) Notify(_ context.Context, text string) error {
	b, err := marshalFrame(noticeFrame{Type: "notice", Text: text})
	if err != nil {
		return err
	}
	return r.c.TrySend(b)
}

func (r *connResponder) OpenForm(_ context.Context, control, title string, fields []core.FormField) error {
	b, err := marshalFrame(formFrame{Type: "form", Control: control, Title: title, Fields: fields})
	if err != nil {
		return err
	}
	return r.c.TrySend(b)
}
