package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
	"github.com/dkeye/recruit/internal/form"
)

// Notice texts sent privately to the actor.
const (
	NoticeSessionGone = "This recruitment has ended or could not be found."
	NoticeRoleFull    = "That role is full."
	NoticeUnknownRole = "That role does not exist in this recruitment."
	NoticeNotMember   = "You have not joined this recruitment."
	NoticeLeft        = "You left the recruitment."
	NoticeNotHost     = "Only the host can close this recruitment."
	NoticeClosed      = "Recruitment closed and removed."
)

// Router dispatches inbound events to the engine. It is safe for concurrent
// use; ordering per session is enforced by the store. Build it with NewRouter.
type Router struct {
	Store     *Store
	Gateway   core.Gateway
	Allocator core.Allocator
	Renderer  core.Renderer
	Forms     form.Collector
	Metrics   *Metrics

	// TargetChannel overrides the channel new sessions are posted to.
	TargetChannel string
}

// NewRouter returns a Router with its store and metrics set. Nil arguments
// get fresh ones.
func NewRouter(store *Store, metrics *Metrics) *Router {
	if store == nil {
		store = NewStore()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Router{Store: store, Metrics: metrics}
}

// Handle processes one event to completion. The returned error classifies
// the outcome; the actor has already been notified of it.
func (r *Router) Handle(ctx context.Context, ev core.Event) error {
	id, err := core.Decode(ev.Control)
	if err != nil {
		r.Metrics.BadControls.Add(1)
		log.Warn().Err(err).Str("module", "app.router").Str("actor", string(ev.Actor)).Msg("ignored event")
		return err
	}

	logger := log.With().
		Str("module", "app.router").
		Str("kind", string(id.Kind)).
		Str("sid", string(id.Session)).
		Str("actor", string(ev.Actor)).
		Logger()

	if id.Kind != core.KindCreate && id.Kind != core.KindCreateRoom {
		r.ack(ctx, &logger, ev)
	}

	switch id.Kind {
	case core.KindJoin:
		err = r.join(ctx, &logger, ev, id)
	case core.KindLeave:
		err = r.leave(ctx, &logger, ev, id)
	case core.KindClose:
		err = r.close(ctx, &logger, ev, id)
	case core.KindCreate, core.KindCreateRoom:
		err = r.create(ctx, &logger, ev, id)
	}

	if errors.Is(err, domain.ErrSessionNotFound) {
		r.Metrics.NotFound.Add(1)
		r.notify(ctx, &logger, ev, NoticeSessionGone)
	}
	return err
}

// PostTrigger posts the panel hosting the creation controls.
func (r *Router) PostTrigger(ctx context.Context, channel string) (domain.MessageRef, error) {
	ref, err := r.Gateway.Send(ctx, channel, r.Renderer.Trigger())
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("channel", channel).Msg("post trigger")
		return domain.MessageRef{}, fmt.Errorf("%w: post trigger: %w", domain.ErrDelivery, err)
	}
	log.Info().Str("module", "app.router").Str("channel", channel).Str("message", string(ref.ID)).Msg("trigger posted")
	return ref, nil
}

// publish renders a snapshot and delivers it unless a newer version of the
// session was already delivered.
func (r *Router) publish(ctx context.Context, logger *zerolog.Logger, snap Snapshot) {
	view := r.Renderer.Render(snap.Session)
	sent, err := r.Store.Deliver(snap.Session.ID, snap.Version, func() error {
		return r.Gateway.Edit(ctx, snap.Session.Ref(), view)
	})
	switch {
	case err != nil:
		r.Metrics.DeliveryFailures.Add(1)
		logger.Warn().Err(err).Uint64("version", snap.Version).Msg("render delivery failed")
	case !sent:
		r.Metrics.RendersStale.Add(1)
	default:
		r.Metrics.RendersDelivered.Add(1)
		logger.Debug().Uint64("version", snap.Version).Msg("render delivered")
	}
}

// ack acknowledges the event before the store or the gateway is touched.
func (r *Router) ack(ctx context.Context, logger *zerolog.Logger, ev core.Event) {
	if ev.Reply == nil {
		return
	}
	if err := ev.Reply.Defer(ctx); err != nil {
		logger.Warn().Err(err).Msg("acknowledge failed")
	}
}

func (r *Router) notify(ctx context.Context, logger *zerolog.Logger, ev core.Event, text string) {
	if ev.Reply == nil {
		return
	}
	if err := ev.Reply.Notify(ctx, text); err != nil {
		logger.Warn().Err(err).Msg("notice delivery failed")
	}
}
