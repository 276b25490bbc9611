package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
	"github.com/dkeye/recruit/internal/form"
)

// create handles a trigger control. Without fields it opens the form; the
// submission comes back as an event with the same control and the fields.
func (r *Router) create(ctx context.Context, logger *zerolog.Logger, ev core.Event, id core.ControlID) error {
	if ev.Fields == nil {
		if ev.Reply == nil {
			return nil
		}
		if err := ev.Reply.OpenForm(ctx, ev.Control, form.Title, r.Forms.Fields()); err != nil {
			logger.Warn().Err(err).Msg("open form failed")
			return fmt.Errorf("%w: open form: %w", domain.ErrDelivery, err)
		}
		return nil
	}

	r.ack(ctx, logger, ev)
	req, err := r.Forms.Collect(ev.Actor, ev.Fields, id.WithRoom())
	if err != nil {
		r.Metrics.FormRejected.Add(1)
		logger.Info().Err(err).Msg("form rejected")
		r.notify(ctx, logger, ev, "Invalid input: "+err.Error())
		return err
	}

	channel := r.TargetChannel
	if channel == "" {
		channel = ev.Channel
	}

	var room domain.RoomID
	if req.WithRoom {
		room, err = r.Gateway.CreateRoom(ctx, domain.NewRoomName(req.Title))
		if err != nil {
			r.Metrics.CreateFailures.Add(1)
			logger.Warn().Err(err).Msg("room creation failed")
			r.notify(ctx, logger, ev, fmt.Sprintf("Failed to create voice room: %v", err))
			return fmt.Errorf("%w: create room: %w", domain.ErrDelivery, err)
		}
	}

	ref, err := r.Gateway.Send(ctx, channel, r.Renderer.Placeholder())
	if err != nil {
		r.Metrics.CreateFailures.Add(1)
		logger.Warn().Err(err).Str("channel", channel).Msg("posting session failed")
		r.discardRoom(ctx, logger, room)
		r.notify(ctx, logger, ev, fmt.Sprintf("Failed to post the recruitment: %v", err))
		return fmt.Errorf("%w: send: %w", domain.ErrDelivery, err)
	}

	snap, err := r.Store.Create(domain.NewSession(ref, req, room))
	if err != nil {
		r.Metrics.CreateFailures.Add(1)
		logger.Error().Err(err).Str("sid", string(ref.ID)).Msg("storing session failed")
		r.discardRoom(ctx, logger, room)
		if derr := r.Gateway.Delete(ctx, ref); derr != nil {
			logger.Warn().Err(derr).Msg("placeholder deletion failed")
		}
		r.notify(ctx, logger, ev, "Failed to create the recruitment.")
		return err
	}

	r.Metrics.SessionsCreated.Add(1)
	r.publish(ctx, logger, snap)
	logger.Info().Str("sid", string(ref.ID)).Str("room", string(room)).Msg("session created")

	text := "Recruitment created!"
	if ref.URL != "" {
		text += " -> " + ref.URL
	}
	r.notify(ctx, logger, ev, text)
	return nil
}

func (r *Router) discardRoom(ctx context.Context, logger *zerolog.Logger, room domain.RoomID) {
	if room == "" {
		return
	}
	if err := r.Gateway.DeleteRoom(ctx, room); err != nil {
		logger.Warn().Err(err).Str("room", string(room)).Msg("room cleanup failed")
	}
}
