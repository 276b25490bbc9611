package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

func (r *Router) join(ctx context.Context, logger *zerolog.Logger, ev core.Event, id core.ControlID) error {
	var (
		res   core.JoinResult
		known bool
	)
	snap, err := r.Store.Update(id.Session, func(s *domain.Session) bool {
		_, known = s.Quota(id.Role)
		res = r.Allocator.Join(s, ev.Actor, id.Role)
		return res.Changed
	})
	if err != nil {
		return err
	}

	// The view follows the committed roster, including a vacate that was
	// kept after a failed move.
	if res.Changed {
		r.publish(ctx, logger, snap)
	}

	switch {
	case !known:
		logger.Warn().Str("role", id.Role).Msg("join for unknown role")
		r.notify(ctx, logger, ev, NoticeUnknownRole)
		return domain.ErrUnknownRole
	case !res.Joined:
		r.Metrics.JoinsFull.Add(1)
		text := NoticeRoleFull
		if res.Changed && res.Vacated != "" {
			text = fmt.Sprintf("%s You were removed from %s.", NoticeRoleFull, res.Vacated)
		}
		logger.Info().Str("role", id.Role).Str("vacated", res.Vacated).Msg("join rejected, role full")
		r.notify(ctx, logger, ev, text)
		return domain.ErrRoleFull
	}

	r.Metrics.JoinsOK.Add(1)
	logger.Info().Str("role", id.Role).Str("vacated", res.Vacated).Uint64("version", snap.Version).Msg("joined")
	r.notify(ctx, logger, ev, fmt.Sprintf("You joined as %s!", id.Role))
	return nil
}

func (r *Router) leave(ctx context.Context, logger *zerolog.Logger, ev core.Event, id core.ControlID) error {
	var removed bool
	snap, err := r.Store.Update(id.Session, func(s *domain.Session) bool {
		removed = r.Allocator.Leave(s, ev.Actor)
		return removed
	})
	if err != nil {
		return err
	}
	if !removed {
		r.Metrics.LeaveMisses.Add(1)
		r.notify(ctx, logger, ev, NoticeNotMember)
		return domain.ErrNotMember
	}

	r.publish(ctx, logger, snap)
	r.Metrics.Leaves.Add(1)
	logger.Info().Uint64("version", snap.Version).Msg("left")
	r.notify(ctx, logger, ev, NoticeLeft)
	return nil
}

// close removes the session first so no event can touch it during teardown.
// Room and message cleanup are best-effort.
func (r *Router) close(ctx context.Context, logger *zerolog.Logger, ev core.Event, id core.ControlID) error {
	sess, err := r.Store.Remove(id.Session, func(s *domain.Session) error {
		if s.Host != ev.Actor {
			return domain.ErrNotHost
		}
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrNotHost):
		r.Metrics.CloseDenied.Add(1)
		logger.Info().Msg("close denied")
		r.notify(ctx, logger, ev, NoticeNotHost)
		return err
	case err != nil:
		return err
	}

	if sess.Room != "" {
		if err := r.Gateway.DeleteRoom(ctx, sess.Room); err != nil {
			r.Metrics.DeliveryFailures.Add(1)
			logger.Warn().Err(err).Str("room", string(sess.Room)).Msg("room teardown failed")
		}
	}
	if err := r.Gateway.Delete(ctx, sess.Ref()); err != nil {
		r.Metrics.DeliveryFailures.Add(1)
		logger.Warn().Err(err).Msg("message deletion failed")
	}

	r.Metrics.SessionsClosed.Add(1)
	logger.Info().Msg("session closed")
	r.notify(ctx, logger, ev, NoticeClosed)
	return nil
}
