package core

import (
	"fmt"
	"strings"

	"github.com/dkeye/recruit/internal/domain"
)

// Kind is the action a control performs.
type Kind string

const (
	KindJoin       Kind = "join"
	KindLeave      Kind = "leave"
	KindClose      Kind = "close"
	KindCreate     Kind = "create"
	KindCreateRoom Kind = "create-room"
)

const controlSep = ":"

// ControlID is the decoded form of a control identifier
// "<kind>:<role-or-empty>:<sessionId>". It is the only state a control
// carries, so a control rebuilt from a session id behaves like the one
// originally rendered.
type ControlID struct {
	Kind    Kind
	Role    string
	Session domain.SessionID
}

// Trigger reports whether the control starts session creation.
func (c ControlID) Trigger() bool {
	return c.Kind == KindCreate || c.Kind == KindCreateRoom
}

// WithRoom reports whether the trigger requests an auxiliary room.
func (c ControlID) WithRoom() bool {
	return c.Kind == KindCreateRoom
}

func (c ControlID) String() string {
	return Encode(c)
}

// Encode builds the identifier string.
func Encode(c ControlID) string {
	return string(c.Kind) + controlSep + c.Role + controlSep + string(c.Session)
}

// JoinControl, LeaveControl and CloseControl build the per-session controls.
func JoinControl(id domain.SessionID, role string) ControlID {
	return ControlID{Kind: KindJoin, Role: role, Session: id}
}

func LeaveControl(id domain.SessionID) ControlID {
	return ControlID{Kind: KindLeave, Session: id}
}

func CloseControl(id domain.SessionID) ControlID {
	return ControlID{Kind: KindClose, Session: id}
}

// TriggerControl builds a creation control; it is bound to no session.
func TriggerControl(withRoom bool) ControlID {
	if withRoom {
		return ControlID{Kind: KindCreateRoom}
	}
	return ControlID{Kind: KindCreate}
}

// Decode parses an identifier. The session id is the remainder after the
// second separator and may itself contain separators.
func Decode(raw string) (ControlID, error) {
	parts := strings.SplitN(raw, controlSep, 3)
	if len(parts) != 3 {
		return ControlID{}, fmt.Errorf("%w: %q", domain.ErrBadControl, raw)
	}
	c := ControlID{Kind: Kind(parts[0]), Role: parts[1], Session: domain.SessionID(parts[2])}

	switch c.Kind {
	case KindJoin:
		if c.Role == "" || c.Session == "" {
			return ControlID{}, fmt.Errorf("%w: %q", domain.ErrBadControl, raw)
		}
	case KindLeave, KindClose:
		if c.Role != "" || c.Session == "" {
			return ControlID{}, fmt.Errorf("%w: %q", domain.ErrBadControl, raw)
		}
	case KindCreate, KindCreateRoom:
		if c.Role != "" || c.Session != "" {
			return ControlID{}, fmt.Errorf("%w: %q", domain.ErrBadControl, raw)
		}
	default:
		return ControlID{}, fmt.Errorf("%w: unknown kind %q", domain.ErrBadControl, parts[0])
	}
	return c, nil
}

// Bind returns the control identifiers of a session in display order:
// one join control per role, then leave and close.
func Bind(id domain.SessionID, roles []domain.RoleQuota) []ControlID {
	out := make([]ControlID, 0, len(roles)+2)
	for _, r := range roles {
		out = append(out, JoinControl(id, r.Name))
	}
	return append(out, LeaveControl(id), CloseControl(id))
}
