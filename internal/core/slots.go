package core

import (
	"slices"

	"github.com/dkeye/recruit/internal/domain"
)

// JoinResult reports what a join did to the roster.
type JoinResult struct {
	Joined bool
	// Vacated is the role the user left on the way, empty if none.
	Vacated string
	// Changed is true when the roster differs from before the call.
	Changed bool
}

// Allocator implements slot allocation on a session. It performs no I/O and
// must be called with the session's entry lock held.
type Allocator struct {
	Policy MovePolicy
}

// Join moves the user into role. The user is first removed from whatever role
// it occupies, then appended if role has a free slot.
func (a Allocator) Join(s *domain.Session, user domain.UserID, role string) JoinResult {
	quota, ok := s.Quota(role)
	if !ok {
		return JoinResult{}
	}

	from, pos, had := locate(s, user)
	if had {
		s.Roster[from] = slices.Delete(s.Roster[from], pos, pos+1)
	}

	if len(s.Roster[role]) < quota {
		s.Roster[role] = append(s.Roster[role], user)
		return JoinResult{
			Joined:  true,
			Vacated: from,
			Changed: !had || from != role || pos != len(s.Roster[role])-1,
		}
	}

	if had && a.Policy == RollbackVacate {
		s.Roster[from] = slices.Insert(s.Roster[from], pos, user)
		return JoinResult{}
	}
	return JoinResult{Vacated: from, Changed: had}
}

// Leave removes the user from the role containing it.
func (Allocator) Leave(s *domain.Session, user domain.UserID) bool {
	role, pos, ok := locate(s, user)
	if !ok {
		return false
	}
	s.Roster[role] = slices.Delete(s.Roster[role], pos, pos+1)
	return true
}

// Counts returns occupied slots per role in role order.
func (Allocator) Counts(s *domain.Session) []int {
	out := make([]int, 0, len(s.Roles))
	for _, r := range s.Roles {
		out = append(out, s.Count(r.Name))
	}
	return out
}

func locate(s *domain.Session, user domain.UserID) (string, int, bool) {
	for _, r := range s.Roles {
		if i := slices.Index(s.Roster[r.Name], user); i >= 0 {
			return r.Name, i, true
		}
	}
	return "", -1, false
}
