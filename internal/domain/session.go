package domain

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLen = 50
	MaxQuota    = 99
	// MaxRoles is bounded by the platform form limit: title and date/time take
	// two of the five available inputs.
	MaxRoles = 3
)

// SessionID is the id of the message that displays the session.
type SessionID string

// MessageRef addresses a delivered message on the platform.
type MessageRef struct {
	Channel string    `json:"channel"`
	ID      SessionID `json:"id"`
	URL     string    `json:"url,omitempty"`
}

// RoleQuota is one labeled capacity bucket.
type RoleQuota struct {
	Name     string `json:"name" yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

// SessionRequest is the validated output of the creation form.
type SessionRequest struct {
	Host     UserID
	Title    string
	Date     string
	Time     string
	Roles    []RoleQuota
	WithRoom bool
}

// Validate checks the request shape. Quotas are not re-validated once a
// session exists.
func (r SessionRequest) Validate() error {
	if r.Host == "" {
		return ErrHostEmpty
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleEmpty
	}
	if utf8.RuneCountInString(r.Title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	return ValidateRoles(r.Roles)
}

// ValidateRoles checks role names and capacities.
func ValidateRoles(roles []RoleQuota) error {
	if len(roles) == 0 || len(roles) > MaxRoles {
		return ErrRoleCount
	}
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		if r.Name == "" || strings.Contains(r.Name, ":") {
			return ErrRoleName
		}
		// Form inputs are keyed by the lowercased name.
		key := strings.ToLower(r.Name)
		if seen[key] {
			return ErrRoleDuplicate
		}
		seen[key] = true
		if r.Capacity < 0 || r.Capacity > MaxQuota {
			return ErrQuotaRange
		}
	}
	return nil
}

// Session is one recruitment instance. Mutated only by the slot allocator
// while its store entry lock is held.
type Session struct {
	ID      SessionID           `json:"id"`
	Channel string              `json:"channel"`
	Host    UserID              `json:"host"`
	Title   string              `json:"title"`
	Date    string              `json:"date"`
	Time    string              `json:"time"`
	Roles   []RoleQuota         `json:"roles"`
	Roster  map[string][]UserID `json:"roster"`
	Room    RoomID              `json:"room,omitempty"`
	Active  bool                `json:"active"`
}

// NewSession builds an active session with an empty roster for every role.
func NewSession(ref MessageRef, req SessionRequest, room RoomID) *Session {
	roster := make(map[string][]UserID, len(req.Roles))
	for _, r := range req.Roles {
		roster[r.Name] = []UserID{}
	}
	return &Session{
		ID:      ref.ID,
		Channel: ref.Channel,
		Host:    req.Host,
		Title:   req.Title,
		Date:    req.Date,
		Time:    req.Time,
		Roles:   slices.Clone(req.Roles),
		Roster:  roster,
		Room:    room,
		Active:  true,
	}
}

// Ref returns the address of the message displaying the session.
func (s *Session) Ref() MessageRef {
	return MessageRef{Channel: s.Channel, ID: s.ID}
}

// Quota returns the capacity of a role and whether the role exists.
func (s *Session) Quota(role string) (int, bool) {
	for _, r := range s.Roles {
		if r.Name == role {
			return r.Capacity, true
		}
	}
	return 0, false
}

// Count returns the number of occupied slots in a role.
func (s *Session) Count(role string) int {
	return len(s.Roster[role])
}

// Full reports whether a role has no free slot.
func (s *Session) Full(role string) bool {
	q, _ := s.Quota(role)
	return s.Count(role) >= q
}

// RoleOf returns the role the user occupies, if any.
func (s *Session) RoleOf(user UserID) (string, bool) {
	for _, r := range s.Roles {
		if slices.Contains(s.Roster[r.Name], user) {
			return r.Name, true
		}
	}
	return "", false
}

// Clone returns a deep copy safe to read outside the entry lock.
func (s *Session) Clone() *Session {
	c := *s
	c.Roles = slices.Clone(s.Roles)
	c.Roster = make(map[string][]UserID, len(s.Roster))
	for role, users := range s.Roster {
		c.Roster[role] = slices.Clone(users)
	}
	return &c
}
