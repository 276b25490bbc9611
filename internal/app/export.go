package app

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dkeye/recruit/internal/domain"
)

// ExportedSession is the operator view of a live session.
type ExportedSession struct {
	ID      domain.SessionID    `yaml:"id"`
	Channel string              `yaml:"channel"`
	Host    domain.UserID       `yaml:"host"`
	Title   string              `yaml:"title"`
	Date    string              `yaml:"date"`
	Time    string              `yaml:"time,omitempty"`
	Room    domain.RoomID       `yaml:"room,omitempty"`
	Version uint64              `yaml:"version"`
	Roles   []ExportedRoleState `yaml:"roles"`
}

// ExportedRoleState lists one role's members in join order.
type ExportedRoleState struct {
	Name     string          `yaml:"name"`
	Capacity int             `yaml:"capacity"`
	Members  []domain.UserID `yaml:"members"`
}

type exportDoc struct {
	GeneratedAt time.Time         `yaml:"generated_at"`
	Sessions    []ExportedSession `yaml:"sessions"`
}

// Export converts snapshots into the exported form.
func Export(snaps []Snapshot) []ExportedSession {
	out := make([]ExportedSession, 0, len(snaps))
	for _, snap := range snaps {
		s := snap.Session
		es := ExportedSession{
			ID:      s.ID,
			Channel: s.Channel,
			Host:    s.Host,
			Title:   s.Title,
			Date:    s.Date,
			Time:    s.Time,
			Room:    s.Room,
			Version: snap.Version,
			Roles:   make([]ExportedRoleState, 0, len(s.Roles)),
		}
		for _, r := range s.Roles {
			members := s.Roster[r.Name]
			if members == nil {
				members = []domain.UserID{}
			}
			es.Roles = append(es.Roles, ExportedRoleState{Name: r.Name, Capacity: r.Capacity, Members: members})
		}
		out = append(out, es)
	}
	return out
}

// ExportYAML renders every live session as a YAML document.
func (s *Store) ExportYAML(now time.Time) ([]byte, error) {
	return yaml.Marshal(exportDoc{GeneratedAt: now.UTC(), Sessions: Export(s.List())})
}
