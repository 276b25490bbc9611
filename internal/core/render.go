package core

import (
	"fmt"
	"strings"

	"github.com/dkeye/recruit/internal/domain"
)

// Style is the visual style of a control.
type Style string

const (
	StylePrimary   Style = "primary"
	StyleSecondary Style = "secondary"
	StyleSuccess   Style = "success"
	StyleDanger    Style = "danger"
)

// ValidStyle reports whether s names a known style.
func ValidStyle(s Style) bool {
	switch s {
	case StylePrimary, StyleSecondary, StyleSuccess, StyleDanger:
		return true
	}
	return false
}

const (
	EmptyMarker = "(none)"
	LeaveLabel  = "Leave"
	CloseLabel  = "Close"
)

// Field is one block of the display document.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Document is the structured text of a rendered message.
type Document struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// Control is a rendered control descriptor.
type Control struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Style    Style  `json:"style"`
	Disabled bool   `json:"disabled"`
	Row      int    `json:"row"`
}

// View is everything the gateway needs to display a message.
type View struct {
	Document Document  `json:"document"`
	Controls []Control `json:"controls"`
}

// Renderer projects sessions into views. It holds only static presentation
// settings and has no side effects.
type Renderer struct {
	// RoleStyles overrides the style of a role's join control.
	RoleStyles map[string]Style
}

var defaultRoleStyles = []Style{StylePrimary, StyleSuccess, StyleDanger}

func (r Renderer) roleStyle(i int, role string) Style {
	if st, ok := r.RoleStyles[role]; ok && ValidStyle(st) {
		return st
	}
	return defaultRoleStyles[i%len(defaultRoleStyles)]
}

// Render projects a session into its display document and controls.
func (r Renderer) Render(s *domain.Session) View {
	doc := Document{
		Title: "Recruiting: " + s.Title,
		Fields: []Field{
			{Name: "Date/Time", Value: strings.TrimSpace(s.Date + " " + s.Time)},
			{Name: "Host", Value: s.Host.Mention()},
		},
	}
	for _, role := range s.Roles {
		members := s.Roster[role.Name]
		value := EmptyMarker
		if len(members) > 0 {
			mentions := make([]string, 0, len(members))
			for _, u := range members {
				mentions = append(mentions, u.Mention())
			}
			value = strings.Join(mentions, "\n")
		}
		doc.Fields = append(doc.Fields, Field{
			Name:   fmt.Sprintf("%s (%d/%d)", role.Name, len(members), role.Capacity),
			Value:  value,
			Inline: true,
		})
	}
	if s.Room != "" {
		doc.Fields = append(doc.Fields, Field{Name: "Voice", Value: s.Room.Mention()})
	}

	ids := Bind(s.ID, s.Roles)
	controls := make([]Control, 0, len(ids))
	for i, role := range s.Roles {
		count := s.Count(role.Name)
		controls = append(controls, Control{
			ID:       ids[i].String(),
			Label:    fmt.Sprintf("%s %d/%d", role.Name, count, role.Capacity),
			Style:    r.roleStyle(i, role.Name),
			Disabled: count >= role.Capacity,
		})
	}
	n := len(s.Roles)
	controls = append(controls,
		Control{ID: ids[n].String(), Label: LeaveLabel, Style: StyleSecondary, Row: 1},
		Control{ID: ids[n+1].String(), Label: CloseLabel, Style: StyleDanger, Row: 1},
	)
	return View{Document: doc, Controls: controls}
}

// Placeholder is shown while the message id, and with it the session id, is
// not known yet.
func (Renderer) Placeholder() View {
	return View{Document: Document{Title: "Recruiting...", Description: "Preparing"}}
}

// Trigger renders the panel hosting the creation controls.
func (Renderer) Trigger() View {
	return View{
		Document: Document{
			Title:       "Party Recruitment",
			Description: "Press a button below to start recruiting.",
		},
		Controls: []Control{
			{ID: TriggerControl(false).String(), Label: "Create", Style: StylePrimary},
			{ID: TriggerControl(true).String(), Label: "Create (+VC)", Style: StyleSecondary},
		},
	}
}
