package core

import (
	"context"

	"github.com/dkeye/recruit/internal/domain"
)

// Gateway abstracts the chat platform. Owned by the adapter; the engine only
// issues render and room lifecycle commands through it.
type Gateway interface {
	// Send posts a new message and returns its reference. The message id
	// becomes the session id.
	Send(ctx context.Context, channel string, v View) (domain.MessageRef, error)
	Edit(ctx context.Context, ref domain.MessageRef, v View) error
	Delete(ctx context.Context, ref domain.MessageRef) error

	CreateRoom(ctx context.Context, name domain.RoomName) (domain.RoomID, error)
	DeleteRoom(ctx context.Context, id domain.RoomID) error
}

// FormField describes one input of the creation form.
type FormField struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Default     string `json:"default,omitempty"`
	MinLength   int    `json:"min_length,omitempty"`
	MaxLength   int    `json:"max_length,omitempty"`
}

// Responder answers the actor of one event. Notices are private to the actor.
type Responder interface {
	// Defer acknowledges the event before slow work runs. Later notices
	// still reach the actor. Must not be called before OpenForm.
	Defer(ctx context.Context) error
	Notify(ctx context.Context, text string) error
	// OpenForm asks the platform to show the creation form; its submission
	// arrives as a new event carrying the same control id and the fields.
	OpenForm(ctx context.Context, control string, title string, fields []FormField) error
}

// Event is one inbound interaction.
type Event struct {
	Actor   domain.UserID
	Control string
	// Fields is nil unless the event is a form submission.
	Fields  map[string]string
	Channel string
	Reply   Responder
}
