package signal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

var _ core.Gateway = (*Gateway)(nil)

// Send registers a new message and broadcasts it.
func (g *Gateway) Send(_ context.Context, channel string, v core.View) (domain.MessageRef, error) {
	ref := domain.MessageRef{Channel: channel, ID: domain.SessionID(uuid.NewString())}
	ref.URL = fmt.Sprintf("#%s/%s", channel, ref.ID)

	g.mu.Lock()
	g.messages[ref.ID] = channel
	g.mu.Unlock()

	g.broadcast(messageFrame{Type: "message", Op: OpSend, Ref: ref, View: &v})
	return ref, nil
}

func (g *Gateway) Edit(_ context.Context, ref domain.MessageRef, v core.View) error {
	if !g.knownMessage(ref.ID) {
		return fmt.Errorf("edit %s: %w", ref.ID, ErrUnknownMessage)
	}
	g.broadcast(messageFrame{Type: "message", Op: OpEdit, Ref: ref, View: &v})
	return nil
}

func (g *Gateway) Delete(_ context.Context, ref domain.MessageRef) error {
	g.mu.Lock()
	_, ok := g.messages[ref.ID]
	delete(g.messages, ref.ID)
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("delete %s: %w", ref.ID, ErrUnknownMessage)
	}
	g.broadcast(messageFrame{Type: "message", Op: OpDelete, Ref: ref})
	return nil
}

func (g *Gateway) CreateRoom(_ context.Context, name domain.RoomName) (domain.RoomID, error) {
	id := domain.RoomID(uuid.NewString())
	g.mu.Lock()
	g.rooms[id] = name
	g.mu.Unlock()
	g.broadcast(roomFrame{Type: "room", Op: OpCreate, ID: id, Name: name})
	return id, nil
}

func (g *Gateway) DeleteRoom(_ context.Context, id domain.RoomID) error {
	g.mu.Lock()
	_, ok := g.rooms[id]
	delete(g.rooms, id)
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("delete room %s: %w", id, ErrUnknownRoom)
	}
	g.broadcast(roomFrame{Type: "room", Op: OpDelete, ID: id})
	return nil
}

func (g *Gateway) knownMessage(id domain.SessionID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.messages[id]
	return ok
}
