package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
	"github.com/dkeye/recruit/internal/form"
)

var errGateway = errors.New("gateway unavailable")

type editCall struct {
	Ref  domain.MessageRef
	View core.View
}

// fakeGateway records every call. Messages get sequential ids starting at 100.
type fakeGateway struct {
	mu      sync.Mutex
	next    int
	sent    []core.View
	edits   []editCall
	deleted []domain.MessageRef
	rooms   []domain.RoomName
	dropped []domain.RoomID

	failSend   bool
	failEdit   bool
	failRoom   bool
	failDelete bool

	// onEdit runs before an edit is recorded, outside the fake's lock.
	onEdit func(ref domain.MessageRef, v core.View)
}

func (g *fakeGateway) Send(_ context.Context, channel string, v core.View) (domain.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSend {
		return domain.MessageRef{}, errGateway
	}
	g.sent = append(g.sent, v)
	id := domain.SessionID(fmt.Sprint(100 + g.next))
	g.next++
	return domain.MessageRef{Channel: channel, ID: id, URL: "https://chat.test/" + channel + "/" + string(id)}, nil
}

func (g *fakeGateway) Edit(_ context.Context, ref domain.MessageRef, v core.View) error {
	if hook := g.onEdit; hook != nil {
		hook(ref, v)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failEdit {
		return errGateway
	}
	g.edits = append(g.edits, editCall{Ref: ref, View: v})
	return nil
}

func (g *fakeGateway) Delete(_ context.Context, ref domain.MessageRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDelete {
		return errGateway
	}
	g.deleted = append(g.deleted, ref)
	return nil
}

func (g *fakeGateway) CreateRoom(_ context.Context, name domain.RoomName) (domain.RoomID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRoom {
		return "", errGateway
	}
	g.rooms = append(g.rooms, name)
	return domain.RoomID(fmt.Sprintf("room-%d", len(g.rooms))), nil
}

func (g *fakeGateway) DeleteRoom(_ context.Context, id domain.RoomID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDelete {
		return errGateway
	}
	g.dropped = append(g.dropped, id)
	return nil
}

func (g *fakeGateway) lastEdit() (editCall, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.edits) == 0 {
		return editCall{}, false
	}
	return g.edits[len(g.edits)-1], true
}

func (g *fakeGateway) editCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edits)
}

type formCall struct {
	Control string
	Title   string
	Fields  []core.FormField
}

type fakeResponder struct {
	mu       sync.Mutex
	deferred int
	notices  []string
	forms    []formCall
}

func (r *fakeResponder) Defer(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred++
	return nil
}

func (r *fakeResponder) deferCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deferred
}

func (r *fakeResponder) Notify(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
	return nil
}

func (r *fakeResponder) OpenForm(_ context.Context, control, title string, fields []core.FormField) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = append(r.forms, formCall{Control: control, Title: title, Fields: fields})
	return nil
}

func (r *fakeResponder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return ""
	}
	return r.notices[len(r.notices)-1]
}

var testRoles = []domain.RoleQuota{{Name: "Tank", Capacity: 1}, {Name: "Healer", Capacity: 1}, {Name: "DPS", Capacity: 2}}

func newTestRouter(gw *fakeGateway) *Router {
	r := NewRouter(nil, nil)
	r.Gateway = gw
	r.Forms = form.Collector{Roles: testRoles}
	return r
}

func newTestSession(id domain.SessionID, host domain.UserID, room domain.RoomID) *domain.Session {
	req := domain.SessionRequest{Host: host, Title: "Savage prog", Date: "1201", Time: "21:00", Roles: testRoles}
	return domain.NewSession(domain.MessageRef{Channel: "chan", ID: id}, req, room)
}

// seed stores a session directly, bypassing the creation flow.
func seed(t testing.TB, r *Router, id domain.SessionID, host domain.UserID, room domain.RoomID) {
	t.Helper()
	if _, err := r.Store.Create(newTestSession(id, host, room)); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func event(actor domain.UserID, control string, reply core.Responder) core.Event {
	return core.Event{Actor: actor, Control: control, Channel: "chan", Reply: reply}
}
