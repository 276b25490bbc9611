package signal

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []core.Event
	posted []string
	result error
}

func (d *fakeDispatcher) Handle(ctx context.Context, ev core.Event) error {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()
	if d.result != nil {
		return d.result
	}
	return ev.Reply.Notify(ctx, "handled "+ev.Control)
}

func (d *fakeDispatcher) PostTrigger(_ context.Context, channel string) (domain.MessageRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.posted = append(d.posted, channel)
	return domain.MessageRef{Channel: channel, ID: "trigger"}, nil
}

func (d *fakeDispatcher) lastEvent() core.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events[len(d.events)-1]
}

func newTestServer(t *testing.T, g *Gateway) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", c.Query("actor"))
		g.HandleSignal(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, actor string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?actor=" + actor
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// A round trip guarantees the server registered the connection.
	send(t, conn, map[string]any{"type": "ping"})
	if f := read(t, conn); f["type"] != "pong" {
		t.Fatalf("expected pong, got %v", f)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f map[string]any
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func TestWhoAmI(t *testing.T) {
	g := NewGateway(Options{})
	srv := newTestServer(t, g)
	conn := dial(t, srv, "alice")

	send(t, conn, map[string]any{"type": "whoami"})
	if f := read(t, conn); f["type"] != "whoami" || f["actor"] != "alice" {
		t.Fatalf("whoami = %v", f)
	}
}

func TestInteractDispatchesEvent(t *testing.T) {
	g := NewGateway(Options{})
	d := &fakeDispatcher{}
	g.Bind(d)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "alice")

	send(t, conn, map[string]any{
		"type":    "interact",
		"control": "create::",
		"fields":  map[string]string{"title": "Savage"},
	})
	f := read(t, conn)
	if f["type"] != "notice" || f["text"] != "handled create::" {
		t.Fatalf("notice = %v", f)
	}

	ev := d.lastEvent()
	if ev.Actor != "alice" || ev.Channel != DefaultChannel {
		t.Fatalf("event = %+v", ev)
	}
	if diff := cmp.Diff(map[string]string{"title": "Savage"}, ev.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	send(t, conn, map[string]any{"type": "interact", "control": "join:Tank:1"})
	_ = read(t, conn)
	if ev := d.lastEvent(); ev.Fields != nil {
		t.Fatalf("button press carried fields: %v", ev.Fields)
	}
}

func TestInteractBadControl(t *testing.T) {
	g := NewGateway(Options{})
	g.Bind(&fakeDispatcher{result: domain.ErrBadControl})
	srv := newTestServer(t, g)
	conn := dial(t, srv, "alice")

	send(t, conn, map[string]any{"type": "interact", "control": "bogus"})
	if f := read(t, conn); f["type"] != "error" || f["error"] != "bad_control" {
		t.Fatalf("frame = %v", f)
	}
}

func TestSetupPostsTrigger(t *testing.T) {
	g := NewGateway(Options{})
	d := &fakeDispatcher{}
	g.Bind(d)
	srv := newTestServer(t, g)
	conn := dial(t, srv, "alice")

	send(t, conn, map[string]any{"type": "setup", "channel": "lobby"})
	send(t, conn, map[string]any{"type": "ping"})
	_ = read(t, conn)

	d.mu.Lock()
	defer d.mu.Unlock()
	if diff := cmp.Diff([]string{"lobby"}, d.posted); diff != "" {
		t.Fatalf("posted mismatch (-want +got):\n%s", diff)
	}
}

func TestMessagesBroadcast(t *testing.T) {
	g := NewGateway(Options{})
	srv := newTestServer(t, g)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")
	ctx := context.Background()

	view := core.View{Document: core.Document{Title: "Recruiting: Savage"}}
	ref, err := g.Send(ctx, "lobby", view)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	for _, conn := range []*websocket.Conn{alice, bob} {
		f := read(t, conn)
		if f["type"] != "message" || f["op"] != OpSend {
			t.Fatalf("frame = %v", f)
		}
		got := f["ref"].(map[string]any)["id"]
		if got != string(ref.ID) {
			t.Fatalf("ref id = %v, want %s", got, ref.ID)
		}
	}

	if err := g.Edit(ctx, ref, view); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if f := read(t, bob); f["op"] != OpEdit {
		t.Fatalf("frame = %v", f)
	}
	if err := g.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := g.Edit(ctx, ref, view); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("Edit after delete err = %v, want ErrUnknownMessage", err)
	}
	if err := g.Delete(ctx, ref); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("second Delete err = %v, want ErrUnknownMessage", err)
	}
}

func TestRooms(t *testing.T) {
	g := NewGateway(Options{})
	ctx := context.Background()

	id, err := g.CreateRoom(ctx, domain.NewRoomName("Savage"))
	if err != nil || id == "" {
		t.Fatalf("CreateRoom: id=%q err=%v", id, err)
	}
	if err := g.DeleteRoom(ctx, id); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if err := g.DeleteRoom(ctx, id); !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("second DeleteRoom err = %v, want ErrUnknownRoom", err)
	}
}

func TestRateLimitedInteract(t *testing.T) {
	g := NewGateway(Options{Limiter: NewActorRateLimiter(1, time.Hour)})
	g.Bind(&fakeDispatcher{})
	srv := newTestServer(t, g)
	conn := dial(t, srv, "alice")

	send(t, conn, map[string]any{"type": "interact", "control": "leave::1"})
	if f := read(t, conn); f["type"] != "notice" {
		t.Fatalf("first frame = %v", f)
	}
	send(t, conn, map[string]any{"type": "interact", "control": "leave::1"})
	if f := read(t, conn); f["type"] != "error" || f["error"] != "rate_limited" {
		t.Fatalf("second frame = %v", f)
	}
}

func TestActorRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewActorRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two attempts must pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third attempt within the window must be blocked")
	}
	if !rl.Allow("b") {
		t.Fatalf("other actors are limited independently")
	}
	now = now.Add(1500 * time.Millisecond)
	if !rl.Allow("a") {
		t.Fatalf("attempt after the window must pass")
	}
	if got := rl.Len(); got != 1 {
		t.Fatalf("idle actor b must be swept, tracked = %d", got)
	}
}

func TestMissingClientToken(t *testing.T) {
	g := NewGateway(Options{})
	srv := newTestServer(t, g)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatalf("expected dial without a client token to fail")
	}
}
