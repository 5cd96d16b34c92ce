package remote

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewer"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestCommandMessage(t *testing.T) {
	cx := viewer.FieldCX
	value := 0.25

	tests := []struct {
		name string
		cmd  Command
		want any
	}{
		{"edit", Command{Type: "edit", Field: &cx, Value: &value}, viewer.Edit{Field: viewer.FieldCX, Value: 0.25}},
		{"reset", Command{Type: "reset", Field: &cx}, viewer.Reset{Field: viewer.FieldCX}},
		{"variant", Command{Type: "variant", Name: "mandelbrot"}, viewer.SelectVariant{Name: "mandelbrot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Message()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Message() = %#v, want %#v", got, tt.want)
			}
		})
	}

	bad := []Command{
		{Type: "edit", Field: &cx},
		{Type: "reset"},
		{Type: "variant"},
		{Type: "explode"},
	}
	for _, cmd := range bad {
		if _, err := cmd.Message(); !errors.Is(err, ErrBadCommand) {
			t.Errorf("%+v: err = %v, want ErrBadCommand", cmd, err)
		}
	}
}

func TestServer(t *testing.T) {
	applied := make(chan any, 4)
	s := NewServer(func(msg any) { applied <- msg })
	s.Publish(viewer.Snapshot{Variant: "julia", Zoom: 1})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Close()

	conn := dial(t, srv)

	ev := readEvent(t, conn)
	if ev.Type != "snapshot" || ev.Snapshot == nil || ev.Snapshot.Variant != "julia" {
		t.Fatalf("initial event = %+v", ev)
	}

	s.Publish(viewer.Snapshot{Variant: "julia", Zoom: 2, C: mgl64.Vec2{0.5, -0.25}})
	ev = readEvent(t, conn)
	if ev.Snapshot == nil || ev.Snapshot.Zoom != 2 || ev.Snapshot.C != (mgl64.Vec2{0.5, -0.25}) {
		t.Fatalf("published event = %+v", ev)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"edit","field":"zoom","value":4}`)); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-applied:
		if msg != (viewer.Edit{Field: viewer.FieldZoom, Value: 4}) {
			t.Errorf("applied %#v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command not applied")
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"edit","field":"nope","value":4}`)); err != nil {
		t.Fatal(err)
	}
	ev = readEvent(t, conn)
	if ev.Type != "error" || ev.Error == "" {
		t.Errorf("event = %+v, want error", ev)
	}
}

func TestServerAppliesToSession(t *testing.T) {
	session := viewer.NewSession(programs.Default(), nil, viewer.DefaultOptions())
	applied := make(chan any, 1)
	s := NewServer(func(msg any) { applied <- msg })

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Close()

	conn := dial(t, srv)
	if err := conn.WriteJSON(map[string]any{"type": "variant", "name": "burningship"}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-applied:
		if err := session.Apply(msg); err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command not applied")
	}
	if got := session.Variant().Name(); got != "burningship" {
		t.Errorf("variant = %q", got)
	}
}
