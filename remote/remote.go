// Package remote exposes a viewer session over a websocket. Clients receive a
// JSON snapshot after every change and may send edit, reset and variant
// commands.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stewi1014/fractalvis/viewer"
)

const (
	Path = "/ws"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

var ErrBadCommand = errors.New("bad command")

// Command is an inbound message.
//
//	{"type": "edit", "field": "c.x", "value": 0.3}
//	{"type": "reset", "field": "zoom"}
//	{"type": "variant", "name": "mandelbrot"}
type Command struct {
	Type  string        `json:"type"`
	Field *viewer.Field `json:"field,omitempty"`
	Value *float64      `json:"value,omitempty"`
	Name  string        `json:"name,omitempty"`
}

// Message converts c into the matching viewer message.
func (c Command) Message() (any, error) {
	switch c.Type {
	case "edit":
		if c.Field == nil || c.Value == nil {
			return nil, fmt.Errorf("%w: edit needs field and value", ErrBadCommand)
		}
		return viewer.Edit{Field: *c.Field, Value: *c.Value}, nil
	case "reset":
		if c.Field == nil {
			return nil, fmt.Errorf("%w: reset needs field", ErrBadCommand)
		}
		return viewer.Reset{Field: *c.Field}, nil
	case "variant":
		if c.Name == "" {
			return nil, fmt.Errorf("%w: variant needs name", ErrBadCommand)
		}
		return viewer.SelectVariant{Name: c.Name}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrBadCommand, c.Type)
}

// Event is an outbound message.
type Event struct {
	Type     string           `json:"type"`
	Snapshot *viewer.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Server fans snapshots out to connected clients and hands their commands to
// the apply func. apply is called from connection goroutines; callers owning
// a single threaded session must move the message onto their own loop.
type Server struct {
	Logger *slog.Logger

	apply    func(msg any)
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

func NewServer(apply func(msg any)) *Server {
	return &Server{
		Logger: slog.New(slog.DiscardHandler),
		apply:  apply,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns a mux serving the websocket at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.ServeWS)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.Logger.Info("remote listening", "addr", ln.Addr().String())

	srv := &http.Server{Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.Close()
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Publish sends snap to every client. Clients that are not keeping up miss
// intermediate snapshots.
func (s *Server) Publish(snap viewer.Snapshot) {
	data, err := json.Marshal(Event{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		s.Logger.Warn("encoding snapshot", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = data
	for c := range s.clients {
		c.queue(data)
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.queue(s.last)
	}
	s.mu.Unlock()

	s.Logger.Info("remote client connected", "addr", conn.RemoteAddr().String())
	go c.writer()
	s.read(c)

	s.mu.Lock()
	delete(s.clients, c)
	c.close()
	s.mu.Unlock()
	s.Logger.Info("remote client disconnected", "addr", conn.RemoteAddr().String())
}

func (s *Server) read(c *client) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Logger.Warn("remote read failed", "err", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.reply(c, fmt.Errorf("%w: %w", ErrBadCommand, err))
			continue
		}
		msg, err := cmd.Message()
		if err != nil {
			s.reply(c, err)
			continue
		}

		s.Logger.Debug("remote command", "type", cmd.Type)
		if s.apply != nil {
			s.apply(msg)
		}
	}
}

func (s *Server) reply(c *client, err error) {
	data, _ := json.Marshal(Event{Type: "error", Error: err.Error()})
	s.mu.Lock()
	c.queue(data)
	s.mu.Unlock()
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closed bool
}

// queue and close are called with Server.mu held.
func (c *client) queue(data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) close() {
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *client) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
