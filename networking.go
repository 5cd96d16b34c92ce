package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"net"
	"reflect"
)

// NewPipeListener returns both ends of an in memory connection. The listener
// hands out its end once and then blocks until ctx is done or it is closed.
func NewPipeListener(ctx context.Context) (client net.Conn, listener net.Listener) {
	clientPipe, listenerPipe := net.Pipe()
	p := &pipeListener{
		pipe: make(chan net.Conn, 1),
		addr: listenerPipe.LocalAddr(),
		done: make(chan struct{}),
	}
	p.pipe <- listenerPipe

	context.AfterFunc(ctx, func() { p.Close() })
	return clientPipe, p
}

type pipeListener struct {
	pipe chan net.Conn
	addr net.Addr
	done chan struct{}
}

func (p *pipeListener) Accept() (net.Conn, error) {
	select {
	case conn := <-p.pipe:
		return conn, nil
	case <-p.done:
		return nil, net.ErrClosed
	}
}

func (p *pipeListener) Close() error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return nil
}

func (p *pipeListener) Addr() net.Addr {
	return p.addr
}

// messenger exchanges gob encoded messages over a connection. Received
// messages are passed to handle on the receiving goroutine.
type messenger struct {
	conn   net.Conn
	send   chan any
	logger *slog.Logger
}

func newMessenger(conn net.Conn, logger *slog.Logger) *messenger {
	return &messenger{
		conn:   conn,
		send:   make(chan any, 16),
		logger: logger,
	}
}

// Send queues msg. Messages are dropped when the queue is full.
func (m *messenger) Send(msg any) {
	select {
	case m.send <- msg:
	default:
		m.logger.Warn("message dropped", "type", reflect.TypeOf(msg))
	}
}

func (m *messenger) handleSend(ctx context.Context, quit context.CancelCauseFunc) {
	defer CatchPanicToContext(quit)
	enc := gob.NewEncoder(m.conn)
	defer m.conn.Close()

	for {
		select {
		case msg := <-m.send:
			if err := enc.Encode(&msg); err != nil {
				quit(fmt.Errorf("sending %T: %w", msg, err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *messenger) handleReceive(ctx context.Context, quit context.CancelCauseFunc, handle func(msg any)) {
	defer CatchPanicToContext(quit)
	dec := gob.NewDecoder(m.conn)

	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			if ctx.Err() == nil {
				quit(fmt.Errorf("receiving: %w", err))
			}
			return
		}
		handle(v)
	}
}
