package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// requestReadTimeout bounds how long a connected client may take to send
// its request line.
const requestReadTimeout = 2 * time.Second

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers one request per connection. Malformed or invalid requests
// are rejected before reaching handler. Serve returns nil once ctx ends, the
// listener closes, or handler replies with an Ended response.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			wg.Wait()
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			if resp := serveConn(ctx, c, handler); resp.Ended {
				cancel()
			}
		}(conn)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) Response {
	resp := readAndHandle(ctx, conn, handler)
	_ = json.NewEncoder(conn).Encode(resp)
	return resp
}

func readAndHandle(ctx context.Context, conn net.Conn, handler Handler) Response {
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{OK: false, Error: fmt.Sprintf("read request: %v", err)}
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)}
	}
	if err := req.Validate(); err != nil {
		return Response{OK: false, Error: fmt.Sprintf("invalid request: %v", err)}
	}
	return handler.Handle(ctx, req)
}
