package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Send validates req and performs one request/response roundtrip with a
// deadline. An Ended reply is returned along with ErrSessionEnded.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Ended {
		return resp, ErrSessionEnded
	}
	return resp, nil
}

// Probe checks whether an owner still holds path. An owner whose session has
// ended counts as alive: it removes its own socket on exit.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: CommandStatus}, timeout)
	switch {
	case err == nil, errors.Is(err, ErrSessionEnded):
		return true, nil
	case isSocketMissing(err), isConnectionRefused(err):
		return false, nil
	default:
		return false, fmt.Errorf("probe socket: %w", err)
	}
}

// NoOwner reports Send failures that mean no session can take the command:
// the socket is absent, nothing listens on it, or its session has ended.
func NoOwner(err error) bool {
	return isSocketMissing(err) || isConnectionRefused(err) || errors.Is(err, ErrSessionEnded)
}

func isSocketMissing(err error) bool {
	return err != nil && errors.Is(err, os.ErrNotExist)
}

func isConnectionRefused(err error) bool {
	return err != nil && errors.Is(err, syscall.ECONNREFUSED)
}
