// Package console drives a recording session from standard input: pending
// confirmations take the next line, every other line is a command.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/petewarden/open-speech-recording/internal/ipc"
)

// Handler executes one parsed command.
type Handler interface {
	Handle(context.Context, ipc.Request) ipc.Response
}

// Console reads commands and confirmation answers from one input stream.
type Console struct {
	in  io.Reader
	out io.Writer

	mu      sync.Mutex
	pending chan string
	closed  bool
}

// New constructs a console reading in and echoing replies to out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

// Confirm prints question and waits for the next input line. Only "y" and
// "yes" count as agreement. A closed input answers no.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, nil
	}
	if c.pending != nil {
		c.mu.Unlock()
		return false, errors.New("another confirmation is pending")
	}
	answer := make(chan string, 1)
	c.pending = answer
	fmt.Fprintf(c.out, "%s\n[y/N] ", question)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		c.mu.Lock()
		if c.pending == answer {
			c.pending = nil
		}
		c.mu.Unlock()
		return false, ctx.Err()
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// Run reads lines until input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context, handler Handler) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			c.close()
			return err
		case line := <-lines:
			if c.answer(line) {
				continue
			}
			c.dispatch(ctx, handler, line)
		}
	}
}

// answer hands line to a waiting confirmation.
func (c *Console) answer(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return false
	}
	c.pending <- line
	c.pending = nil
	return true
}

func (c *Console) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.pending != nil {
		c.pending <- ""
		c.pending = nil
	}
}

func (c *Console) dispatch(ctx context.Context, handler Handler, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	req, err := ParseCommand(line)
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	if req.Command == "help" {
		c.printf("%s\n", Help)
		return
	}

	resp := handler.Handle(ctx, req)
	if !resp.OK {
		c.printf("error: %s\n", resp.Error)
		return
	}
	if resp.Message != "" {
		c.printf("%s\n", resp.Message)
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Help lists the interactive commands.
const Help = "commands: record, stop, upload, delete N, clips, progress, status, help"

// ParseCommand turns one input line into a session request.
func ParseCommand(line string) (ipc.Request, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return ipc.Request{}, errors.New("empty command")
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "record", "stop", "upload", "clips", "progress", "status", "help":
		if len(args) != 0 {
			return ipc.Request{}, fmt.Errorf("%s takes no arguments", name)
		}
		return ipc.Request{Command: name}, nil
	case "delete":
		if len(args) != 1 {
			return ipc.Request{}, errors.New("usage: delete N")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return ipc.Request{}, fmt.Errorf("invalid clip id %q", args[0])
		}
		return ipc.Request{Command: name, Clip: id}, nil
	default:
		return ipc.Request{}, fmt.Errorf("unknown command %q", name)
	}
}
