package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petewarden/open-speech-recording/internal/ipc"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []ipc.Request
}

func (h *recordingHandler) Handle(_ context.Context, req ipc.Request) ipc.Response {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, req)
	if req.Command == "upload" {
		return ipc.Response{OK: false, Error: "upload is not available yet"}
	}
	return ipc.Response{OK: true, Message: req.Command + " ok"}
}

func (h *recordingHandler) requests() []ipc.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ipc.Request(nil), h.seen...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseCommand(t *testing.T) {
	req, err := ParseCommand("  Record ")
	require.NoError(t, err)
	require.Equal(t, ipc.Request{Command: "record"}, req)

	req, err = ParseCommand("delete 3")
	require.NoError(t, err)
	require.Equal(t, ipc.Request{Command: "delete", Clip: 3}, req)

	for _, line := range []string{"", "delete", "delete x", "delete 0", "stop now", "dance"} {
		_, err := ParseCommand(line)
		require.Error(t, err, line)
	}
}

func TestRunDispatchesCommandsAndPrintsReplies(t *testing.T) {
	out := &syncBuffer{}
	handler := &recordingHandler{}
	c := New(strings.NewReader("record\n\nbogus\nupload\ndelete 2\nhelp\n"), out)

	require.NoError(t, c.Run(context.Background(), handler))

	require.Equal(t, []ipc.Request{
		{Command: "record"},
		{Command: "upload"},
		{Command: "delete", Clip: 2},
	}, handler.requests())
	require.Equal(t, "record ok\n"+
		"error: unknown command \"bogus\"\n"+
		"error: upload is not available yet\n"+
		"delete ok\n"+
		Help+"\n", out.String())
}

func TestConfirmConsumesNextLine(t *testing.T) {
	reader, writer := io.Pipe()
	out := &syncBuffer{}
	handler := &recordingHandler{}
	c := New(reader, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- c.Run(ctx, handler) }()

	answer := make(chan bool, 1)
	go func() {
		ok, _ := c.Confirm(ctx, "Ready?")
		answer <- ok
	}()
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Ready?\n[y/N] ")
	}, time.Second, 5*time.Millisecond)

	_, err := writer.Write([]byte("YES\nstatus\n"))
	require.NoError(t, err)
	require.True(t, <-answer)

	require.NoError(t, writer.Close())
	require.NoError(t, <-runDone)
	require.Equal(t, []ipc.Request{{Command: "status"}}, handler.requests())
}

func TestConfirmAnswersNoWhenInputCloses(t *testing.T) {
	reader, writer := io.Pipe()
	c := New(reader, io.Discard)

	runDone := make(chan error, 1)
	go func() { runDone <- c.Run(context.Background(), &recordingHandler{}) }()

	answer := make(chan bool, 1)
	go func() {
		ok, _ := c.Confirm(context.Background(), "Ready?")
		answer <- ok
	}()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.pending != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, writer.Close())
	require.False(t, <-answer)
	require.NoError(t, <-runDone)

	ok, err := c.Confirm(context.Background(), "Again?")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConfirmHonorsContext(t *testing.T) {
	c := New(strings.NewReader(""), io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := c.Confirm(ctx, "Ready?")
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, ok)
}
