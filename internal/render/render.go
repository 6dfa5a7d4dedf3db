// Package render draws session output on a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/petewarden/open-speech-recording/internal/clips"
	"github.com/petewarden/open-speech-recording/internal/session"
)

// Terminal writes one tagged line per update. Unchanged control sets are
// not repeated.
type Terminal struct {
	mu           sync.Mutex
	out          io.Writer
	lastControls *session.Controls
}

// NewTerminal constructs a renderer writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// ShowPrompt prints the word to speak, or any other prompt-area message.
// An empty prompt clears the area and prints nothing.
func (t *Terminal) ShowPrompt(text string) {
	if text == "" {
		return
	}
	t.printf(">>> %s\n", text)
}

// ShowProgress prints countdown ticks and progress fractions.
func (t *Terminal) ShowProgress(text string) {
	if text == "" {
		return
	}
	t.printf("[%s]\n", text)
}

// ShowControls lists the commands currently accepted.
func (t *Terminal) ShowControls(c session.Controls) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastControls != nil && *t.lastControls == c {
		return
	}
	t.lastControls = &c
	fmt.Fprintf(t.out, "available: %s\n", FormatControls(c))
}

// ShowClips prints the recorded clips, one per line.
func (t *Terminal) ShowClips(items []clips.Clip) {
	if len(items) == 0 {
		t.printf("clips: none\n")
		return
	}
	var b strings.Builder
	b.WriteString("clips:\n")
	for _, clip := range items {
		fmt.Fprintf(&b, "  %d %s\n", clip.ID, clip.Word)
	}
	t.printf("%s", b.String())
}

// ShowError prints a user-facing error.
func (t *Terminal) ShowError(message string) {
	t.printf("error: %s\n", message)
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// FormatControls names the enabled commands, or "none".
func FormatControls(c session.Controls) string {
	var names []string
	if c.Record {
		names = append(names, "record")
	}
	if c.Stop {
		names = append(names, "stop")
	}
	if c.Upload {
		names = append(names, "upload")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Multi fans each update out to several renderers in order.
type Multi []session.Renderer

func (m Multi) ShowPrompt(text string) {
	for _, r := range m {
		r.ShowPrompt(text)
	}
}

func (m Multi) ShowProgress(text string) {
	for _, r := range m {
		r.ShowProgress(text)
	}
}

func (m Multi) ShowControls(c session.Controls) {
	for _, r := range m {
		r.ShowControls(c)
	}
}

func (m Multi) ShowClips(items []clips.Clip) {
	for _, r := range m {
		r.ShowClips(items)
	}
}

func (m Multi) ShowError(message string) {
	for _, r := range m {
		r.ShowError(message)
	}
}
