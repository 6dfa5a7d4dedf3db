package session

import (
	"context"

	"github.com/petewarden/open-speech-recording/internal/clips"
)

// Stream is one active capture. Stop ends capture and closes Chunks once any
// residual audio has been delivered.
type Stream interface {
	Chunks() <-chan []byte
	Stop() error
}

// Capture starts a microphone stream.
type Capture interface {
	Start(context.Context) (Stream, error)
}

// CaptureFunc adapts a function to the Capture interface.
type CaptureFunc func(context.Context) (Stream, error)

func (f CaptureFunc) Start(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// Controls mirrors which user actions are currently accepted.
type Controls struct {
	Record bool
	Stop   bool
	Upload bool
}

// Renderer displays controller output.
type Renderer interface {
	ShowPrompt(string)
	ShowProgress(string)
	ShowControls(Controls)
	ShowClips([]clips.Clip)
	ShowError(string)
}

// Prompter asks the user a blocking yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowWord(context.Context, string)
	ShowError(context.Context, string)
	CueTick(context.Context)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowWord(context.Context, string)  {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) CueTick(context.Context)           {}
func (noopIndicator) CueStop(context.Context)           {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) CueCancel(context.Context)         {}
func (noopIndicator) Hide(context.Context)              {}

type noopRenderer struct{}

func (noopRenderer) ShowPrompt(string)      {}
func (noopRenderer) ShowProgress(string)    {}
func (noopRenderer) ShowControls(Controls)  {}
func (noopRenderer) ShowClips([]clips.Clip) {}
func (noopRenderer) ShowError(string)       {}

// declineAll answers every confirmation with no.
type declineAll struct{}

func (declineAll) Confirm(context.Context, string) (bool, error) { return false, nil }
