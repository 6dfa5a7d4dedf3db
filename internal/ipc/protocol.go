package ipc

import (
	"errors"
	"fmt"
)

// Commands understood by a session owner.
const (
	CommandStatus   = "status"
	CommandProgress = "progress"
	CommandClips    = "clips"
	CommandRecord   = "record"
	CommandStop     = "stop"
	CommandUpload   = "upload"
	CommandDelete   = "delete"
)

// ErrSessionEnded reports a command that reached an owner whose session has
// already finished.
var ErrSessionEnded = errors.New("openspeech session ended")

// Request is one line-delimited command sent to the session owner.
type Request struct {
	Command string `json:"command"`
	Clip    int    `json:"clip,omitempty"`
}

// Validate checks the command name and that Clip is set only for delete.
func (r Request) Validate() error {
	switch r.Command {
	case CommandStatus, CommandProgress, CommandClips, CommandRecord, CommandStop, CommandUpload:
		if r.Clip != 0 {
			return fmt.Errorf("%s takes no clip id", r.Command)
		}
		return nil
	case CommandDelete:
		if r.Clip <= 0 {
			return fmt.Errorf("delete needs a clip id above zero, got %d", r.Clip)
		}
		return nil
	case "":
		return errors.New("missing command")
	default:
		return fmt.Errorf("unknown command: %s", r.Command)
	}
}

// Response is the owner's reply to a Request. Ended is set once the owner's
// session has finished and it will accept no further commands.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Ended   bool   `json:"ended,omitempty"`
}

// Failure builds an error response, marking it Ended for ErrSessionEnded.
func Failure(state string, err error) Response {
	return Response{
		OK:    false,
		State: state,
		Error: err.Error(),
		Ended: errors.Is(err, ErrSessionEnded),
	}
}
