package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/petewarden/open-speech-recording/internal/clips"
	"github.com/petewarden/open-speech-recording/internal/fsm"
	"github.com/petewarden/open-speech-recording/internal/ipc"
)

// dispatch runs one command on the loop goroutine.
func (c *Controller) dispatch(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.ok(c.statusMessage())
	case ipc.CommandProgress:
		return c.ok(c.ledger.Progress())
	case ipc.CommandClips:
		return c.ok(FormatClips(c.clips.Snapshot()))
	case ipc.CommandRecord:
		if err := c.startRecording(); err != nil {
			return c.fail(err)
		}
		return c.ok("recording started")
	case ipc.CommandStop:
		message, err := c.requestStop(ctx)
		if err != nil {
			return c.fail(err)
		}
		return c.ok(message)
	case ipc.CommandUpload:
		if err := c.requestUpload(ctx); err != nil {
			return c.fail(err)
		}
		return c.ok("upload started")
	case ipc.CommandDelete:
		return c.deleteClip(req.Clip)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// deleteClip removes a clip and refreshes progress so its word is asked again.
func (c *Controller) deleteClip(id int) ipc.Response {
	if c.State() == fsm.StateUploading {
		return c.fail(errors.New("cannot delete while uploading"))
	}
	clip, err := c.clips.Delete(id)
	if err != nil {
		return c.fail(err)
	}
	c.renderer.ShowClips(c.clips.Snapshot())
	c.renderer.ShowProgress(c.ledger.Progress())
	c.log().Info("clip deleted", "clip_id", clip.ID, "word", clip.Word)
	return c.ok(fmt.Sprintf("deleted clip %d (%s)", clip.ID, clip.Word))
}

func (c *Controller) statusMessage() string {
	parts := []string{
		fmt.Sprintf("progress %s", c.ledger.Progress()),
		fmt.Sprintf("clips %d", c.clips.Len()),
	}
	if c.word != "" && c.State() == fsm.StateRecording {
		parts = append(parts, fmt.Sprintf("word %s", c.word))
	}
	if c.awaitingConfirm {
		parts = append(parts, "awaiting upload confirmation")
	}
	if c.uploadFailed {
		parts = append(parts, "upload failed")
	}
	return strings.Join(parts, ", ")
}

func (c *Controller) ok(message string) ipc.Response {
	return ipc.Response{OK: true, State: string(c.State()), Message: message}
}

func (c *Controller) fail(err error) ipc.Response {
	return ipc.Failure(string(c.State()), err)
}

// FormatClips renders one "id word" line per clip.
func FormatClips(items []clips.Clip) string {
	if len(items) == 0 {
		return "no clips"
	}
	lines := make([]string, 0, len(items))
	for _, clip := range items {
		lines = append(lines, fmt.Sprintf("%d %s", clip.ID, clip.Word))
	}
	return strings.Join(lines, "\n")
}
