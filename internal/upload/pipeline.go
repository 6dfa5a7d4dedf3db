// Package upload transmits recorded clips to the collection server one at a time.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/petewarden/open-speech-recording/internal/clips"
)

// ErrNoClips rejects an upload pass with nothing to send.
var ErrNoClips = errors.New("no clips to upload")

// RejectedError reports a non-success acknowledgment from the server.
type RejectedError struct {
	Status int
	Word   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("Uploading failed with error code %d", e.Status)
}

// IsRejected reports whether err is an upload rejection and returns its status.
func IsRejected(err error) (int, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Status, true
	}
	return 0, false
}

// Uploader performs one clip transfer and returns the server's status code.
type Uploader interface {
	Upload(ctx context.Context, clip clips.Clip) (int, error)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(context.Context, clips.Clip) (int, error)

func (f UploaderFunc) Upload(ctx context.Context, clip clips.Clip) (int, error) {
	return f(ctx, clip)
}

// Completer is notified once every clip has been acknowledged.
type Completer interface {
	MarkDone(context.Context) error
}

// Result summarizes one pipeline pass.
type Result struct {
	Uploaded int
	Total    int
	Err      error
}

// Pipeline uploads clips strictly in order with a single transfer in flight.
type Pipeline struct {
	uploader Uploader
	complete Completer
	progress func(string)
	total    int
	logger   *slog.Logger
}

// NewPipeline constructs a pipeline. total is the denominator of progress
// messages; zero means the number of clips in the pass.
func NewPipeline(uploader Uploader, complete Completer, progress func(string), total int, logger *slog.Logger) *Pipeline {
	if progress == nil {
		progress = func(string) {}
	}
	return &Pipeline{
		uploader: uploader,
		complete: complete,
		progress: progress,
		total:    total,
		logger:   logger,
	}
}

// Run uploads items in order and halts on the first failure.
// Clips already acknowledged are neither rolled back nor retried, and an
// empty pass never completes the session.
func (p *Pipeline) Run(ctx context.Context, items []clips.Clip) Result {
	total := p.total
	if total <= 0 {
		total = len(items)
	}
	result := Result{Total: len(items)}
	if len(items) == 0 {
		result.Err = ErrNoClips
		return result
	}

	for cursor := 0; cursor < len(items); cursor++ {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		clip := items[cursor]
		p.progress(fmt.Sprintf("Uploading clip %d/%d", cursor, total))

		status, err := p.uploader.Upload(ctx, clip)
		if err != nil {
			p.logError("clip upload failed", clip, err)
			result.Err = fmt.Errorf("upload clip %d (%s): %w", clip.ID, clip.Word, err)
			return result
		}
		if status != 200 {
			err := &RejectedError{Status: status, Word: clip.Word}
			p.logError("clip upload rejected", clip, err)
			result.Err = err
			return result
		}
		result.Uploaded++
	}

	if p.complete != nil {
		if err := p.complete.MarkDone(ctx); err != nil {
			result.Err = err
			return result
		}
	}
	return result
}

func (p *Pipeline) logError(message string, clip clips.Clip, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error(message, "clip_id", clip.ID, "word", clip.Word, "error", err.Error())
}
