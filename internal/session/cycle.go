package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/petewarden/open-speech-recording/internal/completion"
	"github.com/petewarden/open-speech-recording/internal/fsm"
	"github.com/petewarden/open-speech-recording/internal/ipc"
	"github.com/petewarden/open-speech-recording/internal/upload"
)

type eventKind int

const (
	eventCountdown eventKind = iota + 1
	eventRecordTimeout
	eventPauseDone
	eventConfirmed
	eventProgress
	eventReload
	eventUploadDone
)

// event is one loop input. Timer events carry the take they were scheduled
// for; a mismatched take means the timer is stale and is ignored.
type event struct {
	kind     eventKind
	take     int
	accepted bool
	text     string
	err      error
	result   upload.Result
}

type request struct {
	req   ipc.Request
	reply chan ipc.Response
}

func (c *Controller) handleEvent(ctx context.Context, ev event) {
	switch ev.kind {
	case eventCountdown:
		if ev.take != c.take || c.State() != fsm.StateCountingDown {
			return
		}
		c.countdownLeft--
		if c.countdownLeft > 0 {
			c.countdownStep()
			return
		}
		c.renderer.ShowProgress("")
		c.continueCycle(ctx)
	case eventRecordTimeout:
		if ev.take != c.take || c.State() != fsm.StateRecording {
			return
		}
		c.finishCapture()
		if !c.mustTransition(fsm.EventTimeout) {
			return
		}
		c.indicator.CueStop(ctx)
		c.after(c.timing.Pause, event{kind: eventPauseDone, take: c.take})
	case eventPauseDone:
		if ev.take != c.take || c.State() != fsm.StateBetweenWords {
			return
		}
		c.continueCycle(ctx)
	case eventConfirmed:
		c.confirmed(ctx, ev)
	case eventProgress:
		c.renderer.ShowProgress(ev.text)
	case eventReload:
		c.reload()
	case eventUploadDone:
		c.uploadDone(ctx, ev.result)
	}
}

// startRecording leaves Idle and begins the countdown.
func (c *Controller) startRecording() error {
	switch {
	case c.uploadFailed:
		return errors.New("upload failed; restart to try again")
	case c.awaitingConfirm:
		return errors.New("waiting for upload confirmation")
	case c.capture == nil:
		return errors.New("audio capture is not configured")
	}
	if err := c.transition(fsm.EventRecord); err != nil {
		return fmt.Errorf("cannot record from state %s", c.State())
	}

	c.take++
	c.suppressed = false
	c.countdownLeft = c.timing.CountdownSteps
	c.renderer.ShowPrompt("")
	c.renderer.ShowControls(c.controls())
	if c.countdownLeft <= 0 {
		c.countdownLeft = 1
		c.post(event{kind: eventCountdown, take: c.take})
		return nil
	}
	c.countdownStep()
	return nil
}

// countdownStep shows and sounds the current count, then schedules the next.
func (c *Controller) countdownStep() {
	c.renderer.ShowProgress(strconv.Itoa(c.countdownLeft))
	c.indicator.CueTick(context.Background())
	c.after(c.timing.CountdownStep, event{kind: eventCountdown, take: c.take})
}

// continueCycle runs when the countdown or an inter-word pause ends: it honors
// a pending manual stop, asks for upload when nothing remains, or starts the
// next capture.
func (c *Controller) continueCycle(ctx context.Context) {
	if c.suppressed {
		c.suppressed = false
		if c.mustTransition(fsm.EventHalt) {
			c.renderer.ShowControls(c.controls())
		}
		return
	}

	word, ok := c.scheduler.Next()
	if !ok {
		if !c.mustTransition(fsm.EventExhausted) {
			return
		}
		c.askToUpload(ctx)
		return
	}

	c.renderer.ShowProgress(c.ledger.Progress())
	c.word = word
	c.renderer.ShowPrompt(word)

	stream, err := c.capture.Start(ctx)
	if err != nil {
		c.log().Error("capture start failed", "word", word, "error", err.Error())
		_ = c.transition(fsm.EventFail)
		c.renderer.ShowPrompt(fmt.Sprintf("Unable to record audio: %v", err))
		c.renderer.ShowControls(c.controls())
		c.indicator.ShowError(ctx, "Microphone unavailable")
		return
	}
	if !c.mustTransition(fsm.EventBegin) {
		_ = stream.Stop()
		return
	}

	c.take++
	c.stream = stream
	c.chunksClosed = false
	c.buffer = nil
	c.indicator.ShowWord(ctx, word)
	c.renderer.ShowControls(c.controls())
	c.log().Debug("capture started", "word", word, "progress", c.ledger.Progress())
	c.after(c.timing.Record, event{kind: eventRecordTimeout, take: c.take})
}

// requestStop handles a user stop in any recording-cycle state.
func (c *Controller) requestStop(ctx context.Context) (string, error) {
	state := c.State()
	switch state {
	case fsm.StateRecording:
		c.finishCapture()
		if !c.mustTransition(fsm.EventStop) || !c.mustTransition(fsm.EventHalt) {
			return "", fmt.Errorf("cannot stop from state %s", c.State())
		}
		c.indicator.CueCancel(ctx)
		c.renderer.ShowControls(c.controls())
		return "stopped", nil
	case fsm.StateCountingDown, fsm.StateBetweenWords:
		if c.awaitingConfirm {
			return "", errors.New("waiting for upload confirmation")
		}
		if c.suppressed {
			return "stop already requested", nil
		}
		if err := c.transition(fsm.EventStop); err != nil {
			return "", err
		}
		c.suppressed = true
		c.indicator.CueCancel(ctx)
		c.renderer.ShowControls(c.controls())
		return "stop requested", nil
	default:
		return "", fmt.Errorf("cannot stop from state %s", state)
	}
}

// finishCapture stops the active stream, drains its remaining chunks, and
// appends the concatenated audio as a clip labelled with the prompted word.
func (c *Controller) finishCapture() {
	stream := c.stream
	if stream == nil {
		return
	}
	c.stream = nil

	if err := stream.Stop(); err != nil {
		c.log().Warn("capture stop failed", "word", c.word, "error", err.Error())
	}
	if !c.chunksClosed {
		for chunk := range stream.Chunks() {
			c.buffer = append(c.buffer, chunk...)
		}
	}
	c.chunksClosed = false

	pcm := c.buffer
	c.buffer = nil
	clip := c.clips.Append(c.word, c.encode(pcm), c.ctype, c.now())
	c.recorded++
	c.renderer.ShowClips(c.clips.Snapshot())
	c.log().Info("clip recorded", "clip_id", clip.ID, "word", clip.Word, "bytes", len(pcm))
	if c.onClip != nil {
		c.onClip(clip)
	}
}

// abortCapture stops capture without keeping a clip.
func (c *Controller) abortCapture() {
	if c.stream == nil {
		return
	}
	_ = c.stream.Stop()
	c.stream = nil
	c.buffer = nil
}

// askToUpload shows the blocking confirmation without stalling the loop.
func (c *Controller) askToUpload(ctx context.Context) {
	c.awaitingConfirm = true
	c.renderer.ShowControls(c.controls())
	take := c.take
	go func() {
		ok, err := c.prompter.Confirm(ctx, UploadQuestion)
		c.post(event{kind: eventConfirmed, take: take, accepted: ok, err: err})
	}()
}

func (c *Controller) confirmed(ctx context.Context, ev event) {
	if !c.awaitingConfirm || c.State() != fsm.StateBetweenWords {
		return
	}
	c.awaitingConfirm = false
	c.uploadEnabled = true

	if ev.err != nil {
		c.log().Warn("upload confirmation failed", "error", ev.err.Error())
	}
	if ev.err != nil || !ev.accepted {
		c.mustTransition(fsm.EventDecline)
		c.renderer.ShowControls(c.controls())
		return
	}
	if c.mustTransition(fsm.EventConfirm) {
		c.startUpload(ctx)
	}
}

// requestUpload is the manual upload trigger, available once offered.
func (c *Controller) requestUpload(ctx context.Context) error {
	switch {
	case c.uploadFailed:
		return errors.New("upload failed; restart to try again")
	case !c.uploadEnabled:
		return errors.New("upload is not available yet")
	case c.uploader == nil:
		return errors.New("uploader is not configured")
	case c.clips.Len() == 0:
		return upload.ErrNoClips
	}
	if err := c.transition(fsm.EventUpload); err != nil {
		return fmt.Errorf("cannot upload from state %s", c.State())
	}
	c.startUpload(ctx)
	return nil
}

// startUpload runs one pipeline pass off the loop. Progress, completion and
// the final result come back as events.
func (c *Controller) startUpload(ctx context.Context) {
	c.renderer.ShowControls(c.controls())
	if c.uploader == nil || c.store == nil {
		c.post(event{kind: eventUploadDone, result: upload.Result{Err: errors.New("uploader is not configured")}})
		return
	}

	signal := completion.NewSignal(c.store, func() { c.post(event{kind: eventReload}) })
	pipeline := upload.NewPipeline(
		c.uploader,
		signal,
		func(text string) { c.post(event{kind: eventProgress, text: text}) },
		c.quota.Total(),
		c.logger,
	)
	items := c.clips.Snapshot()
	c.log().Info("upload started", "clips", len(items))
	go func() {
		c.post(event{kind: eventUploadDone, result: pipeline.Run(ctx, items)})
	}()
}

// reload resets the workflow after the completion flag is persisted.
func (c *Controller) reload() {
	if c.State() == fsm.StateUploading {
		c.mustTransition(fsm.EventUploaded)
	}
	if !c.mustTransition(fsm.EventReload) {
		return
	}
	c.uploaded = c.clips.Len()
	c.clips.Reset()
	c.uploadEnabled = false
	c.completed = true
	c.renderer.ShowClips(nil)
	c.renderer.ShowControls(c.controls())
	c.indicator.CueComplete(context.Background())
	c.log().Info("session complete", "uploaded", c.uploaded)
}

func (c *Controller) uploadDone(ctx context.Context, result upload.Result) {
	if c.State() != fsm.StateUploading {
		return
	}
	c.uploaded = result.Uploaded
	if result.Err == nil {
		// Completion without a reload callback; settle in Done then Idle.
		c.mustTransition(fsm.EventUploaded)
		c.reload()
		return
	}

	c.mustTransition(fsm.EventFail)
	c.uploadFailed = true
	message := result.Err.Error()
	if _, rejected := upload.IsRejected(result.Err); !rejected {
		message = fmt.Sprintf("Uploading failed: %v", result.Err)
	}
	c.log().Error("upload failed", "uploaded", result.Uploaded, "error", result.Err.Error())
	c.renderer.ShowError(message)
	c.renderer.ShowControls(c.controls())
	c.indicator.ShowError(ctx, message)
}
