package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/petewarden/open-speech-recording/internal/audio"
	"github.com/petewarden/open-speech-recording/internal/clips"
	"github.com/petewarden/open-speech-recording/internal/completion"
	"github.com/petewarden/open-speech-recording/internal/config"
	"github.com/petewarden/open-speech-recording/internal/console"
	"github.com/petewarden/open-speech-recording/internal/cookies"
	"github.com/petewarden/open-speech-recording/internal/indicator"
	"github.com/petewarden/open-speech-recording/internal/ipc"
	"github.com/petewarden/open-speech-recording/internal/render"
	"github.com/petewarden/open-speech-recording/internal/session"
	"github.com/petewarden/open-speech-recording/internal/storage"
	"github.com/petewarden/open-speech-recording/internal/upload"
)

const thanksMessage = "Thank you! All of your words have been uploaded."

// commandRecord owns one elicitation session: it holds the runtime socket,
// reads commands from stdin, and runs until upload completes or ctx ends.
func (r Runner) commandRecord(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath := ipc.RuntimeSocketPath()
	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandRecord})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, resp.Message)
		return 0
	}

	jarPath, err := config.CookieJarPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	jar, err := cookies.Open(jarPath, cfg.Server.URL, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if completion.Done(jar) {
		fmt.Fprintln(r.Stdout, thanksMessage)
		fmt.Fprintf(r.Stdout, "Run `%s reset` to record another session.\n", binaryName)
		return 0
	}

	quota, err := cfg.Quota()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("audio device selection failed", "error", err.Error())
		return 1
	}
	if selection.Warning != "" {
		fmt.Fprintf(r.Stderr, "warning: %s\n", selection.Warning)
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandRecord})
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	client := upload.NewClient(cfg.Server.URL, jar, cfg.ServerTimeout())
	if _, err := client.EnsureSession(ctx); err != nil {
		// Recording works offline; the session is retried on first upload.
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
		logger.Warn("server session bootstrap failed", "error", err.Error())
	}

	onClip, err := clipDumper(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
	}

	stdin := r.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	prompt := console.New(stdin, r.Stdout)
	notifier := indicator.NewNotifier(cfg.Indicator, logger)
	defer notifier.Wait()

	device := selection.Device
	controller := session.NewController(session.Options{
		Logger:    logger,
		Quota:     quota,
		Timing:    timingFromConfig(cfg.Timing),
		Capture:   captureFor(device),
		Uploader:  client,
		Store:     jar,
		Renderer:  render.NewTerminal(r.Stdout),
		Prompter:  prompt,
		Indicator: notifier,
		Encode: func(pcm []byte) []byte {
			return audio.EncodeWAV(pcm, audio.SampleRate, audio.Channels)
		},
		ContentType: cfg.Upload.ContentType,
		OnClip:      onClip,
	})

	fmt.Fprintf(r.Stdout, "Recording from %s against %s.\n", audio.Describe(device), cfg.Server.URL)
	fmt.Fprintf(r.Stdout, "%s\n", console.Help)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(runCtx, listener, controller)
	}()
	go func() {
		if err := prompt.Run(runCtx, controller); err != nil {
			logger.Warn("console input failed", "error", err.Error())
		}
	}()

	result := controller.Run(ctx)
	cancelRun()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, device, result)

	switch {
	case result.Completed:
		fmt.Fprintln(r.Stdout, thanksMessage)
		return 0
	case errors.Is(result.Err, context.Canceled):
		fmt.Fprintln(r.Stdout, "stopped; recorded clips were discarded")
		return 0
	case result.Err != nil:
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	default:
		return 0
	}
}

func timingFromConfig(t config.TimingConfig) session.Timing {
	return session.Timing{
		CountdownSteps: t.CountdownSteps,
		CountdownStep:  time.Duration(t.CountdownStepMS) * time.Millisecond,
		Record:         time.Duration(t.RecordMS) * time.Millisecond,
		Pause:          time.Duration(t.PauseMS) * time.Millisecond,
	}
}

// captureFor opens a fresh PulseAudio record stream for every take.
func captureFor(device audio.Device) session.Capture {
	return session.CaptureFunc(func(ctx context.Context) (session.Stream, error) {
		capture, err := audio.StartCapture(ctx, device)
		if err != nil {
			return nil, err
		}
		return capture, nil
	})
}

// clipDumper writes every captured clip under the state directory when the
// debug audio dump is enabled.
func clipDumper(cfg config.Config, logger *slog.Logger) (func(clips.Clip), error) {
	if !cfg.Debug.EnableAudioDump {
		return nil, nil
	}
	stateDir, err := config.StateDir()
	if err != nil {
		return nil, fmt.Errorf("debug audio dump disabled: %w", err)
	}
	dir := filepath.Join(stateDir, "debug", time.Now().Format("20060102-150405"))
	store, err := storage.NewDir(dir)
	if err != nil {
		return nil, fmt.Errorf("debug audio dump disabled: %w", err)
	}

	return func(clip clips.Clip) {
		name := storage.SecureFilename(fmt.Sprintf("%03d_%s%s", clip.ID, clip.Word, storage.Extension(clip.ContentType)))
		if err := store.Put(context.Background(), name, clip.ContentType, clip.Audio); err != nil {
			logger.Warn("debug audio dump failed", "clip_id", clip.ID, "error", err.Error())
			return
		}
		logger.Debug("debug audio dumped", "path", filepath.Join(dir, name))
	}, nil
}

func logSessionResult(logger *slog.Logger, device audio.Device, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"completed", result.Completed,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"audio_device", device.ID,
		"recorded", result.Recorded,
		"uploaded", result.Uploaded,
	}

	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session finished", fields...)
}
