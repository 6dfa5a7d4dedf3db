// Package session coordinates the elicitation lifecycle: countdown, timed
// capture per word, upload confirmation, and the sequential upload pass.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/petewarden/open-speech-recording/internal/clips"
	"github.com/petewarden/open-speech-recording/internal/completion"
	"github.com/petewarden/open-speech-recording/internal/fsm"
	"github.com/petewarden/open-speech-recording/internal/ipc"
	"github.com/petewarden/open-speech-recording/internal/scheduler"
	"github.com/petewarden/open-speech-recording/internal/upload"
	"github.com/petewarden/open-speech-recording/internal/words"
)

// UploadQuestion is asked once every quota is satisfied.
const UploadQuestion = "Are you ready to upload your words?\nIf not, answer no now, and then run upload once you are ready."

// Timing holds the fixed delays of the recording cycle.
type Timing struct {
	CountdownSteps int
	CountdownStep  time.Duration
	Record         time.Duration
	Pause          time.Duration
}

// DefaultTiming is a 3-2-1 countdown, 1.5s clips, and a 1s pause between words.
func DefaultTiming() Timing {
	return Timing{
		CountdownSteps: 3,
		CountdownStep:  time.Second,
		Record:         1500 * time.Millisecond,
		Pause:          time.Second,
	}
}

// Options wires a Controller to its collaborators. Nil collaborators fall back
// to no-op implementations; Capture, Uploader and Store are required to
// record and upload.
type Options struct {
	Logger    *slog.Logger
	Quota     words.Quota
	Timing    Timing
	Random    scheduler.Source
	Capture   Capture
	Uploader  upload.Uploader
	Store     completion.Store
	Renderer  Renderer
	Prompter  Prompter
	Indicator Indicator

	// Encode wraps captured PCM into the uploaded payload.
	Encode      func([]byte) []byte
	ContentType string
	// OnClip observes every newly captured clip (debug dumps).
	OnClip func(clips.Clip)
	Now    func() time.Time
}

// Result summarizes one Run.
type Result struct {
	State      fsm.State
	Completed  bool
	Recorded   int
	Uploaded   int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Controller owns all session state inside a single event loop. Commands and
// timer expiries are events posted to that loop; nothing else mutates state.
type Controller struct {
	logger    *slog.Logger
	timing    Timing
	capture   Capture
	uploader  upload.Uploader
	store     completion.Store
	renderer  Renderer
	prompter  Prompter
	indicator Indicator
	encode    func([]byte) []byte
	ctype     string
	onClip    func(clips.Clip)
	now       func() time.Time

	quota     words.Quota
	clips     clips.List
	ledger    *words.Ledger
	scheduler *scheduler.Scheduler

	mu    sync.RWMutex
	state fsm.State

	// Loop-confined fields.
	take            int
	countdownLeft   int
	suppressed      bool
	awaitingConfirm bool
	uploadEnabled   bool
	uploadFailed    bool
	completed       bool
	word            string
	stream          Stream
	chunksClosed    bool
	buffer          []byte
	recorded        int
	uploaded        int

	events   chan event
	requests chan request
	done     chan struct{}
	once     sync.Once
}

// NewController constructs a controller in Idle with an empty clip list.
func NewController(opts Options) *Controller {
	if opts.Quota.Total() == 0 {
		opts.Quota = words.DefaultQuota()
	}
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Renderer == nil {
		opts.Renderer = noopRenderer{}
	}
	if opts.Prompter == nil {
		opts.Prompter = declineAll{}
	}
	if opts.Indicator == nil {
		opts.Indicator = noopIndicator{}
	}
	if opts.Encode == nil {
		opts.Encode = func(pcm []byte) []byte { return pcm }
	}
	if opts.ContentType == "" {
		opts.ContentType = "application/octet-stream"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Controller{
		logger:    opts.Logger,
		timing:    opts.Timing,
		capture:   opts.Capture,
		uploader:  opts.Uploader,
		store:     opts.Store,
		renderer:  opts.Renderer,
		prompter:  opts.Prompter,
		indicator: opts.Indicator,
		encode:    opts.Encode,
		ctype:     opts.ContentType,
		onClip:    opts.OnClip,
		now:       opts.Now,
		quota:     opts.Quota,
		state:     fsm.StateIdle,
		events:    make(chan event, 16),
		requests:  make(chan request),
		done:      make(chan struct{}),
	}
	c.ledger = words.NewLedger(c.quota, &c.clips)
	c.scheduler = scheduler.New(c.ledger, c.quota.Words(), opts.Random)
	return c
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// mustTransition applies event and logs a rejected transition.
func (c *Controller) mustTransition(event fsm.Event) bool {
	if err := c.transition(event); err != nil {
		c.log().Error("session transition rejected", "event", string(event), "error", err.Error())
		return false
	}
	return true
}

// Run executes the event loop until the session completes or ctx ends.
// It must be called at most once.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: c.now()}
	defer c.once.Do(func() { close(c.done) })

	c.renderer.ShowControls(c.controls())

	for !c.completed {
		select {
		case <-ctx.Done():
			c.abortCapture()
			c.hideIndicator()
			result.Err = ctx.Err()
			return c.finish(result)
		case req := <-c.requests:
			req.reply <- c.dispatch(ctx, req.req)
		case ev := <-c.events:
			c.handleEvent(ctx, ev)
		case chunk, ok := <-c.chunks():
			if !ok {
				c.chunksClosed = true
				continue
			}
			c.buffer = append(c.buffer, chunk...)
		}
	}

	c.hideIndicator()
	result.Completed = true
	return c.finish(result)
}

func (c *Controller) finish(result Result) Result {
	result.State = c.State()
	result.Recorded = c.recorded
	result.Uploaded = c.uploaded
	result.FinishedAt = c.now()
	return result
}

// Handle serves IPC and console commands by forwarding them to the event loop.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	reply := make(chan ipc.Response, 1)
	select {
	case c.requests <- request{req: req, reply: reply}:
	case <-ctx.Done():
		return ipc.Failure(string(c.State()), ctx.Err())
	case <-c.done:
		return ipc.Failure(string(c.State()), ipc.ErrSessionEnded)
	}

	select {
	case resp := <-reply:
		return resp
	case <-ctx.Done():
		return ipc.Failure(string(c.State()), ctx.Err())
	}
}

// post delivers an event to the loop unless it has already exited.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// after posts ev once d elapses.
func (c *Controller) after(d time.Duration, ev event) {
	time.AfterFunc(d, func() { c.post(ev) })
}

func (c *Controller) chunks() <-chan []byte {
	if c.stream == nil || c.chunksClosed {
		return nil
	}
	return c.stream.Chunks()
}

func (c *Controller) controls() Controls {
	busy := c.uploadFailed || c.awaitingConfirm
	switch c.State() {
	case fsm.StateIdle:
		return Controls{Record: !busy, Upload: c.uploadEnabled && !busy}
	case fsm.StateCountingDown, fsm.StateRecording, fsm.StateBetweenWords:
		return Controls{Stop: !c.suppressed && !c.awaitingConfirm}
	default:
		return Controls{}
	}
}

func (c *Controller) hideIndicator() {
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.indicator.Hide(cleanupCtx)
}

func (c *Controller) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
