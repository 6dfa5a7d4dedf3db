package indicator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueTick cueKind = iota + 1
	cueStart
	cueStop
	cueCancel
	cueError
	cueComplete
)

func (k cueKind) String() string {
	switch k {
	case cueTick:
		return "tick"
	case cueStart:
		return "start"
	case cueStop:
		return "stop"
	case cueCancel:
		return "cancel"
	case cueError:
		return "error"
	case cueComplete:
		return "complete"
	default:
		return fmt.Sprintf("cue(%d)", int(k))
	}
}

const (
	cueSampleRate = 16000
	cueVolume     = 0.18
	cueGap        = 22 * time.Millisecond
	cueRamp       = 5 * time.Millisecond
)

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
}

// cueTones describes each cue. Rising cues open a step, falling ones close
// it; the tick stays shorter than any countdown step.
var cueTones = map[cueKind][]toneSpec{
	cueTick:     {{frequencyHz: 660, duration: 40 * time.Millisecond}},
	cueStart:    {{frequencyHz: 880, duration: 70 * time.Millisecond}, {frequencyHz: 1175, duration: 70 * time.Millisecond}},
	cueStop:     {{frequencyHz: 620, duration: 120 * time.Millisecond}},
	cueCancel:   {{frequencyHz: 480, duration: 75 * time.Millisecond}, {frequencyHz: 360, duration: 90 * time.Millisecond}},
	cueError:    {{frequencyHz: 300, duration: 90 * time.Millisecond}, {frequencyHz: 300, duration: 90 * time.Millisecond}},
	cueComplete: {{frequencyHz: 740, duration: 65 * time.Millisecond}, {frequencyHz: 988, duration: 65 * time.Millisecond}, {frequencyHz: 1319, duration: 110 * time.Millisecond}},
}

var cuePCM = sync.OnceValue(func() map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(cueTones))
	for kind, tones := range cueTones {
		out[kind] = synthesizeCue(tones)
	}
	return out
})

// cueSamples returns the PCM for kind, or nil for an unknown cue.
func cueSamples(kind cueKind) []int16 {
	return cuePCM()[kind]
}

// emitCue plays kind through the pulse server.
func emitCue(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("emit %s cue: %w", kind, err)
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	if err := playPCM(samples, kind); err != nil {
		return fmt.Errorf("emit %s cue: %w", kind, err)
	}
	return nil
}

func playPCM(samples []int16, kind cueKind) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("openspeech"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	stream, err := client.NewPlayback(
		pcmReader(samples),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("openspeech "+kind.String()+" cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	return stream.Error()
}

// pcmReader feeds samples to pulse once and then reports end of data.
func pcmReader(samples []int16) pulse.Reader {
	cursor := 0
	return pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})
}

// synthesizeCue joins tones with a short silence between each pair.
func synthesizeCue(tones []toneSpec) []int16 {
	if len(tones) == 0 {
		return nil
	}
	gap := make([]int16, samplesForDuration(cueGap))

	var pcm []int16
	for i, tone := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, synthesizeTone(tone)...)
	}
	return pcm
}

// synthesizeTone renders one sine tone at cueVolume with linear attack and
// release ramps no longer than cueRamp or a tenth of the tone.
func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 {
		return nil
	}
	ramp := max(min(n/10, samplesForDuration(cueRamp)), 1)

	pcm := make([]int16, n)
	for i := range pcm {
		envelope := min(1, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		phase := 2 * math.Pi * spec.frequencyHz * float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * cueVolume * envelope * math.MaxInt16))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
