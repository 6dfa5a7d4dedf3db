// Package config resolves, parses, validates, and defaults openspeech client configuration.
package config

import (
	"time"

	"github.com/petewarden/open-speech-recording/internal/words"
)

// Config is the fully materialized client configuration.
type Config struct {
	Server    ServerConfig
	Audio     AudioConfig
	Timing    TimingConfig
	Words     WordsConfig
	Upload    UploadConfig
	Indicator IndicatorConfig
	Debug     DebugConfig
}

// ServerConfig locates the collection server.
type ServerConfig struct {
	URL       string
	TimeoutMS int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// TimingConfig holds the recording-cycle delays in milliseconds.
type TimingConfig struct {
	CountdownSteps  int
	CountdownStepMS int
	RecordMS        int
	PauseMS         int
}

// WordsConfig defines the quota table.
type WordsConfig struct {
	Target      []string
	Filler      []string
	TargetCount int
	FillerCount int
}

// UploadConfig controls the upload request body.
type UploadConfig struct {
	ContentType string
}

// IndicatorConfig controls desktop notifications and audio cues.
type IndicatorConfig struct {
	Enable         bool
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// Quota builds the word quota table from the words section.
func (c Config) Quota() (words.Quota, error) {
	return words.NewQuota(c.Words.Target, c.Words.TargetCount, c.Words.Filler, c.Words.FillerCount)
}

// ServerTimeout is the per-request upload timeout.
func (c Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutMS) * time.Millisecond
}
