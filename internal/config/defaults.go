package config

import "github.com/petewarden/open-speech-recording/internal/words"

// Default returns the canonical client configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			URL:       "http://127.0.0.1:8080",
			TimeoutMS: 10000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Timing: TimingConfig{
			CountdownSteps:  3,
			CountdownStepMS: 1000,
			RecordMS:        1500,
			PauseMS:         1000,
		},
		Words: WordsConfig{
			Target:      words.DefaultTargets(),
			Filler:      words.DefaultFillers(),
			TargetCount: words.DefaultTargetCount,
			FillerCount: words.DefaultFillerCount,
		},
		Upload: UploadConfig{ContentType: "audio/wav"},
		Indicator: IndicatorConfig{
			Enable:         true,
			DesktopAppName: "openspeech",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Debug: DebugConfig{},
	}
}
