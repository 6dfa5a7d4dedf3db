package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	rawURL := strings.TrimSpace(cfg.Server.URL)
	if rawURL == "" {
		return nil, errors.New("server.url must not be empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("server.url must be an absolute http(s) URL, got %q", rawURL)
	}
	if cfg.Server.TimeoutMS <= 0 {
		return nil, errors.New("server.timeout_ms must be > 0")
	}

	if cfg.Timing.CountdownSteps < 0 {
		return nil, errors.New("timing.countdown_steps must be >= 0")
	}
	if cfg.Timing.CountdownStepMS <= 0 {
		return nil, errors.New("timing.countdown_step_ms must be > 0")
	}
	if cfg.Timing.RecordMS <= 0 {
		return nil, errors.New("timing.record_ms must be > 0")
	}
	if cfg.Timing.PauseMS <= 0 {
		return nil, errors.New("timing.pause_ms must be > 0")
	}

	if len(cfg.Words.Target) == 0 {
		return nil, errors.New("words.target must not be empty")
	}
	if cfg.Words.TargetCount <= 0 {
		return nil, errors.New("words.target_count must be > 0")
	}
	if cfg.Words.FillerCount <= 0 {
		return nil, errors.New("words.filler_count must be > 0")
	}
	targets, dupes := dedupe(cfg.Words.Target)
	for _, word := range dupes {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("words.target lists %q more than once", word)})
	}
	_, dupes = dedupe(cfg.Words.Filler)
	for _, word := range dupes {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("words.filler lists %q more than once", word)})
	}
	for _, word := range cfg.Words.Filler {
		if _, ok := targets[word]; ok {
			return nil, fmt.Errorf("word %q is listed as both target and filler", word)
		}
	}

	if !strings.HasPrefix(strings.TrimSpace(cfg.Upload.ContentType), "audio/") {
		return nil, fmt.Errorf("upload.content_type must be an audio/* type, got %q", cfg.Upload.ContentType)
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, errors.New("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, errors.New("indicator.error_timeout_ms must be >= 0")
	}

	return warnings, nil
}

// dedupe returns the set of words and the words seen more than once.
func dedupe(items []string) (map[string]struct{}, []string) {
	seen := make(map[string]struct{}, len(items))
	var dupes []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			dupes = append(dupes, item)
			continue
		}
		seen[item] = struct{}{}
	}
	return seen, dupes
}
