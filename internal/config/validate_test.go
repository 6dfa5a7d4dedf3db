package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	quota, err := Default().Quota()
	require.NoError(t, err)
	require.Equal(t, 110, quota.Total())
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty server url", mutate: func(c *Config) { c.Server.URL = "" }, wantErr: "server.url must not be empty"},
		{name: "relative server url", mutate: func(c *Config) { c.Server.URL = "/upload" }, wantErr: "absolute http(s) URL"},
		{name: "non http scheme", mutate: func(c *Config) { c.Server.URL = "ftp://example.com" }, wantErr: "absolute http(s) URL"},
		{name: "zero timeout", mutate: func(c *Config) { c.Server.TimeoutMS = 0 }, wantErr: "server.timeout_ms"},
		{name: "negative countdown", mutate: func(c *Config) { c.Timing.CountdownSteps = -1 }, wantErr: "countdown_steps"},
		{name: "zero countdown step", mutate: func(c *Config) { c.Timing.CountdownStepMS = 0 }, wantErr: "countdown_step_ms"},
		{name: "zero record window", mutate: func(c *Config) { c.Timing.RecordMS = 0 }, wantErr: "record_ms"},
		{name: "zero pause", mutate: func(c *Config) { c.Timing.PauseMS = 0 }, wantErr: "pause_ms"},
		{name: "empty targets", mutate: func(c *Config) { c.Words.Target = nil }, wantErr: "words.target"},
		{name: "zero target count", mutate: func(c *Config) { c.Words.TargetCount = 0 }, wantErr: "target_count"},
		{name: "zero filler count", mutate: func(c *Config) { c.Words.FillerCount = 0 }, wantErr: "filler_count"},
		{name: "overlapping lists", mutate: func(c *Config) { c.Words.Filler = append(c.Words.Filler, "Yes") }, wantErr: "both target and filler"},
		{name: "non audio content type", mutate: func(c *Config) { c.Upload.ContentType = "application/json" }, wantErr: "upload.content_type"},
		{name: "empty app name", mutate: func(c *Config) { c.Indicator.DesktopAppName = " " }, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout_ms"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnDuplicateWords(t *testing.T) {
	cfg := Default()
	cfg.Words.Target = []string{"Yes", "No", "Yes"}
	cfg.Words.Filler = []string{"Dog", "Dog"}

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, `"Yes"`)
	require.Contains(t, warnings[1].Message, `"Dog"`)
}

func TestValidateAllowsEmptyFillersAndDisabledIndicatorName(t *testing.T) {
	cfg := Default()
	cfg.Words.Filler = nil
	cfg.Indicator.Enable = false
	cfg.Indicator.DesktopAppName = ""

	_, err := Validate(cfg)
	require.NoError(t, err)
}
