package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONCBlanksCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true, // trailing
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Len(t, normalized, len(input))
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(normalized), &decoded))
	require.Equal(t, []any{"one", "two"}, decoded["items"])
}

func TestNormalizeJSONCKeepsLineNumbers(t *testing.T) {
	input := "{\n /* a\n b */\n \"x\": 1,\n}"
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Equal(t, strings.Count(input, "\n"), strings.Count(normalized, "\n"))
}

func TestNormalizeJSONCRetainsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text, ]",}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, `"contains // and /* comment-like */ text, ]"`)
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8)
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 5, col)
}

func TestJSONCStringListUnmarshal(t *testing.T) {
	var list jsoncStringList
	require.NoError(t, list.UnmarshalJSON([]byte(`["Yes"," No "]`)))
	require.Equal(t, []string{"Yes", "No"}, []string(list))

	require.NoError(t, list.UnmarshalJSON([]byte(`"Dog, Cat, , Bird"`)))
	require.Equal(t, []string{"Dog", "Cat", "Bird"}, []string(list))

	require.Error(t, list.UnmarshalJSON([]byte(`123`)))
}

func TestParseJSONCAppliesEverySection(t *testing.T) {
	cfg, warnings, err := Parse(`
{
  "server": { "url": "https://speech.example.com", "timeout_ms": 2500 },
  "audio": { "input": "headset", "fallback": "default" },
  "timing": { "countdown_steps": 2, "countdown_step_ms": 500, "record_ms": 2000, "pause_ms": 750 },
  "words": { "target": ["Yes", "No"], "filler": "Dog, Cat", "target_count": 3, "filler_count": 2 },
  "upload": { "content_type": "audio/ogg" },
  "indicator": { "enable": false, "sound_enable": false, "error_timeout_ms": 0 },
  "debug": { "audio_dump": true },
}
`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "https://speech.example.com", cfg.Server.URL)
	require.Equal(t, 2500, cfg.Server.TimeoutMS)
	require.Equal(t, "headset", cfg.Audio.Input)
	require.Equal(t, TimingConfig{CountdownSteps: 2, CountdownStepMS: 500, RecordMS: 2000, PauseMS: 750}, cfg.Timing)
	require.Equal(t, []string{"Yes", "No"}, cfg.Words.Target)
	require.Equal(t, []string{"Dog", "Cat"}, cfg.Words.Filler)
	require.Equal(t, "audio/ogg", cfg.Upload.ContentType)
	require.False(t, cfg.Indicator.Enable)
	require.False(t, cfg.Indicator.SoundEnable)
	require.True(t, cfg.Debug.EnableAudioDump)

	quota, err := cfg.Quota()
	require.NoError(t, err)
	require.Equal(t, 3*2+2*2, quota.Total())
}

func TestParseJSONCRejectsUnknownKeys(t *testing.T) {
	_, _, err := Parse(`{"server": {"url": "http://x", "retries": 3}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCSyntaxErrorReportsPosition(t *testing.T) {
	_, _, err := Parse("{\n  // comment\n  \"server\": {\n    \"url\": ,\n  }\n}", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 4")
}

func TestParseJSONCTypeErrorReportsPosition(t *testing.T) {
	_, _, err := Parse("{\n\"timing\": {\"record_ms\": \"long\"}\n}", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, _, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestNormalizeJSONCKeepsCommasThatDoNotFollowAValue(t *testing.T) {
	for _, input := range []string{`{"target":[,]}`, `{"url": ,}`, `{,}`, `[1,,]`} {
		normalized, err := normalizeJSONC(input)
		require.NoError(t, err)
		require.Equal(t, strings.Count(input, ","), strings.Count(normalized, ","), input)
	}

	normalized, err := normalizeJSONC(`[1, /* last */ ]`)
	require.NoError(t, err)
	require.Equal(t, "[1"+strings.Repeat(" ", 13)+"]", normalized)
}

func TestParseJSONCRejectsEmptyListSlot(t *testing.T) {
	_, _, err := Parse(`{"words": {"target": [,]}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}
