package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Server    *jsoncServer    `json:"server"`
	Audio     *jsoncAudio     `json:"audio"`
	Timing    *jsoncTiming    `json:"timing"`
	Words     *jsoncWords     `json:"words"`
	Upload    *jsoncUpload    `json:"upload"`
	Indicator *jsoncIndicator `json:"indicator"`
	Debug     *jsoncDebug     `json:"debug"`
}

type jsoncServer struct {
	URL       *string `json:"url"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncTiming struct {
	CountdownSteps  *int `json:"countdown_steps"`
	CountdownStepMS *int `json:"countdown_step_ms"`
	RecordMS        *int `json:"record_ms"`
	PauseMS         *int `json:"pause_ms"`
}

type jsoncWords struct {
	Target      *jsoncStringList `json:"target"`
	Filler      *jsoncStringList `json:"filler"`
	TargetCount *int             `json:"target_count"`
	FillerCount *int             `json:"filler_count"`
}

type jsoncUpload struct {
	ContentType *string `json:"content_type"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

// jsoncStringList accepts either a string array or a comma-delimited string.
type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = trimAll(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimAll(strings.Split(single, ","))
		return nil
	}

	return errors.New("expected string array or comma-delimited string")
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if s := payload.Server; s != nil {
		setString(&cfg.Server.URL, s.URL)
		setInt(&cfg.Server.TimeoutMS, s.TimeoutMS)
	}
	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}
	if t := payload.Timing; t != nil {
		setInt(&cfg.Timing.CountdownSteps, t.CountdownSteps)
		setInt(&cfg.Timing.CountdownStepMS, t.CountdownStepMS)
		setInt(&cfg.Timing.RecordMS, t.RecordMS)
		setInt(&cfg.Timing.PauseMS, t.PauseMS)
	}
	if w := payload.Words; w != nil {
		if w.Target != nil {
			cfg.Words.Target = []string(*w.Target)
		}
		if w.Filler != nil {
			cfg.Words.Filler = []string(*w.Filler)
		}
		setInt(&cfg.Words.TargetCount, w.TargetCount)
		setInt(&cfg.Words.FillerCount, w.FillerCount)
	}
	if u := payload.Upload; u != nil {
		setString(&cfg.Upload.ContentType, u.ContentType)
	}
	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}
	if d := payload.Debug; d != nil {
		setBool(&cfg.Debug.EnableAudioDump, d.AudioDump)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// normalizeJSONC blanks comments and trailing commas in place. Every other
// byte keeps its offset, so decoder errors map back to the source position.
// A comma is trailing only when it follows a complete value and only
// whitespace or comments separate it from the closing bracket.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)
	inString := false
	escape := false
	pendingComma := -1
	var last byte

	for i := 0; i < len(out); i++ {
		ch := out[i]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			pendingComma = -1
			last = ch
		case ch == '/' && i+1 < len(out) && out[i+1] == '/':
			for i < len(out) && out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
				i++
			}
			i--
		case ch == '/' && i+1 < len(out) && out[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return "", errors.New("unterminated block comment in JSONC")
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				if !isJSONWhitespace(out[i]) {
					out[i] = ' '
				}
			}
			i--
		case ch == ',':
			pendingComma = -1
			if closesValue(last) {
				pendingComma = i
			}
			last = ch
		case ch == '}' || ch == ']':
			if pendingComma >= 0 {
				out[pendingComma] = ' '
			}
			pendingComma = -1
			last = ch
		case isJSONWhitespace(ch):
		default:
			pendingComma = -1
			last = ch
		}
	}

	return string(out), nil
}

// closesValue reports whether last ends a complete JSON value.
func closesValue(last byte) bool {
	switch last {
	case 0, '{', '[', ',', ':':
		return false
	default:
		return true
	}
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return errors.New("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := min(int(offset), len(content))
	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
