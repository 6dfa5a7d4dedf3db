package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ServerURLEnv overrides server.url from the config file.
const ServerURLEnv = "OPENSPEECH_SERVER_URL"

// Loaded is the resolved config plus where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
	// Explicit is true when the path came from --config.
	Explicit bool
}

// Load reads config.jsonc from the --config path or the XDG location and
// applies OPENSPEECH_SERVER_URL. A missing file at the default location means
// defaults; a missing --config file is an error.
func Load(explicitPath string) (Loaded, error) {
	explicit := strings.TrimSpace(explicitPath) != ""
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: resolvedPath, Config: Default(), Explicit: explicit}

	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		cfg, warnings, parseErr := Parse(string(content), loaded.Config)
		if parseErr != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, parseErr)
		}
		loaded.Config, loaded.Warnings, loaded.Exists = cfg, warnings, true
	case errors.Is(err, os.ErrNotExist) && !explicit:
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; recording against %s", resolvedPath, loaded.Config.Server.URL),
		})
	case errors.Is(err, os.ErrNotExist):
		return Loaded{}, fmt.Errorf("config file %q not found", resolvedPath)
	default:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	if override := strings.TrimSpace(os.Getenv(ServerURLEnv)); override != "" {
		cfg := loaded.Config
		cfg.Server.URL = override
		if _, err := Validate(cfg); err != nil {
			return Loaded{}, fmt.Errorf("%s: %w", ServerURLEnv, err)
		}
		loaded.Config = cfg
	}
	return loaded, nil
}

// ResolvePath applies CLI/XDG/home fallback rules for config.jsonc location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "openspeech", "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "openspeech", "config.jsonc"), nil
}

// StateDir returns $XDG_STATE_HOME/openspeech (or ~/.local/state/openspeech).
func StateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "openspeech"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for state dir")
	}
	return filepath.Join(home, ".local", "state", "openspeech"), nil
}

// CookieJarPath is where the server session and completion flag persist.
func CookieJarPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cookies.json"), nil
}
