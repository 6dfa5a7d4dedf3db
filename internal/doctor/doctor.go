// Package doctor runs readiness diagnostics for config, audio, desktop
// notifications, and the collection server.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/petewarden/open-speech-recording/internal/audio"
	"github.com/petewarden/open-speech-recording/internal/config"
	"github.com/petewarden/open-speech-recording/internal/health"
	"github.com/petewarden/open-speech-recording/internal/ipc"
	"github.com/petewarden/open-speech-recording/internal/upload"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("no file at %q; using defaults", cfg.Path)
	}
	checks := []Check{{Name: "config", Pass: true, Message: configMessage}}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "session socket directory is set", fmt.Sprintf("XDG_RUNTIME_DIR is empty; session socket falls back to %s", ipc.RuntimeSocketPath())))

	if cfg.Config.Indicator.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	checks = append(checks, checkServerHTTP(ctx, cfg.Config))
	checks = append(checks, checkServerGRPC(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	if predicate(os.Getenv(name)) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %s", audio.Describe(selection.Device))
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkServerHTTP requests the server's /healthz endpoint.
func checkServerHTTP(ctx context.Context, cfg config.Config) Check {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client := upload.NewClient(cfg.Server.URL, nil, probeTimeout)
	if err := client.Ready(probeCtx); err != nil {
		return Check{Name: "server.http", Pass: false, Message: fmt.Sprintf("%s/healthz: %v", strings.TrimRight(cfg.Server.URL, "/"), err)}
	}
	return Check{Name: "server.http", Pass: true, Message: fmt.Sprintf("ready at %s", cfg.Server.URL)}
}

// checkServerGRPC asks the gRPC health service sharing the server port.
func checkServerGRPC(ctx context.Context, cfg config.Config) Check {
	target, err := health.Target(cfg.Server.URL)
	if err != nil {
		return Check{Name: "server.grpc", Pass: false, Message: err.Error()}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := health.Check(probeCtx, target); err != nil {
		return Check{Name: "server.grpc", Pass: false, Message: fmt.Sprintf("%s: %v", target, err)}
	}
	return Check{Name: "server.grpc", Pass: true, Message: fmt.Sprintf("serving at %s", target)}
}
