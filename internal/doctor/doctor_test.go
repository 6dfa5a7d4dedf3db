package doctor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petewarden/open-speech-recording/internal/config"
	"github.com/petewarden/open-speech-recording/internal/health"
	"github.com/petewarden/open-speech-recording/internal/ipc"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	require.Equal(t, "[OK] one: good\n[FAIL] two: bad", report.String())
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv("TEST_DOCTOR_ENV", func(v string) bool { return v != "" }, "looks good", "unexpected")
	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)

	t.Setenv("TEST_DOCTOR_ENV", "")
	check = checkEnv("TEST_DOCTOR_ENV", func(v string) bool { return v != "" }, "looks good", "unexpected")
	require.False(t, check.Pass)
	require.Equal(t, "unexpected", check.Message)
}

func TestCheckBinary(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")

	check = checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckServerHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Server.URL = server.URL + "/"
	check := checkServerHTTP(context.Background(), cfg)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "ready at")
}

func TestCheckServerHTTPFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Server.URL = server.URL
	check := checkServerHTTP(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "HTTP 503")
}

func TestCheckServerGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	health.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cfg := config.Default()
	cfg.Server.URL = "http://" + lis.Addr().String()
	check := checkServerGRPC(context.Background(), cfg)
	require.True(t, check.Pass, check.Message)
	require.True(t, strings.HasPrefix(check.Message, "serving at 127.0.0.1:"))
}

func TestCheckServerGRPCBadURL(t *testing.T) {
	cfg := config.Default()
	cfg.Server.URL = "nohost"
	check := checkServerGRPC(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "no host")
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Equal(t, "audio.device", check.Name)
}

func TestRunReportsEveryCheck(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	cfg := config.Default()
	cfg.Server.URL = "http://" + addr
	cfg.Indicator.Enable = false

	report := Run(context.Background(), config.Loaded{Path: "/tmp/openspeech.jsonc", Config: cfg, Exists: true})
	require.False(t, report.OK())

	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.Equal(t, []string{"config", "XDG_RUNTIME_DIR", "audio.device", "server.http", "server.grpc"}, names)
	require.Contains(t, report.String(), `[OK] config: loaded "/tmp/openspeech.jsonc"`)
}

func TestRunReportsMissingConfigAsDefaults(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	cfg := config.Default()
	cfg.Indicator.Enable = false

	report := Run(context.Background(), config.Loaded{Path: "/tmp/missing.jsonc", Config: cfg})
	require.Equal(t, "config", report.Checks[0].Name)
	require.True(t, report.Checks[0].Pass)
	require.Equal(t, `no file at "/tmp/missing.jsonc"; using defaults`, report.Checks[0].Message)
}

func TestRunNamesSocketFallbackWhenRuntimeDirUnset(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", "")
	cfg := config.Default()
	cfg.Indicator.Enable = false

	report := Run(context.Background(), config.Loaded{Path: "/tmp/openspeech.jsonc", Config: cfg, Exists: true})
	require.Equal(t, "XDG_RUNTIME_DIR", report.Checks[1].Name)
	require.False(t, report.Checks[1].Pass)
	require.Contains(t, report.Checks[1].Message, ipc.RuntimeSocketPath())
}
