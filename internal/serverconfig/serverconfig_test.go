package serverconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_PATH", "")
	t.Setenv("SESSION_SECRET_KEY", "0123456789abcdef0123")
	t.Setenv("CLOUD_STORAGE_BUCKET", "speech-commands")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9090", cfg.Addr())
	require.Equal(t, BackendGCS, cfg.StorageBackend)
	require.Equal(t, "speech-commands", cfg.Bucket)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, int64(8<<20), cfg.MaxUploadSize)
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"SESSION_SECRET_KEY=0123456789abcdef0123\n"+
			"STORAGE_BACKEND=local\n"+
			"STORAGE_DIR="+filepath.Join(dir, "clips")+"\n"+
			"LOG_LEVEL=DEBUG\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendLocal, cfg.StorageBackend)
	require.Equal(t, filepath.Join(dir, "clips"), cfg.StorageDir)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorContains(t, err, "read server config")
}

func TestGetRejectsInvalidSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_PATH", "")

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"CLOUD_STORAGE_BUCKET": "b"},
			want: "SessionSecret",
		},
		{
			name: "gcs without bucket",
			env:  map[string]string{"SESSION_SECRET_KEY": "0123456789abcdef0123"},
			want: "Bucket",
		},
		{
			name: "unknown backend",
			env:  map[string]string{"SESSION_SECRET_KEY": "0123456789abcdef0123", "STORAGE_BACKEND": "s3"},
			want: "StorageBackend",
		},
		{
			name: "bad log level",
			env:  map[string]string{"SESSION_SECRET_KEY": "0123456789abcdef0123", "CLOUD_STORAGE_BUCKET": "b", "LOG_LEVEL": "loud"},
			want: "LogLevel",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"SESSION_SECRET_KEY", "CLOUD_STORAGE_BUCKET", "STORAGE_BACKEND", "LOG_LEVEL"} {
				t.Setenv(key, tc.env[key])
			}
			_, err := Load("")
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
