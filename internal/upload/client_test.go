package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/petewarden/open-speech-recording/internal/clips"
	"github.com/petewarden/open-speech-recording/internal/cookies"
	"github.com/petewarden/open-speech-recording/internal/version"
	"github.com/stretchr/testify/require"
)

type recordedUpload struct {
	word        string
	token       string
	contentType string
	body        string
	session     string
	userAgent   string
}

func newFakeServer(t *testing.T) (*httptest.Server, *[]recordedUpload, *int) {
	t.Helper()

	var mu sync.Mutex
	uploads := []recordedUpload{}
	starts := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts++
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "sess-1", Path: "/"})
		http.Redirect(w, r, "/", http.StatusFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie("session_id")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SessionInfo{Session: err == nil, CSRFToken: "tok-1"})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		session := ""
		if c, err := r.Cookie("session_id"); err == nil {
			session = c.Value
		}
		mu.Lock()
		uploads = append(uploads, recordedUpload{
			word:        r.URL.Query().Get("word"),
			token:       r.URL.Query().Get("_csrf_token"),
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
			session:     session,
			userAgent:   r.UserAgent(),
		})
		mu.Unlock()
		if r.URL.Query().Get("word") == "Bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("All good"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &uploads, &starts
}

func TestClientStartsSessionAndUploads(t *testing.T) {
	server, uploads, starts := newFakeServer(t)
	jar, err := cookies.Open(filepath.Join(t.TempDir(), "cookies.json"), server.URL, nil)
	require.NoError(t, err)

	client := NewClient(server.URL, jar, time.Second)
	status, err := client.Upload(context.Background(), clips.Clip{ID: 1, Word: "Yes", Audio: []byte("RIFF"), ContentType: "audio/wav"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	require.Equal(t, 1, *starts)
	require.Len(t, *uploads, 1)
	got := (*uploads)[0]
	require.Equal(t, "Yes", got.word)
	require.Equal(t, "tok-1", got.token)
	require.Equal(t, "audio/wav", got.contentType)
	require.Equal(t, "RIFF", got.body)
	require.Equal(t, "sess-1", got.session)
	require.Equal(t, version.UserAgent(), got.userAgent)

	value, ok := jar.Get("session_id")
	require.True(t, ok)
	require.Equal(t, "sess-1", value)
}

func TestClientReusesExistingSession(t *testing.T) {
	server, _, starts := newFakeServer(t)
	jar, err := cookies.Open(filepath.Join(t.TempDir(), "cookies.json"), server.URL, nil)
	require.NoError(t, err)
	require.NoError(t, jar.Set("session_id", "sess-existing"))

	client := NewClient(server.URL, jar, time.Second)
	info, err := client.EnsureSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", info.CSRFToken)
	require.Zero(t, *starts)
}

func TestClientReportsRejectionStatus(t *testing.T) {
	server, _, _ := newFakeServer(t)
	jar, err := cookies.Open(filepath.Join(t.TempDir(), "cookies.json"), server.URL, nil)
	require.NoError(t, err)

	client := NewClient(server.URL, jar, time.Second)
	status, err := client.Upload(context.Background(), clips.Clip{Word: "Bad"})
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestClientUploadsClipWithoutAudio(t *testing.T) {
	server, uploads, _ := newFakeServer(t)
	jar, err := cookies.Open(filepath.Join(t.TempDir(), "cookies.json"), server.URL, nil)
	require.NoError(t, err)

	client := NewClient(server.URL, jar, time.Second)
	status, err := client.Upload(context.Background(), clips.Clip{ID: 1, Word: "No"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, *uploads, 1)
	require.Empty(t, (*uploads)[0].body)
	require.Equal(t, "application/octet-stream", (*uploads)[0].contentType)
}

func TestClientReady(t *testing.T) {
	server, _, _ := newFakeServer(t)
	jar, err := cookies.Open(filepath.Join(t.TempDir(), "cookies.json"), server.URL, nil)
	require.NoError(t, err)

	require.NoError(t, NewClient(server.URL, jar, time.Second).Ready(context.Background()))
}
