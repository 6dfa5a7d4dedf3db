package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/petewarden/open-speech-recording/internal/clips"
	"github.com/petewarden/open-speech-recording/internal/version"
)

const (
	sessionCookie = "session_id"
	tokenParam    = "_csrf_token"
)

// CookieJar is the persistent cookie store shared with the completion signal.
type CookieJar interface {
	http.CookieJar
	Get(name string) (string, bool)
}

// SessionInfo is the server's view of the caller's session.
type SessionInfo struct {
	Session   bool   `json:"session"`
	AllDone   bool   `json:"all_done"`
	CSRFToken string `json:"csrf_token"`
}

// Client talks to the collection server over HTTP.
type Client struct {
	http *resty.Client
	jar  CookieJar

	mu    sync.Mutex
	token string
}

// NewClient constructs a server client rooted at baseURL.
func NewClient(baseURL string, jar CookieJar, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetCookieJar(jar).
		SetHeader("User-Agent", version.UserAgent())
	return &Client{http: rc, jar: jar}
}

// EnsureSession starts a server session when the jar has none, then
// fetches the forgery-protection token for it.
func (c *Client) EnsureSession(ctx context.Context) (SessionInfo, error) {
	if _, ok := c.jar.Get(sessionCookie); !ok {
		resp, err := c.http.R().SetContext(ctx).Get("/start")
		if err != nil {
			return SessionInfo{}, fmt.Errorf("start session: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return SessionInfo{}, fmt.Errorf("start session: HTTP %d", resp.StatusCode())
		}
	}

	var info SessionInfo
	resp, err := c.http.R().SetContext(ctx).SetResult(&info).Get("/api/session")
	if err != nil {
		return SessionInfo{}, fmt.Errorf("fetch session: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return SessionInfo{}, fmt.Errorf("fetch session: HTTP %d", resp.StatusCode())
	}
	if !info.Session {
		return SessionInfo{}, errors.New("server did not accept the session cookie")
	}

	c.mu.Lock()
	c.token = info.CSRFToken
	c.mu.Unlock()
	return info, nil
}

// Upload sends one clip as the raw request body.
func (c *Client) Upload(ctx context.Context, clip clips.Clip) (int, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		info, err := c.EnsureSession(ctx)
		if err != nil {
			return 0, err
		}
		token = info.CSRFToken
	}

	// resty refuses a nil []byte body; a take without chunks still uploads.
	body := clip.Audio
	if body == nil {
		body = []byte{}
	}

	contentType := clip.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("word", clip.Word).
		SetQueryParam(tokenParam, token).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Post("/upload")
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

// Ready reports whether the server answers its health endpoint.
func (c *Client) Ready(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	return nil
}
