// Package cookies persists the upload server's cookies between runs.
package cookies

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
)

// rememberFor is the lifetime given to server session cookies so a later
// record run resumes the same server session.
const rememberFor = 365 * 24 * time.Hour

// Jar is an http.CookieJar bound to one server site and saved to a file
// after every change.
type Jar struct {
	path   string
	site   *url.URL
	logger *slog.Logger

	mu    sync.Mutex
	inner *cookiejar.Jar
}

// Open loads the jar at path for site. A missing file yields an empty jar.
// logger receives save failures from SetCookies; nil discards them.
func Open(path string, site string, logger *slog.Logger) (*Jar, error) {
	u, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("parse site url %q: %w", site, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("site url %q must include scheme and host", site)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cookie jar dir: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	inner, err := cookiejar.New(&cookiejar.Options{Filename: path})
	if err != nil {
		return nil, fmt.Errorf("load cookie jar %q: %w", path, err)
	}
	return &Jar{path: path, site: u, logger: logger, inner: inner}, nil
}

// SetCookies implements http.CookieJar. Session cookies are kept for
// rememberFor and the jar is saved; a failed save is logged.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, remembered(cookies))
	if err := j.saveLocked(); err != nil {
		names := make([]string, 0, len(cookies))
		for _, c := range cookies {
			names = append(names, c.Name)
		}
		j.logger.Error("persist server cookies failed", "url", u.String(), "cookies", names, "error", err.Error())
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Get returns the value of the named site cookie.
func (j *Jar) Get(name string) (string, bool) {
	for _, c := range j.Cookies(j.site) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Set stores a site-wide cookie and saves the jar.
func (j *Jar) Set(name string, value string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(j.site, remembered([]*http.Cookie{{Name: name, Value: value, Path: "/"}}))
	return j.saveLocked()
}

// Site returns the URL the jar is bound to.
func (j *Jar) Site() *url.URL {
	return j.site
}

// Remove deletes the jar file at path along with its lock file.
func Remove(path string) error {
	for _, p := range []string{path, path + ".lock"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove cookie jar %q: %w", p, err)
		}
	}
	return nil
}

func (j *Jar) saveLocked() error {
	if err := j.inner.Save(); err != nil {
		return fmt.Errorf("save cookie jar %q: %w", j.path, err)
	}
	return os.Chmod(j.path, 0o600)
}

// remembered gives cookies without an expiry a fixed lifetime so the jar
// stores them on disk. Deletions and explicit expiries pass through.
func remembered(cookies []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c.MaxAge == 0 && c.Expires.IsZero() {
			kept := *c
			kept.Expires = time.Now().Add(rememberFor)
			c = &kept
		}
		out = append(out, c)
	}
	return out
}
