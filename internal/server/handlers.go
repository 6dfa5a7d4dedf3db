package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/petewarden/open-speech-recording/internal/ledger"
	"github.com/petewarden/open-speech-recording/internal/storage"
)

// SessionInfo is the /api/session payload for non-browser clients.
type SessionInfo struct {
	Session   bool   `json:"session"`
	AllDone   bool   `json:"all_done"`
	CSRFToken string `json:"csrf_token"`
}

// Stats is the /api/stats payload.
type Stats struct {
	Words    map[string]int `json:"words"`
	Total    int            `json:"total"`
	Sessions int            `json:"sessions"`
}

func objectName(word string, session string, contentType string) string {
	return storage.ObjectName(word, session, contentType)
}

// welcome routes visitors by cookie: no session, in progress, or finished.
func (s *Server) welcome(c *gin.Context) {
	if _, err := c.Cookie(sessionIDCookie); err != nil {
		c.HTML(http.StatusOK, "welcome", nil)
		return
	}
	if done, _ := c.Cookie(allDoneCookie); done != "" {
		c.HTML(http.StatusOK, "thanks", nil)
		return
	}
	token, ok := s.ensureCSRFToken(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "record", gin.H{"CSRFToken": token})
}

func (s *Server) legal(c *gin.Context) {
	c.HTML(http.StatusOK, "legal", nil)
}

// start issues a fresh session id and sends the visitor back to /.
func (s *Server) start(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionIDCookie, newHexID(), 0, "/", "", false, false)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) session(c *gin.Context) {
	token, ok := s.ensureCSRFToken(c)
	if !ok {
		return
	}
	_, err := c.Cookie(sessionIDCookie)
	done, _ := c.Cookie(allDoneCookie)
	c.JSON(http.StatusOK, SessionInfo{
		Session:   err == nil,
		AllDone:   done != "",
		CSRFToken: token,
	})
}

func (s *Server) stats(c *gin.Context) {
	if s.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "clip index is not configured"})
		return
	}
	words, err := s.index.CountByWord(c.Request.Context())
	if err != nil {
		s.logger.Error("count clips failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	sessions, err := s.index.Sessions(c.Request.Context())
	if err != nil {
		s.logger.Error("count sessions failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	total := 0
	for _, n := range words {
		total += n
	}
	c.JSON(http.StatusOK, Stats{Words: words, Total: total, Sessions: sessions})
}

// csrfProtect rejects POSTs whose _csrf_token does not match the signed
// session cookie.
func (s *Server) csrfProtect(c *gin.Context) {
	raw, err := c.Cookie(sessionCookie)
	if err != nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	token, err := s.signer.verify(raw)
	if err != nil || token != c.Query(csrfParam) {
		s.logger.Warn("csrf check failed", "path", c.Request.URL.Path)
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.Next()
}

// upload stores the raw request body as one clip for the session.
func (s *Server) upload(c *gin.Context) {
	sessionID, err := c.Cookie(sessionIDCookie)
	if err != nil || sessionID == "" {
		c.String(http.StatusBadRequest, "No session")
		return
	}
	word := strings.TrimSpace(c.Query("word"))
	if word == "" {
		c.String(http.StatusBadRequest, "No word")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "Clip too large")
			return
		}
		c.String(http.StatusBadRequest, "Unreadable body")
		return
	}

	contentType := c.ContentType()
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultContentType
	}

	name := s.nameFor(word, sessionID, contentType)
	ctx := c.Request.Context()
	if err := s.store.Put(ctx, name, contentType, body); err != nil {
		s.logger.Error("store clip failed", "object", name, "error", err.Error())
		c.String(http.StatusInternalServerError, "Storage failed")
		return
	}
	if s.index != nil {
		entry := ledger.Entry{
			ObjectName:  name,
			Word:        word,
			SessionID:   sessionID,
			ContentType: contentType,
			SizeBytes:   len(body),
			CreatedAt:   s.now(),
		}
		if err := s.index.Record(ctx, entry); err != nil {
			// The clip is already stored; the index only feeds stats.
			s.logger.Warn("index clip failed", "object", name, "error", err.Error())
		}
	}

	s.logger.Info("clip stored", "object", name, "word", word, "bytes", len(body))
	c.String(http.StatusOK, "All good")
}

// ensureCSRFToken returns the session's token, issuing a signed session
// cookie when none is present or the current one does not verify.
func (s *Server) ensureCSRFToken(c *gin.Context) (string, bool) {
	if raw, err := c.Cookie(sessionCookie); err == nil {
		if token, err := s.signer.verify(raw); err == nil {
			return token, true
		}
	}

	token := newHexID()
	signed, err := s.signer.sign(token)
	if err != nil {
		s.logger.Error("sign session failed", "error", err.Error())
		c.AbortWithStatus(http.StatusInternalServerError)
		return "", false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, signed, 0, "/", "", false, true)
	return token, true
}
