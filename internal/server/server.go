// Package server is the HTTP collection endpoint clips are uploaded to.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petewarden/open-speech-recording/internal/ledger"
)

const (
	sessionIDCookie = "session_id"
	allDoneCookie   = "all_done"
	sessionCookie   = "session"
	csrfParam       = "_csrf_token"

	defaultContentType = "audio/ogg"
	defaultMaxUpload   = 8 << 20
)

// ClipStore persists uploaded audio.
type ClipStore interface {
	Put(ctx context.Context, name string, contentType string, data []byte) error
}

// Index records stored clips and reports per-word counts.
type Index interface {
	Record(ctx context.Context, e ledger.Entry) error
	CountByWord(ctx context.Context) (map[string]int, error)
	Sessions(ctx context.Context) (int, error)
}

// Options wires a Server.
type Options struct {
	Secret        string
	Store         ClipStore
	Index         Index
	Logger        *slog.Logger
	MaxUploadSize int64
	Now           func() time.Time
	// NameFor overrides object naming in tests.
	NameFor func(word string, session string, contentType string) string
}

// Server holds the route handlers and their dependencies.
type Server struct {
	signer  tokenSigner
	store   ClipStore
	index   Index
	logger  *slog.Logger
	maxBody int64
	now     func() time.Time
	nameFor func(string, string, string) string
}

// New validates options and builds a Server.
func New(opts Options) (*Server, error) {
	signer, err := newTokenSigner(opts.Secret)
	if err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, errors.New("clip store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = defaultMaxUpload
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NameFor == nil {
		opts.NameFor = objectName
	}
	return &Server{
		signer:  signer,
		store:   opts.Store,
		index:   opts.Index,
		logger:  opts.Logger,
		maxBody: opts.MaxUploadSize,
		now:     opts.Now,
		nameFor: opts.NameFor,
	}, nil
}

// Router builds the gin engine with every route installed.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.SetHTMLTemplate(pages)

	engine.GET("/", s.welcome)
	engine.GET("/legal", s.legal)
	engine.GET("/start", s.start)
	engine.GET("/healthz", s.healthz)

	api := engine.Group("/api")
	{
		api.GET("/session", s.session)
		api.GET("/stats", s.stats)
	}

	engine.POST("/upload", s.csrfProtect, s.upload)
	return engine
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := s.now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"elapsed_ms", s.now().Sub(started).Milliseconds(),
		)
	}
}

// HTTPServer wraps the router in an http.Server with conservative timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}
}

