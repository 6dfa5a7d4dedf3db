// Package storage writes uploaded clips to object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Store persists one named clip.
type Store interface {
	Put(ctx context.Context, name string, contentType string, data []byte) error
	Close() error
}

// ObjectName builds the stored name word_session_uuid.ext, sanitized.
func ObjectName(word string, session string, contentType string) string {
	raw := word + "_" + session + "_" + strings.ReplaceAll(uuid.NewString(), "-", "") + Extension(contentType)
	return SecureFilename(raw)
}

// Extension maps an audio content type to a file extension.
func Extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".bin"
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to ASCII letters, digits, '_', '-' and '.',
// with whitespace folded to '_' and no leading or trailing dots or
// underscores.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "/", " ")
	name = strings.ReplaceAll(name, "\\", " ")
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// GCS stores clips in a Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	bucket string
}

// NewGCS connects to Cloud Storage with application default credentials.
// A non-empty endpoint targets an emulator without authentication.
func NewGCS(ctx context.Context, bucket string, endpoint string) (*GCS, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("bucket is required")
	}
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Put uploads data as a new object.
func (g *GCS) Put(ctx context.Context, name string, contentType string, data []byte) error {
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %q: %w", name, err)
	}
	return nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Dir stores clips as files under a local directory.
type Dir struct {
	root string
}

// NewDir creates root when needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", root, err)
	}
	return &Dir{root: root}, nil
}

// Put writes data to root/name. Existing files are never replaced.
func (d *Dir) Put(_ context.Context, name string, _ string, data []byte) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid object name %q", name)
	}
	f, err := os.OpenFile(filepath.Join(d.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %q: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %q: %w", name, err)
	}
	return f.Close()
}

// Close is a no-op.
func (d *Dir) Close() error {
	return nil
}
