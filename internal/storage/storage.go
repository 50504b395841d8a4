// Package storage keeps file content out of the database. Three backends are
// available: a local directory, an S3 compatible bucket and MongoDB GridFS.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/google/uuid"
)

const (
	BackendLocal  = "local"
	BackendS3     = "s3"
	BackendGridFS = "gridfs"
)

var ErrObjectNotFound = errors.New("storage: object not found")

// Object describes a stored blob.
type Object struct {
	Path     string
	URL      string
	Checksum string
	Size     int64
}

type Blob interface {
	Upload(ctx context.Context, data []byte, name, contentType string) (*Object, error)
	// Delete removes the object; a missing object is not an error.
	Delete(ctx context.Context, path string) error
	URL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Backend() string
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg internal.StorageConfig, signer *Signer) (Blob, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocal(cfg.Local.Dir, signer, cfg.URLTTL)
	case BackendS3:
		s3, err := NewS3(cfg.S3, cfg.URLTTL)
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3, nil
	case BackendGridFS:
		return NewGridFS(ctx, cfg.GridFS, signer, cfg.URLTTL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ObjectPath lays objects out by upload day: files/2025/03/14/<uuid>_<name>.
func ObjectPath(name string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("files/%04d/%02d/%02d/%s_%s",
		now.Year(), int(now.Month()), now.Day(), uuid.NewString(), SafeName(name))
}

// SafeName keeps letters, digits, dot, dash and underscore of a file name and
// caps its length.
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	stem = b.String()
	if stem == "" {
		stem = "file"
	}
	if len(stem) > 80 {
		stem = stem[:80]
	}

	var e strings.Builder
	for _, r := range ext {
		if r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			e.WriteRune(r)
		}
	}
	return stem + e.String()
}

func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ThumbnailName is the upload name of the JPEG preview of a file.
func ThumbnailName(name string) string {
	safe := SafeName(name)
	return "thumb_" + strings.TrimSuffix(safe, filepath.Ext(safe)) + ".jpg"
}
