package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Local stores objects under a directory on disk.
type Local struct {
	dir    string
	signer *Signer
	ttl    time.Duration
}

func NewLocal(dir string, signer *Signer, ttl time.Duration) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &Local{dir: dir, signer: signer, ttl: ttl}, nil
}

func (l *Local) Backend() string { return BackendLocal }

// Upload writes to a temp file while hashing, fsyncs, then renames into place
// so a reader never sees a partial object.
func (l *Local) Upload(ctx context.Context, data []byte, name, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ObjectPath(name, time.Now())
	fullPath, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	tmpPath := fullPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(bytes.NewReader(data), hasher))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("fsync object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename object: %w", err)
	}

	link, err := l.URL(ctx, path, l.ttl)
	if err != nil {
		return nil, err
	}

	return &Object{
		Path:     path,
		URL:      link,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
		Size:     size,
	}, nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	fullPath, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}

func (l *Local) URL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = l.ttl
	}
	return l.signer.Sign(path, ttl)
}

func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object %s: %w", path, err)
	}
	return f, nil
}

// resolve maps an object path into the storage directory and refuses paths
// that would escape it.
func (l *Local) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	fullPath := filepath.Join(l.dir, clean)
	root := filepath.Clean(l.dir) + string(os.PathSeparator)
	if !strings.HasPrefix(fullPath, root) {
		return "", ErrObjectNotFound
	}
	return fullPath, nil
}
