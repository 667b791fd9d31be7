// Package filestore keeps uploaded files in a local directory until a lane
// worker consumes them. Workers running in another process must share the
// directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when an upload exceeds the size limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Store writes uploads into one directory.
type Store struct {
	dir    string
	root   string
	logger *slog.Logger
}

// New creates the directory when needed.
func New(dir string, log *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: dir, root: root, logger: log.With("component", "file_store")}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string { return s.dir }

// Save copies r into a new uniquely named file and returns its path. A
// maxBytes of zero means no limit. Partial files are removed on error.
func (s *Store) Save(ctx context.Context, prefix, ext string, r io.Reader, maxBytes int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	f, err := os.CreateTemp(s.dir, prefix+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	path := f.Name()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("failed to write upload: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close upload: %w", closeErr)
	case maxBytes > 0 && n > maxBytes:
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	if err != nil {
		s.Remove(path)
		return "", err
	}

	s.logger.DebugContext(ctx, "upload stored", "path", path, "bytes", n)
	return path, nil
}

// Contains reports whether path names a file directly inside the upload
// directory. Nested directories and paths that climb out with ".." do not
// count.
func (s *Store) Contains(path string) bool {
	if path == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == s.root
}

// Remove deletes a stored file. Missing files are ignored, as are paths
// outside the upload directory.
func (s *Store) Remove(path string) {
	if !s.Contains(path) {
		s.logger.Warn("refusing to remove file outside upload directory", "path", path)
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove upload", "path", filepath.Base(path), "error", err)
	}
}
