package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stillframe/service/internal/upload"
)

// ErrInvalidRef is returned for references that do not name a file directly
// inside the managed directory.
var ErrInvalidRef = errors.New("invalid blob reference")

// Local stores blobs as files in one managed directory on disk.
type Local struct {
	dir        string
	publicBase string
}

// NewLocal creates a Local store rooted at dir. The directory is created
// lazily on first commit.
func NewLocal(dir, publicBase string) *Local {
	return &Local{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Commit writes the candidate into the managed directory under its generated
// name. The write goes through a temp file and a rename so a partially
// written blob is never visible under its final name.
func (s *Local) Commit(ctx context.Context, c *upload.Candidate) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".pending-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(c.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod blob: %w", err)
	}

	dest, err := s.PathFor(c.Name)
	if err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("commit blob: %w", err)
	}

	return c.Name, nil
}

// Remove deletes the blob for ref. Idempotent: a missing file is not an error.
func (s *Local) Remove(ctx context.Context, ref string) error {
	path, err := s.PathFor(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// PathFor resolves ref to an absolute path inside the managed directory.
// Any reference carrying path separators or dot segments is rejected, so a
// stored reference can never escape the directory.
func (s *Local) PathFor(ref string) (string, error) {
	if ref == "" || ref == "." || ref == ".." || ref != filepath.Base(ref) {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.dir, ref), nil
}

// URL returns the browser-accessible URL for ref, e.g. "/uploads/covers/abc.png".
func (s *Local) URL(ref string) string {
	return s.publicBase + "/" + ref
}
