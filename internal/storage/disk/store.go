package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dejobratic/cosrent/internal/rental/ports"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store writes proof images under a local directory. It backs single-node
// deployments that have no object store configured.
type Store struct {
	root     string
	maxBytes int64
}

func NewStore(root string, maxBytes int64) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

// Upload stores the image as <root>/<bookingID>/<uuid><ext> and returns the
// slash-separated path relative to root.
func (s *Store) Upload(ctx context.Context, bookingID string, upload ports.ProofUpload) (string, error) {
	ext, ok := extensions[upload.ContentType]
	if !ok {
		return "", fmt.Errorf("unsupported proof content type %q", upload.ContentType)
	}
	if bookingID == "" || strings.ContainsAny(bookingID, `/\`) || bookingID == "." || bookingID == ".." {
		return "", fmt.Errorf("invalid booking id %q", bookingID)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, bookingID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create booking directory: %w", err)
	}

	name := uuid.NewString() + ext
	full := filepath.Join(dir, name)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create proof file: %w", err)
	}

	body := upload.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(body, s.maxBytes+1)
	}
	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = fmt.Errorf("proof exceeds %d bytes", s.maxBytes)
	}
	if err == nil && n == 0 {
		err = errors.New("proof is empty")
	}
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("write proof: %w", err)
	}

	return path.Join(bookingID, name), nil
}

// Open returns a reader for a reference produced by Upload.
func (s *Store) Open(ref string) (*os.File, error) {
	clean := path.Clean("/" + ref)
	return os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
}
