package ports

import (
	"context"
	"io"
)

// ProofUpload is a binary proof-of-payment image on its way to object storage.
type ProofUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ProofStore persists proof images and hands back an opaque reference.
type ProofStore interface {
	Upload(ctx context.Context, bookingID string, upload ProofUpload) (string, error)
}
