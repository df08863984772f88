package disk

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dejobratic/cosrent/internal/rental/ports"
)

func TestUploadWritesFile(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}

	ref, err := store.Upload(context.Background(), "bk-1", ports.ProofUpload{
		Filename:    "slip.png",
		ContentType: "image/png",
		Body:        strings.NewReader("png-bytes"),
	})
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if !strings.HasPrefix(ref, "bk-1/") || !strings.HasSuffix(ref, ".png") {
		t.Errorf("unexpected ref %q", ref)
	}

	f, err := store.Open(ref)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer f.Close()
	content, _ := io.ReadAll(f)
	if string(content) != "png-bytes" {
		t.Errorf("unexpected content %q", content)
	}
}

func TestUploadRejects(t *testing.T) {
	store, err := NewStore(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}

	tests := []struct {
		name      string
		bookingID string
		upload    ports.ProofUpload
	}{
		{
			name:      "unsupported type",
			bookingID: "bk-1",
			upload:    ports.ProofUpload{ContentType: "application/zip", Body: strings.NewReader("zip")},
		},
		{
			name:      "too large",
			bookingID: "bk-1",
			upload:    ports.ProofUpload{ContentType: "image/jpeg", Body: bytes.NewReader(make([]byte, 5))},
		},
		{
			name:      "empty",
			bookingID: "bk-1",
			upload:    ports.ProofUpload{ContentType: "image/jpeg", Body: strings.NewReader("")},
		},
		{
			name:      "path traversal",
			bookingID: "../bk-1",
			upload:    ports.ProofUpload{ContentType: "image/jpeg", Body: strings.NewReader("abc")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Upload(context.Background(), tt.bookingID, tt.upload); err == nil {
				t.Error("expected error")
			}
		})
	}
}
