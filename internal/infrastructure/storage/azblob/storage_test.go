package azblob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

type blobFake struct {
	container string
	blobs     map[string][]byte
}

func (f *blobFake) UploadStream(_ context.Context, container, name string, body io.Reader, _ *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error) {
	f.container = container
	data, err := io.ReadAll(body)
	if err != nil {
		return azblob.UploadStreamResponse{}, err
	}
	f.blobs[name] = data
	return azblob.UploadStreamResponse{}, nil
}

func (f *blobFake) DownloadStream(_ context.Context, _ string, name string, _ *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error) {
	var resp azblob.DownloadStreamResponse
	resp.Body = io.NopCloser(bytes.NewReader(f.blobs[name]))
	return resp, nil
}

func TestSaveAndOpenUsePrefixedBlobNames(t *testing.T) {
	fake := &blobFake{blobs: map[string][]byte{}}
	store := newWithClient(fake, "documents", "/docai/")
	ctx := context.Background()

	if err := store.Save(ctx, "uploads/abc_invoice.png", strings.NewReader("img")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, ok := fake.blobs["docai/uploads/abc_invoice.png"]; !ok || fake.container != "documents" {
		t.Fatalf("unexpected blobs %v in %q", fake.blobs, fake.container)
	}

	rc, err := store.Open(ctx, "uploads/abc_invoice.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "img" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := newWithClient(&blobFake{blobs: map[string][]byte{}}, "c", "")
	if err := store.Save(context.Background(), "../x", strings.NewReader("")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
