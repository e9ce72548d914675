// Package azblob stores documents and artifacts in an Azure Blob Storage container.
package azblob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

// blobAPI is the part of *azblob.Client the storage uses.
type blobAPI interface {
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

type Storage struct {
	client    blobAPI
	container string
	prefix    string
}

type Config struct {
	AccountName string
	AccountKey  string
	// ServiceURL overrides https://<account>.blob.core.windows.net, e.g. for Azurite.
	ServiceURL string
	Container  string
	Prefix     string
}

func New(cfg Config) (*Storage, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" || cfg.Container == "" {
		return nil, fmt.Errorf("azblob: account name, key and container are required")
	}
	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("azblob credential: %w", err)
	}
	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("azblob client: %w", err)
	}
	return newWithClient(client, cfg.Container, cfg.Prefix), nil
}

func newWithClient(client blobAPI, container, prefix string) *Storage {
	return &Storage{client: client, container: container, prefix: strings.Trim(prefix, "/")}
}

func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	name, err := s.blobName(key)
	if err != nil {
		return err
	}
	if _, err := s.client.UploadStream(ctx, s.container, name, data, nil); err != nil {
		return fmt.Errorf("upload blob %s: %w", name, err)
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	name, err := s.blobName(key)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "open blob", fmt.Errorf("%s: %w", name, err))
		}
		return nil, fmt.Errorf("download blob %s: %w", name, err)
	}
	return resp.Body, nil
}

func (s *Storage) blobName(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve blob key", fmt.Errorf("key=%q", key))
	}
	if s.prefix == "" {
		return key, nil
	}
	return s.prefix + "/" + key, nil
}
