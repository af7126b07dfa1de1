package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore uploads to a plain object-storage HTTP endpoint: PUT the bytes
// at a path, GET serves them back at the same path.
type BlobStore struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewBlobStore(baseURL, token string) *BlobStore {
	return &BlobStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *BlobStore) Name() string { return "blobstore" }

func (b *BlobStore) Upload(ctx context.Context, r io.Reader, filename, vendorID string) (*Asset, error) {
	ext := path.Ext(filename)
	objectPath := fmt.Sprintf("products/%s/%s%s", vendorID, uuid.NewString(), ext)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.BaseURL+"/"+objectPath, r)
	if err != nil {
		return nil, err
	}
	if b.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.Token)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("blobstore upload: status %d", resp.StatusCode)
	}

	return &Asset{URL: b.BaseURL + "/" + objectPath, ID: objectPath, Provider: b.Name()}, nil
}

// UploadURL pulls the source image and re-uploads it to the store.
func (b *BlobStore) UploadURL(ctx context.Context, srcURL, vendorID string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch source image: status %d", resp.StatusCode)
	}
	return b.Upload(ctx, resp.Body, path.Base(srcURL), vendorID)
}

func (b *BlobStore) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.BaseURL+"/"+id, nil)
	if err != nil {
		return err
	}
	if b.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.Token)
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("blobstore delete: status %d", resp.StatusCode)
	}
	return nil
}
