// Package images uploads product images to a hosting provider, with a
// configurable primary and a fallback tried when the primary fails.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
)

// Asset is a hosted image: the public URL plus the provider-specific id
// needed to delete it later.
type Asset struct {
	URL      string `json:"url"`
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

type Provider interface {
	Name() string
	Upload(ctx context.Context, r io.Reader, filename, vendorID string) (*Asset, error)
	UploadURL(ctx context.Context, srcURL, vendorID string) (*Asset, error)
	Delete(ctx context.Context, id string) error
}

var ErrAllProvidersFailed = errors.New("image upload failed with all providers")

type Uploader struct {
	Primary  Provider
	Fallback Provider // optional
}

// Upload stores the image with the primary provider, falling back to the
// secondary when the primary fails.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, filename, vendorID string) (*Asset, error) {
	return u.attempt(ctx, func(p Provider) (*Asset, error) {
		return p.Upload(ctx, r, filename, vendorID)
	})
}

// UploadFromURL fetch-and-stores an image that already lives at a URL.
func (u *Uploader) UploadFromURL(ctx context.Context, srcURL, vendorID string) (*Asset, error) {
	return u.attempt(ctx, func(p Provider) (*Asset, error) {
		return p.UploadURL(ctx, srcURL, vendorID)
	})
}

func (u *Uploader) attempt(ctx context.Context, do func(Provider) (*Asset, error)) (*Asset, error) {
	asset, primaryErr := do(u.Primary)
	if primaryErr == nil {
		return asset, nil
	}
	if u.Fallback == nil {
		return nil, primaryErr
	}

	log.Printf("%s upload failed, falling back to %s: %v", u.Primary.Name(), u.Fallback.Name(), primaryErr)
	asset, fallbackErr := do(u.Fallback)
	if fallbackErr == nil {
		return asset, nil
	}
	return nil, fmt.Errorf("%w: %s: %v; %s: %v",
		ErrAllProvidersFailed, u.Primary.Name(), primaryErr, u.Fallback.Name(), fallbackErr)
}

// Delete removes a previously uploaded asset from the provider that hosts
// it.
func (u *Uploader) Delete(ctx context.Context, asset *Asset) error {
	for _, p := range []Provider{u.Primary, u.Fallback} {
		if p != nil && p.Name() == asset.Provider {
			return p.Delete(ctx, asset.ID)
		}
	}
	return fmt.Errorf("unknown image provider %q", asset.Provider)
}
