package images

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubProvider struct {
	name  string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Upload(ctx context.Context, r io.Reader, filename, vendorID string) (*Asset, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &Asset{URL: "https://" + p.name + "/img.png", ID: "img.png", Provider: p.name}, nil
}

func (p *stubProvider) UploadURL(ctx context.Context, srcURL, vendorID string) (*Asset, error) {
	return p.Upload(ctx, nil, "", vendorID)
}

func (p *stubProvider) Delete(ctx context.Context, id string) error { return p.err }

func TestUploadPrefersPrimary(t *testing.T) {
	primary := &stubProvider{name: "primary"}
	fallback := &stubProvider{name: "fallback"}
	u := &Uploader{Primary: primary, Fallback: fallback}

	asset, err := u.Upload(context.Background(), strings.NewReader("png"), "img.png", "v1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.Provider != "primary" {
		t.Errorf("provider = %q, want primary", asset.Provider)
	}
	if fallback.calls != 0 {
		t.Error("fallback should not be tried when primary succeeds")
	}
}

func TestUploadFallsBackWhenPrimaryFails(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("quota exceeded")}
	fallback := &stubProvider{name: "fallback"}
	u := &Uploader{Primary: primary, Fallback: fallback}

	asset, err := u.Upload(context.Background(), strings.NewReader("png"), "img.png", "v1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.Provider != "fallback" {
		t.Errorf("provider = %q, want fallback", asset.Provider)
	}
}

func TestUploadReportsBothFailures(t *testing.T) {
	u := &Uploader{
		Primary:  &stubProvider{name: "primary", err: errors.New("down")},
		Fallback: &stubProvider{name: "fallback", err: errors.New("also down")},
	}

	if _, err := u.Upload(context.Background(), strings.NewReader("png"), "img.png", "v1"); !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("got %v, want ErrAllProvidersFailed", err)
	}
}

func TestDeleteRoutesToOwningProvider(t *testing.T) {
	primary := &stubProvider{name: "primary"}
	fallback := &stubProvider{name: "fallback"}
	u := &Uploader{Primary: primary, Fallback: fallback}

	if err := u.Delete(context.Background(), &Asset{ID: "x", Provider: "fallback"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := u.Delete(context.Background(), &Asset{ID: "x", Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestCloudinaryUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/image/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("upload_preset"); got != "unsigned" {
			t.Errorf("upload_preset = %q", got)
		}
		if got := r.FormValue("folder"); got != "products/v1" {
			t.Errorf("folder = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example/img.png","public_id":"products/v1/img"}`))
	}))
	defer srv.Close()

	c := NewCloudinary(srv.URL, "unsigned", "")
	asset, err := c.Upload(context.Background(), strings.NewReader("png-bytes"), "img.png", "v1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.URL != "https://cdn.example/img.png" || asset.ID != "products/v1/img" {
		t.Errorf("asset = %+v", asset)
	}
}

func TestBlobStoreUpload(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	b := NewBlobStore(srv.URL, "")
	asset, err := b.Upload(context.Background(), strings.NewReader("png"), "photo.png", "v1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(gotPath, "/products/v1/") || !strings.HasSuffix(gotPath, ".png") {
		t.Errorf("object path = %q", gotPath)
	}
	if asset.Provider != "blobstore" {
		t.Errorf("provider = %q", asset.Provider)
	}
}
