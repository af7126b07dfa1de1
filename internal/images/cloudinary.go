package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cloudinary uploads through Cloudinary's unsigned upload API.
type Cloudinary struct {
	BaseURL      string // https://api.cloudinary.com/v1_1/<cloud_name>
	UploadPreset string
	Folder       string
	Client       *http.Client
}

func NewCloudinary(baseURL, uploadPreset, folder string) *Cloudinary {
	return &Cloudinary{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		UploadPreset: uploadPreset,
		Folder:       folder,
		Client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Cloudinary) Name() string { return "cloudinary" }

// Configured reports whether the provider can be used at all.
func (c *Cloudinary) Configured() bool {
	return c.BaseURL != "" && c.UploadPreset != ""
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

func (c *Cloudinary) Upload(ctx context.Context, r io.Reader, filename, vendorID string) (*Asset, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	_ = w.WriteField("upload_preset", c.UploadPreset)
	_ = w.WriteField("folder", c.folderFor(vendorID))
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/image/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *Cloudinary) UploadURL(ctx context.Context, srcURL, vendorID string) (*Asset, error) {
	form := url.Values{}
	form.Set("file", srcURL)
	form.Set("upload_preset", c.UploadPreset)
	form.Set("folder", c.folderFor(vendorID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/image/upload", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Cloudinary) Delete(ctx context.Context, id string) error {
	form := url.Values{}
	form.Set("public_id", id)
	form.Set("upload_preset", c.UploadPreset)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/image/destroy", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("cloudinary destroy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Cloudinary) do(req *http.Request) (*Asset, error) {
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cloudinary upload: status %d", resp.StatusCode)
	}

	var cr cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}
	if cr.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload: empty secure_url")
	}
	return &Asset{URL: cr.SecureURL, ID: cr.PublicID, Provider: c.Name()}, nil
}

func (c *Cloudinary) folderFor(vendorID string) string {
	if c.Folder == "" {
		return "products/" + vendorID
	}
	return c.Folder + "/" + vendorID
}
