// Package avatar uploads user avatars to a third-party image host. The host
// is a plain HTTP API that accepts a multipart POST with an API key and
// answers with the public URL of the stored image.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Uploader talks to the image host.
type Uploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewUploader creates an Uploader for the image host at the given endpoint.
func NewUploader(endpoint string, apiKey string) *Uploader {
	return &Uploader{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// uploadResponse is the part of the image host's answer that we care about.
type uploadResponse struct {
	Url string `json:"url"`
}

// Upload sends the file to the image host and returns the public URL under
// which the image is now reachable.
func (u *Uploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+u.apiKey)

	response, err := u.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("uploading avatar: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("uploading avatar: image host answered %d", response.StatusCode)
	}

	var uploaded uploadResponse
	if err := json.NewDecoder(response.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decoding image host response: %w", err)
	}
	if uploaded.Url == "" {
		return "", fmt.Errorf("image host returned no URL")
	}
	return uploaded.Url, nil
}
