// Package faceclient talks to the external face recognition service over
// multipart HTTP.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type recognizeResponse struct {
	Status string `json:"status"`
	UserID uint64 `json:"user_id"`
	Detail string `json:"detail,omitempty"`
}

// Recognize uploads one image and returns the matched user id. A non
// Success status is an error: the caller must not record attendance for an
// unrecognized face.
func (c *Client) Recognize(ctx context.Context, filename string, image io.Reader) (uint64, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(fw, image); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	resp, err := c.post(ctx, "/v1/face-recognition", w.FormDataContentType(), &buf)
	if err != nil {
		return 0, fmt.Errorf("face recognition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("face recognition status %d: %s", resp.StatusCode, string(body))
	}

	var result recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("face recognition decode: %w", err)
	}
	if result.Status != "Success" {
		return 0, fmt.Errorf("face recognition failed: %s", result.Detail)
	}
	return result.UserID, nil
}

type registerResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Register enrolls a user's face images with the recognition service.
func (c *Client) Register(ctx context.Context, userID uint64, filename string, image io.Reader) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("user_id", strconv.FormatUint(userID, 10)); err != nil {
		return err
	}
	fw, err := w.CreateFormFile("files", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, image); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	resp, err := c.post(ctx, "/v1/face-register", w.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("face register: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face register status %d: %s", resp.StatusCode, string(body))
	}

	var result registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("face register decode: %w", err)
	}
	if result.Status != "Success" {
		return fmt.Errorf("face register failed: %s", result.Detail)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.http.Do(req)
}
