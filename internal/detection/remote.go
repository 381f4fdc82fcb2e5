package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"festival-cleanup-backend/internal/config"
)

// remoteClient calls a hosted inference endpoint. One bounded attempt, no
// automatic retry; a failure makes the router fall back to the local model.
type remoteClient struct {
	cfg    config.RemoteDetectionConfig
	client *http.Client
}

func newRemoteClient(cfg config.RemoteDetectionConfig) *remoteClient {
	return &remoteClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RemoteTimeout()},
	}
}

// Detect uploads the image and returns the normalized detection list.
func (c *remoteClient) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"imgsz": strconv.Itoa(c.cfg.ImageSize),
		"conf":  strconv.FormatFloat(c.cfg.Confidence, 'f', -1, 64),
		"iou":   strconv.FormatFloat(c.cfg.IoU, 'f', -1, 64),
	}
	if c.cfg.Model != "" {
		fields["model"] = c.cfg.Model
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote inference call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote inference returned status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode remote payload: %w", err)
	}

	return parsePayload(payload), nil
}
