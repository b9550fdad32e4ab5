package uploader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client pushes capture artifacts to the store's object storage and
// hands back the public URL.
type Client struct {
	endpoint string
	deviceID string
	http     *http.Client
}

func New(endpoint, deviceID string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		deviceID: deviceID,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload PUTs the local file under <bucket>/<device_id>/<basename>.
func (c *Client) Upload(ctx context.Context, bucket, localPath string) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("no storage endpoint configured")
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}

	object := fmt.Sprintf("%s/%s/%s", bucket, c.deviceID, filepath.Base(localPath))
	url := fmt.Sprintf("%s/storage/v1/object/%s", c.endpoint, object)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload %s: status %d", object, resp.StatusCode)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s", c.endpoint, object), nil
}
