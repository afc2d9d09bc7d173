package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/nchiang/moodiary/internal/common"
)

type presignResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignUpload asks the backend for a short-lived direct-upload URL for a
// voice clip and returns it with the object key to reference from the entry.
func (s *HTTPStore) PresignUpload(ctx context.Context, fileName string) (uploadURL, key string, err error) {
	var pr presignResponse
	err = s.doJSON(ctx, http.MethodPost, "/api/files/presign",
		map[string]string{"fileName": fileName}, &pr)
	if err != nil {
		return "", "", err
	}
	return pr.URL, pr.Key, nil
}

// UploadToPresignedURL PUTs the raw bytes straight to object storage,
// bypassing the backend.
func (s *HTTPStore) UploadToPresignedURL(ctx context.Context, uploadURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: upload failed: %s", common.ErrUnavailable, resp.Status)
	}
	return nil
}
