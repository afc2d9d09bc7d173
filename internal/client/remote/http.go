package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/common"
)

// HTTPStore is the HTTP implementation of Store. It attaches the bearer
// access token to every request and transparently refreshes it once when the
// backend reports the token expired; concurrent callers share a single
// refresh round trip.
type HTTPStore struct {
	endpointURL string
	client      *http.Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string

	refreshGroup singleflight.Group
}

// NewHTTPStore returns a store talking to the backend at endpointURL.
func NewHTTPStore(endpointURL string) *HTTPStore {
	return &HTTPStore{
		endpointURL: endpointURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// SetTokens installs a token pair, e.g. restored from the local session file.
func (s *HTTPStore) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

// Tokens returns the current token pair.
func (s *HTTPStore) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

type errorResponse struct {
	Error string `json:"error"`
}

// doJSON performs one authenticated request, refreshing the access token and
// retrying exactly once when the server reports it expired. When out is
// non-nil the response body is decoded into it.
func (s *HTTPStore) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, errMsg, err := s.roundTrip(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && errMsg == common.ErrTokenExpired.Error() {
		if err := s.refresh(ctx); err != nil {
			return err
		}
		resp, errMsg, err = s.roundTrip(ctx, method, path, body, out)
		if err != nil {
			return err
		}
	}
	return mapStatus(resp.StatusCode, errMsg)
}

func (s *HTTPStore) roundTrip(ctx context.Context, method, path string, body any, out any) (*http.Response, string, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("%w: encode request: %v", common.ErrInternal, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpointURL+path, reader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if access, _ := s.Tokens(); access != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+access)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return resp, er.Error, nil
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, "", fmt.Errorf("%w: decode response: %v", common.ErrInternal, err)
		}
	}
	return resp, "", nil
}

// refresh exchanges the refresh token for a new pair. Concurrent expiries
// collapse into one request; every waiter observes the same outcome.
func (s *HTTPStore) refresh(ctx context.Context) error {
	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		_, refreshToken := s.Tokens()
		if refreshToken == "" {
			return nil, common.ErrUnauthorized
		}

		var tr tokenResponse
		resp, errMsg, err := s.roundTrip(ctx, http.MethodPost, "/api/auth/refresh",
			map[string]string{"refreshToken": refreshToken}, &tr)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			if errMsg == common.ErrRefreshTokenExpired.Error() {
				return nil, common.ErrRefreshTokenExpired
			}
			return nil, mapStatus(resp.StatusCode, errMsg)
		}
		s.SetTokens(tr.AccessToken, tr.RefreshToken)
		return nil, nil
	})
	return err
}

func mapStatus(code int, msg string) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusNotFound:
		return common.ErrNotFound
	case code == http.StatusConflict:
		return common.ErrConflict
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return common.ErrUnauthorized
	case code >= 500:
		return fmt.Errorf("%w: server status %d: %s", common.ErrUnavailable, code, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", common.ErrInternal, code, msg)
	}
}

func collectionURL(path string) string {
	return "/api/docs/" + url.PathEscape(path)
}

func documentURL(path, id string) string {
	return collectionURL(path) + "/" + url.PathEscape(id)
}

type listResponse struct {
	Documents []models.RawDocument `json:"documents"`
}

// ReadCollection lists the documents at path ordered by date descending.
func (s *HTTPStore) ReadCollection(ctx context.Context, path string) ([]models.RawDocument, error) {
	var lr listResponse
	if err := s.doJSON(ctx, http.MethodGet, collectionURL(path)+"?orderBy=date&dir=desc", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Documents == nil {
		lr.Documents = []models.RawDocument{}
	}
	return lr.Documents, nil
}

// Get fetches one document.
func (s *HTTPStore) Get(ctx context.Context, path string, id string) (models.RawDocument, error) {
	var doc models.RawDocument
	if err := s.doJSON(ctx, http.MethodGet, documentURL(path, id), nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Set overwrites the document at path/id.
func (s *HTTPStore) Set(ctx context.Context, path string, id string, doc models.RawDocument) error {
	return s.doJSON(ctx, http.MethodPut, documentURL(path, id), doc, nil)
}

// SetIfAbsent creates the document only when the id is unused.
func (s *HTTPStore) SetIfAbsent(ctx context.Context, path string, id string, doc models.RawDocument) error {
	return s.doJSON(ctx, http.MethodPost, documentURL(path, id), doc, nil)
}

// Update merges fields into an existing document.
func (s *HTTPStore) Update(ctx context.Context, path string, id string, fields map[string]any) error {
	return s.doJSON(ctx, http.MethodPatch, documentURL(path, id), fields, nil)
}

// Delete removes the document; absent ids succeed.
func (s *HTTPStore) Delete(ctx context.Context, path string, id string) error {
	err := s.doJSON(ctx, http.MethodDelete, documentURL(path, id), nil, nil)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

// Ping probes the unauthenticated health endpoint.
func (s *HTTPStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpointURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", common.ErrUnavailable, resp.StatusCode)
	}
	return nil
}
