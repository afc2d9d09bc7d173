package remote

import (
	"context"
	"errors"
	"net/http"

	"github.com/nchiang/moodiary/internal/common"
)

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

// Register creates an account and returns the new user id. The password
// never leaves the client in any other form; the server hashes it at rest.
func (s *HTTPStore) Register(ctx context.Context, email, password string) (string, error) {
	var tr tokenResponse
	err := s.doJSON(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": password}, &tr)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return "", common.ErrConflict
		}
		return "", err
	}
	return tr.UserID, nil
}

// Login authenticates, installs the returned token pair and returns the
// user id the sync layer keys collections by.
func (s *HTTPStore) Login(ctx context.Context, email, password string) (string, error) {
	var tr tokenResponse
	err := s.doJSON(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &tr)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return "", common.ErrInvalidLoginPassword
		}
		return "", err
	}
	s.SetTokens(tr.AccessToken, tr.RefreshToken)
	return tr.UserID, nil
}

// Logout drops the local token pair.
func (s *HTTPStore) Logout() {
	s.SetTokens("", "")
}
