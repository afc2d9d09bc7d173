// Package httpapi exposes the moodiary backend over REST: token-based auth,
// the path-addressed document store and voice-clip upload presigning.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/logging"
	"github.com/nchiang/moodiary/internal/server/models"
	"github.com/nchiang/moodiary/internal/server/services"
)

// UserService is the slice of the account service the handlers call.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// DocumentService is the slice of the document service the handlers call.
type DocumentService interface {
	List(ctx context.Context, userID, collection string) ([]*models.Document, error)
	Get(ctx context.Context, userID, collection, id string) (*models.Document, error)
	Set(ctx context.Context, userID string, doc *models.Document) error
	SetIfAbsent(ctx context.Context, userID string, doc *models.Document) error
	Update(ctx context.Context, userID, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, userID, collection, id string) error
}

// FileService is the slice of the presigning service the handlers call.
type FileService interface {
	GetPresignedPutURL(ctx context.Context) (string, string, error)
	GetPresignedGetURL(ctx context.Context, key string) (string, error)
}

// Handler carries the services the REST endpoints delegate to.
type Handler struct {
	users     UserService
	documents DocumentService
	files     FileService
	jwtSecret []byte
	logger    logging.Logger
}

// NewHandler constructs a Handler.
func NewHandler(users UserService, documents DocumentService, files FileService, jwtSecret []byte, logger logging.Logger) *Handler {
	return &Handler{
		users:     users,
		documents: documents,
		files:     files,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the error contract clients rely on: a JSON body
// {"error": msg} whose msg is the sentinel's exact text. The client's token
// refresh matches on the literal text of common.ErrTokenExpired.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeServiceError maps service sentinels onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, common.ErrNotFound)
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusConflict, common.ErrConflict)
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusForbidden, common.ErrUnauthorized)
	case errors.Is(err, common.ErrInvalidLoginPassword):
		writeError(w, http.StatusUnauthorized, common.ErrInvalidLoginPassword)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired)
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, common.ErrInternal)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}
