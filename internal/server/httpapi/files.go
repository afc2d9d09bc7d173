package httpapi

import (
	"errors"
	"net/http"
)

type presignRequest struct {
	FileName string `json:"fileName"`
}

type presignResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignUploadHandler mints a short-lived direct-upload URL for a voice
// clip. The clip bytes go straight to object storage, never through here.
func (h *Handler) PresignUploadHandler(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FileName == "" {
		writeError(w, http.StatusBadRequest, errors.New("fileName is required"))
		return
	}

	key, url, err := h.files.GetPresignedPutURL(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presignResponse{URL: url, Key: key})
}

// PresignDownloadHandler returns a short-lived GET URL for a stored clip.
func (h *Handler) PresignDownloadHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, errors.New("key is required"))
		return
	}

	url, err := h.files.GetPresignedGetURL(r.Context(), key)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presignResponse{URL: url, Key: key})
}
