package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/nchiang/moodiary/internal/server/models"
)

// collectionParam extracts the collection path from the URL. Clients send the
// whole path as one percent-escaped segment (slashes as %2F), so the routed
// parameter still carries the escaping and must be decoded here.
func collectionParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "collection")
	collection, err := url.PathUnescape(raw)
	if err != nil || collection == "" {
		return "", errors.New("invalid collection path")
	}
	return collection, nil
}

func documentParams(r *http.Request) (collection, id string, err error) {
	collection, err = collectionParam(r)
	if err != nil {
		return "", "", err
	}
	id, err = url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		return "", "", errors.New("invalid document id")
	}
	return collection, id, nil
}

type listResponse struct {
	Documents []map[string]any `json:"documents"`
}

// ListDocumentsHandler returns every document of a collection, newest first.
func (h *Handler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	collection, err := collectionParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	docs, err := h.documents.List(r.Context(), UserIDFromContext(r.Context()), collection)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := listResponse{Documents: make([]map[string]any, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, d.Data)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDocumentHandler returns one document's data.
func (h *Handler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	collection, id, err := documentParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	doc, err := h.documents.Get(r.Context(), UserIDFromContext(r.Context()), collection, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.Data)
}

// SetDocumentHandler creates or fully replaces a document.
func (h *Handler) SetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	collection, id, err := documentParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var data map[string]any
	if !decodeBody(w, r, &data) {
		return
	}

	doc := &models.Document{Collection: collection, ID: id, Data: data}
	if err := h.documents.Set(r.Context(), UserIDFromContext(r.Context()), doc); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateDocumentHandler creates a document only when the id is free; an
// occupied id answers 409 without touching the stored document.
func (h *Handler) CreateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	collection, id, err := documentParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var data map[string]any
	if !decodeBody(w, r, &data) {
		return
	}

	doc := &models.Document{Collection: collection, ID: id, Data: data}
	if err := h.documents.SetIfAbsent(r.Context(), UserIDFromContext(r.Context()), doc); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// UpdateDocumentHandler merges fields into an existing document.
func (h *Handler) UpdateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	collection, id, err := documentParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var fields map[string]any
	if !decodeBody(w, r, &fields) {
		return
	}

	if err := h.documents.Update(r.Context(), UserIDFromContext(r.Context()), collection, id, fields); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteDocumentHandler removes a document permanently.
func (h *Handler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	collection, id, err := documentParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.documents.Delete(r.Context(), UserIDFromContext(r.Context()), collection, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
