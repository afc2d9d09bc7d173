package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the REST endpoints. Document collection paths travel as a
// single escaped URL segment, so {collection} matches exactly one segment.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)
		r.Post("/auth/refresh", h.RefreshHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Token-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/docs/{collection}", h.ListDocumentsHandler)
			r.Get("/docs/{collection}/{id}", h.GetDocumentHandler)
			r.Put("/docs/{collection}/{id}", h.SetDocumentHandler)
			r.Post("/docs/{collection}/{id}", h.CreateDocumentHandler)
			r.Patch("/docs/{collection}/{id}", h.UpdateDocumentHandler)
			r.Delete("/docs/{collection}/{id}", h.DeleteDocumentHandler)

			r.Post("/files/presign", h.PresignUploadHandler)
			r.Get("/files/presign", h.PresignDownloadHandler)
		})
	})

	return r
}
