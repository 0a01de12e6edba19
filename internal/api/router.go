package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the widget, download and maintenance routes.
func NewRouter(h *Handler, registry *Registry) http.Handler {
	router := chi.NewRouter()
	router.Use(instrument(h.log))

	router.Route("/file", func(r chi.Router) {
		r.Post("/upload", func(w http.ResponseWriter, req *http.Request) {
			registry.Get(req.FormValue("ui_library")).Upload(w, req)
		})
		r.Post("/upload/{library}", func(w http.ResponseWriter, req *http.Request) {
			registry.Get(chi.URLParam(req, "library")).Upload(w, req)
		})

		deleteFile := func(w http.ResponseWriter, req *http.Request) {
			adapter := registry.Get(req.URL.Query().Get("ui_library"))
			id, err := parseFileID(req)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "File not found"})
				return
			}
			adapter.DeleteFile(w, req, id)
		}
		r.Delete("/delete/{id}", deleteFile)
		r.Post("/delete/{id}", deleteFile)

		r.Get("/download/{id}", h.Download)
		r.Get("/settings", h.Settings)
	})

	router.Get("/health", h.Health)
	router.Handle("/metrics", promhttp.Handler())

	return router
}
