// Package api exposes the upload widgets, downloads and maintenance
// endpoints over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mwantia/godraft/internal/draft"
	"github.com/mwantia/godraft/internal/ingest"
	"github.com/mwantia/godraft/pkg/blob"
	"github.com/mwantia/godraft/pkg/db/store"
	"github.com/mwantia/godraft/pkg/log"
)

const maxMultipartMemory = 32 << 20

// Settings are passed to the browser widgets.
type Settings struct {
	Library   string   `json:"ui_library"`
	MaxSize   int64    `json:"max_size"`
	MimeTypes []string `json:"mime_types"`
	MaxFiles  int      `json:"max_files"`
}

type Handler struct {
	ingest   *ingest.Service
	drafts   *draft.Manager
	store    store.MetadataStore
	blobs    *blob.Store
	log      log.LoggerService
	settings Settings
}

func NewHandler(svc *ingest.Service, drafts *draft.Manager, s store.MetadataStore, blobs *blob.Store, logger log.LoggerService, settings Settings) *Handler {
	if settings.MimeTypes == nil {
		settings.MimeTypes = []string{}
	}
	return &Handler{
		ingest:   svc,
		drafts:   drafts,
		store:    s,
		blobs:    blobs,
		log:      logger.Named("api"),
		settings: settings,
	}
}

func downloadURL(id uint) string {
	return fmt.Sprintf("/file/download/%d", id)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func parseFileID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid file id '%s'", chi.URLParam(r, "id"))
	}
	return uint(id), nil
}

// uploadParams reads the optional context and user fields sent along with
// an upload.
func uploadParams(r *http.Request) (int64, *int64) {
	contextID := int64(1)
	if v, err := strconv.ParseInt(r.FormValue("contextid"), 10, 64); err == nil && v > 0 {
		contextID = v
	}

	var userID *int64
	if v, err := strconv.ParseInt(r.FormValue("userid"), 10, 64); err == nil && v > 0 {
		userID = &v
	}
	return contextID, userID
}

// Download streams the blob of a record. Images are shown inline, everything
// else is sent as attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseFileID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	file, err := h.store.GetFile(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to load file %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if file.IsPlaceholder() {
		http.Error(w, "Physical file not found", http.StatusNotFound)
		return
	}

	content, err := h.blobs.Open(file.ContentHash)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			http.Error(w, "Physical file not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to open blob %s of file %d: %v", file.ContentHash, id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer content.Close()

	contentType := file.Mime()
	disposition := "attachment"
	if strings.HasPrefix(contentType, "image/") {
		disposition = "inline"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": file.FileName}))
	http.ServeContent(w, r, file.FileName, time.Unix(file.TimeModified, 0), content)
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
