package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/mwantia/godraft/internal/draft"
	"github.com/mwantia/godraft/internal/ingest"
	"github.com/mwantia/godraft/pkg/db/models"
)

const (
	FineUploader     = "fineuploader"
	Dropzone         = "dropzone"
	JQueryFileUpload = "jquery_file_upload"
	Plupload         = "plupload"
	Uploadify        = "uploadify"
	Bluimp           = "bluimp"
)

// Adapter speaks the request and response protocol of one upload widget.
type Adapter interface {
	Library() string
	Upload(w http.ResponseWriter, r *http.Request)
	DeleteFile(w http.ResponseWriter, r *http.Request, id uint)
}

// widget describes a protocol: the multipart fields searched for the file in
// order and the bodies written on success and failure.
type widget struct {
	library string
	fields  []string
	success func(r *http.Request, file *models.File) any
	failure func(r *http.Request, message string, status int) any
}

type widgetAdapter struct {
	widget
	handler *Handler
}

var widgets = []widget{
	{
		library: FineUploader,
		fields:  []string{"qqfile", "file"},
		success: func(r *http.Request, file *models.File) any {
			return map[string]any{
				"success":     true,
				"uuid":        formatID(file.ID),
				"name":        file.FileName,
				"size":        file.FileSize,
				"draftitemid": file.ItemID,
			}
		},
		failure: successFalse,
	},
	{
		library: Dropzone,
		fields:  []string{"file"},
		success: func(r *http.Request, file *models.File) any {
			return map[string]any{
				"id":          file.ID,
				"name":        file.FileName,
				"size":        file.FileSize,
				"url":         downloadURL(file.ID),
				"draftitemid": file.ItemID,
			}
		},
		failure: plainError,
	},
	{
		library: Plupload,
		fields:  []string{"file"},
		success: func(r *http.Request, file *models.File) any {
			return map[string]any{
				"jsonrpc": "2.0",
				"result": map[string]any{
					"name":        file.FileName,
					"size":        file.FileSize,
					"url":         downloadURL(file.ID),
					"draftitemid": file.ItemID,
				},
				"id": requestID(r),
			}
		},
		failure: func(r *http.Request, message string, status int) any {
			return map[string]any{
				"jsonrpc": "2.0",
				"error": map[string]any{
					"code":    status,
					"message": message,
				},
				"id": requestID(r),
			}
		},
	},
	{
		library: JQueryFileUpload,
		fields:  []string{"files", "files[]", "file"},
		success: fileList,
		failure: plainError,
	},
	{
		library: Bluimp,
		fields:  []string{"files", "files[]", "file"},
		success: fileList,
		failure: plainError,
	},
	{
		library: Uploadify,
		fields:  []string{"Filedata", "file"},
		success: func(r *http.Request, file *models.File) any {
			return map[string]any{
				"success":     true,
				"name":        file.FileName,
				"size":        file.FileSize,
				"url":         downloadURL(file.ID),
				"draftitemid": file.ItemID,
			}
		},
		failure: successFalse,
	},
}

// DefaultAdapters returns one adapter per supported widget.
func DefaultAdapters(h *Handler) []Adapter {
	adapters := make([]Adapter, 0, len(widgets))
	for _, w := range widgets {
		adapters = append(adapters, &widgetAdapter{widget: w, handler: h})
	}
	return adapters
}

func (a *widgetAdapter) Library() string {
	return a.library
}

func (a *widgetAdapter) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, a.failure(r, "No file uploaded", http.StatusBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	header := a.findFile(r)
	if header == nil {
		writeJSON(w, http.StatusBadRequest, a.failure(r, "No file uploaded", http.StatusBadRequest))
		return
	}

	content, err := header.Open()
	if err != nil {
		a.handler.log.Error("Failed to open uploaded part '%s': %v", header.Filename, err)
		writeJSON(w, http.StatusInternalServerError, a.failure(r, "Internal server error", http.StatusInternalServerError))
		return
	}
	defer content.Close()

	contextID, userID := uploadParams(r)
	file, err := a.handler.ingest.IngestDraft(r.Context(), ingest.Upload{
		Reader:   content,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
	}, contextID, userID)
	if err != nil {
		message, _ := ingest.Describe(err)
		status := http.StatusInternalServerError
		if ingest.IsValidation(err) {
			status = http.StatusBadRequest
		} else {
			a.handler.log.Error("Upload of '%s' via %s failed: %v", header.Filename, a.library, err)
		}
		writeJSON(w, status, a.failure(r, message, status))
		return
	}

	writeJSON(w, http.StatusOK, a.success(r, file))
}

func (a *widgetAdapter) DeleteFile(w http.ResponseWriter, r *http.Request, id uint) {
	if err := a.handler.drafts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, draft.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, a.failure(r, "File not found", http.StatusNotFound))
			return
		}
		a.handler.log.Error("Failed to delete file %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, a.failure(r, "Internal server error", http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *widgetAdapter) findFile(r *http.Request) *multipart.FileHeader {
	for _, field := range a.fields {
		if headers := r.MultipartForm.File[field]; len(headers) > 0 {
			return headers[0]
		}
	}
	return nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func fileList(r *http.Request, file *models.File) any {
	entry := map[string]any{
		"name":        file.FileName,
		"size":        file.FileSize,
		"url":         downloadURL(file.ID),
		"draftitemid": file.ItemID,
	}
	if strings.HasPrefix(file.Mime(), "image/") {
		entry["thumbnailUrl"] = downloadURL(file.ID)
	}
	return []map[string]any{entry}
}

func successFalse(r *http.Request, message string, status int) any {
	return map[string]any{
		"success": false,
		"error":   message,
	}
}

func plainError(r *http.Request, message string, status int) any {
	return map[string]any{
		"error": message,
	}
}

func requestID(r *http.Request) string {
	if id := r.FormValue("id"); id != "" {
		return id
	}
	return "id"
}
