// Package packagesapi exposes the upload boundary and package catalog over
// HTTP.
package packagesapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"scormhost/internal/blob"
	"scormhost/internal/packages"
	"scormhost/internal/validation"
)

const routePrefix = "/api/v1/packages"

// maxUploadBytes caps the multipart body before the pipeline sees it; the
// validator applies the package-level ceiling again.
const maxUploadBytes = validation.DefaultMaxPackageBytes + (1 << 20)

// Handler provides HTTP access to the package pipeline.
type Handler struct {
	Service *packages.Service
}

// NewHandler constructs a package HTTP handler.
func NewHandler(service *packages.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "package service not configured")
		return
	}

	p := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodPost && p == routePrefix:
		h.handleUpload(w, r)
	case strings.HasPrefix(p, routePrefix+"/"):
		h.handlePackage(w, r, strings.TrimPrefix(p, routePrefix+"/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handlePackage(w http.ResponseWriter, r *http.Request, remainder string) {
	id, rest, _ := strings.Cut(remainder, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if filePath, ok := strings.CutPrefix(rest, "content/"); ok && r.Method == http.MethodGet {
		h.handleContent(w, r, id, filePath)
		return
	}
	http.NotFound(w, r)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "upload requires a file field")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.EqualFold(path.Ext(header.Filename), ".zip") {
		writeError(w, http.StatusBadRequest, "only .zip package archives are accepted")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	record, result, err := h.Service.Upload(r.Context(), packages.UploadInput{
		FileName: header.Filename,
		Title:    r.FormValue("title"),
		CourseID: r.FormValue("course_id"),
		Content:  content,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "package processing failed")
		return
	}
	if !result.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"validation": result})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"package": record, "validation": result})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	record, ok, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"package": record})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	existed, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request, id, filePath string) {
	record, ok, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}
	rc, err := h.Service.OpenContent(r.Context(), record, filePath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer func() { _ = rc.Close() }()
	if ct := mime.TypeByExtension(path.Ext(filePath)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	_, _ = io.Copy(w, rc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
