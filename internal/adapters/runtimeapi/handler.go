// Package runtimeapi bridges sandboxed content frames to runtime sessions.
// Content cannot receive constructor arguments, so the conventional global
// API objects are installed by an embedded JS adapter that relays each call
// synchronously to the per-session endpoints served here.
package runtimeapi

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"scormhost/internal/runtime"
)

const (
	sessionsPrefix = "/api/v1/runtime/sessions"
	adapterRoute   = "/runtime/adapter.js"
)

//go:embed adapter.js
var adapterScript []byte

// Handler routes runtime protocol calls to registered session models.
type Handler struct {
	Manager *runtime.Manager
}

// NewHandler constructs a runtime HTTP handler.
func NewHandler(manager *runtime.Manager) *Handler {
	return &Handler{Manager: manager}
}

type callRequest struct {
	Parameter string `json:"parameter"`
	Element   string `json:"element"`
	Value     string `json:"value"`
}

type callResponse struct {
	Result string `json:"result"`
}

type createRequest struct {
	SessionID string `json:"session_id"`
	PackageID string `json:"package_id"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Manager == nil {
		writeError(w, http.StatusInternalServerError, "session manager not configured")
		return
	}

	p := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && p == adapterRoute:
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write(adapterScript)
	case r.Method == http.MethodPost && p == sessionsPrefix:
		h.handleCreate(w, r)
	case strings.HasPrefix(p, sessionsPrefix+"/"):
		h.handleSession(w, r, strings.TrimPrefix(p, sessionsPrefix+"/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session request payload")
		return
	}
	dm, err := h.Manager.CreateSession(r.Context(), req.SessionID, req.PackageID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": dm.SessionID(),
		"package_id": dm.PackageID(),
		"entry":      dm.SessionData().DataModel["cmi.entry"],
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request, remainder string) {
	sessionID, op, _ := strings.Cut(remainder, "/")
	if sessionID == "" {
		http.NotFound(w, r)
		return
	}

	if op == "" {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !h.Manager.RemoveSession(sessionID) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": sessionID})
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	dm, ok := h.Manager.GetSession(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid call payload")
		return
	}

	// Protocol failures are expressed through the result value and
	// GetLastError, never as transport-level errors.
	var result string
	switch op {
	case "Initialize":
		result = dm.Initialize(req.Parameter)
	case "Terminate":
		result = dm.Terminate(req.Parameter)
	case "GetValue":
		result = dm.GetValue(req.Element)
	case "SetValue":
		result = dm.SetValue(req.Element, req.Value)
	case "Commit":
		result = dm.Commit(req.Parameter)
	case "GetLastError":
		result = dm.GetLastError()
	case "GetErrorString":
		result = dm.GetErrorString(req.Parameter)
	case "GetDiagnostic":
		result = dm.GetDiagnostic(req.Parameter)
	default:
		writeError(w, http.StatusNotFound, "unknown operation "+op)
		return
	}
	writeJSON(w, http.StatusOK, callResponse{Result: result})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
