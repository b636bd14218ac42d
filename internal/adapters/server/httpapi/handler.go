// Package httpapi provides the REST HTTP adapter mounted under /api.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/schema"

	"github.com/evanschultz/taskflow/internal/adapters/server/common"
	"github.com/evanschultz/taskflow/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the task API subrouter.
type Handler struct {
	svc     common.TaskService
	decoder *schema.Decoder
}

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func NewHandler(svc common.TaskService) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{svc: svc, decoder: decoder}
}

// ServeHTTP routes one API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch path {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, common.MessageResponse{Message: common.RootMessage})
		return
	case "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleListTasks(w, r)
		case http.MethodPost:
			h.handleCreateTask(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	case "categories":
		switch r.Method {
		case http.MethodGet:
			h.handleListCategories(w, r)
		case http.MethodPost:
			h.handleCreateCategory(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	case "stats":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleStats(w, r)
		return
	}

	if id, ok := resourceID(path, "tasks"); ok {
		switch r.Method {
		case http.MethodGet:
			h.handleGetTask(w, r, id)
		case http.MethodPut:
			h.handleUpdateTask(w, r, id)
		case http.MethodDelete:
			h.handleDeleteTask(w, r, id)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
		return
	}
	if id, ok := resourceID(path, "categories"); ok {
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w, http.MethodDelete)
			return
		}
		h.handleDeleteCategory(w, r, id)
		return
	}
	writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "Not Found"})
}

// handleListTasks serves GET /tasks?status=&priority=&category_id=.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var filter domain.TaskFilter
	if err := h.decoder.Decode(&filter, r.URL.Query()); err != nil {
		writeErrorFrom(w, fmt.Errorf("decode query: %w", errors.Join(common.ErrInvalidRequest, err)), common.SubjectTask)
		return
	}
	tasks, err := h.svc.ListTasks(r.Context(), filter)
	if err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in domain.TaskInput
	if err := decodeJSONBody(r.Context(), w, r, &in); err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	task, err := h.svc.CreateTask(r.Context(), in)
	if err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask serves PUT /tasks/{id}. Only fields present in the body
// change.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request, id string) {
	var patch domain.TaskPatch
	if err := decodeJSONBody(r.Context(), w, r, &patch); err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	task, err := h.svc.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteTask(r.Context(), id); err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	writeJSON(w, http.StatusOK, common.MessageResponse{Message: common.TaskDeletedMessage})
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeErrorFrom(w, err, common.SubjectCategory)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.CategoryInput
	if err := decodeJSONBody(r.Context(), w, r, &in); err != nil {
		writeErrorFrom(w, err, common.SubjectCategory)
		return
	}
	category, err := h.svc.CreateCategory(r.Context(), in)
	if err != nil {
		writeErrorFrom(w, err, common.SubjectCategory)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		writeErrorFrom(w, err, common.SubjectCategory)
		return
	}
	writeJSON(w, http.StatusOK, common.MessageResponse{Message: common.CategoryDeletedMessage})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeErrorFrom(w, err, common.SubjectTask)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// resourceID parses `{collection}/{id}` and returns `{id}`.
func resourceID(path, collection string) (string, bool) {
	rest, ok := strings.CutPrefix(path, collection+"/")
	if !ok {
		return "", false
	}
	id := strings.TrimSpace(rest)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// writeErrorFrom maps service errors into {"detail": ...} responses.
func writeErrorFrom(w http.ResponseWriter, err error, subject common.Subject) {
	failure := common.Describe(err, subject)
	status := http.StatusInternalServerError
	switch failure.Kind {
	case common.FailureNotFound:
		status = http.StatusNotFound
	case common.FailureBadRequest:
		status = http.StatusBadRequest
	case common.FailureInvalid:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ErrorResponse{Detail: failure.Detail})
}

// writeMethodNotAllowed writes a 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Detail: "Method Not Allowed"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"detail":%q}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body. Unknown fields are
// ignored; trailing content is rejected.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
