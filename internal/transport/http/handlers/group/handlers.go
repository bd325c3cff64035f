package grouphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workervoucher/internal/domain/audit"
	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/group"
	"workervoucher/internal/domain/worker"
	"workervoucher/internal/transport/http/api"
	"workervoucher/internal/transport/http/middleware"
	"workervoucher/internal/transport/http/shared"
)

type Handler struct {
	Service *group.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *group.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/groups", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermGroupRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermGroupRead, h.Perms)).Get("/{groupID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermGroupWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermGroupWrite, h.Perms)).Put("/{groupID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermGroupWrite, h.Perms)).Delete("/{groupID}", h.handleDelete)
	})
}

func failGroup(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, group.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "group_not_found", err.Error(), requestID)
	case errors.Is(err, group.ErrEmployerNotFound):
		api.Fail(w, http.StatusNotFound, "employer_not_found", err.Error(), requestID)
	case errors.Is(err, group.ErrEmptyName):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, worker.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "worker_not_found", err.Error(), requestID)
	default:
		slog.Error("group operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "group_failed", "group operation failed", requestID)
	}
}

type groupRequest struct {
	EmployerCode string   `json:"employerCode"`
	Name         string   `json:"name"`
	Workers      []string `json:"workers"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload groupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employerCode", payload.EmployerCode, "employer code is required")
	v.Required("name", payload.Name, "group name is required")
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.Create(r.Context(), user, payload.EmployerCode, payload.Name, payload.Workers)
	if err != nil {
		failGroup(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionGroupChange, "worker_group", created.ID, requestID, shared.ClientIP(r), nil, created); err != nil {
		slog.Warn("audit group.change failed", "err", err)
	}
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload groupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employerCode", payload.EmployerCode, "employer code is required")
	v.Required("name", payload.Name, "group name is required")
	if v.Reject(w, requestID) {
		return
	}

	updated, err := h.Service.Update(r.Context(), user, payload.EmployerCode, chi.URLParam(r, "groupID"), payload.Name, payload.Workers)
	if err != nil {
		failGroup(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionGroupChange, "worker_group", updated.ID, requestID, shared.ClientIP(r), nil, updated); err != nil {
		slog.Warn("audit group.change failed", "err", err)
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	employerCode := r.URL.Query().Get("employer")
	if employerCode == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "employer query parameter is required", requestID)
		return
	}
	g, err := h.Service.Get(r.Context(), user, employerCode, chi.URLParam(r, "groupID"))
	if err != nil {
		failGroup(w, err, requestID)
		return
	}
	api.Success(w, g, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	employerCode := r.URL.Query().Get("employer")
	if employerCode == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "employer query parameter is required", requestID)
		return
	}
	groups, err := h.Service.List(r.Context(), user, employerCode)
	if err != nil {
		failGroup(w, err, requestID)
		return
	}
	api.Success(w, groups, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	employerCode := r.URL.Query().Get("employer")
	if employerCode == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "employer query parameter is required", requestID)
		return
	}
	groupID := chi.URLParam(r, "groupID")
	if err := h.Service.Delete(r.Context(), user, employerCode, groupID); err != nil {
		failGroup(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionGroupChange, "worker_group", groupID, requestID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit group.change failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}
