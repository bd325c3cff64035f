package employerhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/employer"
	"workervoucher/internal/transport/http/api"
	"workervoucher/internal/transport/http/middleware"
)

type Handler struct {
	Store *employer.Store
	Perms middleware.PermissionStore
}

func NewHandler(store *employer.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/{code}", h.handleGet)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	all, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermVoucherSearchAll)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
		return
	}
	employers, err := h.Store.List(r.Context(), user.UserID, all)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employer_list_failed", "failed to list employers", requestID)
		return
	}
	api.Success(w, employers, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	all, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermVoucherSearchAll)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
		return
	}
	emp, err := h.Store.FindByCode(r.Context(), chi.URLParam(r, "code"), user.UserID, all)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "employer_not_found", "economic unit not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employer_get_failed", "failed to fetch employer", requestID)
		return
	}
	api.Success(w, emp, requestID)
}
