package workerhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workervoucher/internal/domain/audit"
	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/upload"
	"workervoucher/internal/domain/worker"
	"workervoucher/internal/transport/http/api"
	"workervoucher/internal/transport/http/middleware"
	"workervoucher/internal/transport/http/shared"
)

const maxUploadBytes = 8 * 1024 * 1024

type Handler struct {
	DB      *pgxpool.Pool
	Service *worker.Service
	Uploads *upload.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(db *pgxpool.Pool, service *worker.Service, uploads *upload.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{DB: db, Service: service, Uploads: uploads, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermWorkerRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermWorkerRead, h.Perms)).Get("/previous", h.handlePrevious)
		r.With(middleware.RequirePermission(auth.PermWorkerRead, h.Perms)).Get("/enquire/{nationalID}", h.handleEnquire)
		r.With(middleware.RequirePermission(auth.PermWorkerWrite, h.Perms)).Post("/", h.handleRegister)
		r.With(middleware.RequirePermission(auth.PermWorkerWrite, h.Perms)).Delete("/{nationalID}", h.handleRemove)
		r.With(middleware.RequirePermission(auth.PermWorkerUpload, h.Perms)).Post("/upload", h.handleUpload)
		r.With(middleware.RequirePermission(auth.PermWorkerUpload, h.Perms)).Get("/uploads", h.handleListUploads)
		r.With(middleware.RequirePermission(auth.PermWorkerUpload, h.Perms)).Get("/uploads/{uploadID}/errors", h.handleUploadErrors)
	})
}

func failWorker(w http.ResponseWriter, err error, requestID string) {
	code := worker.ErrorCode(err)
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, worker.ErrNotFound), errors.Is(err, worker.ErrEmployerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, worker.ErrAlreadyRegistered):
		status = http.StatusConflict
	case errors.Is(err, worker.ErrNotVerified):
		status = http.StatusUnprocessableEntity
	case code == "internal_error":
		status = http.StatusInternalServerError
		slog.Error("worker operation failed", "err", err)
	}
	api.Fail(w, status, code, err.Error(), requestID)
}

type registerRequest struct {
	EmployerCode string `json:"employerCode"`
	NationalID   string `json:"nationalId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employerCode", payload.EmployerCode, "employer code is required")
	v.Required("nationalId", payload.NationalID, "national id is required")
	var dob *time.Time
	if payload.DateOfBirth != "" {
		if parsed, ok := v.Date("dateOfBirth", payload.DateOfBirth); ok {
			dob = &parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	registered, err := h.Service.Register(r.Context(), user, payload.EmployerCode, worker.RegisterInput{
		NationalID:  payload.NationalID,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		DateOfBirth: dob,
	})
	if err != nil {
		failWorker(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionWorkerRegister, "worker", registered.ID, requestID, shared.ClientIP(r), nil, registered); err != nil {
		slog.Warn("audit worker.register failed", "err", err)
	}
	api.Created(w, registered, requestID)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
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
	nationalID := chi.URLParam(r, "nationalID")

	if err := h.Service.Remove(r.Context(), user, employerCode, nationalID); err != nil {
		failWorker(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionWorkerRemove, "worker", nationalID, requestID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit worker.remove failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "removed"}, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	workers, err := h.Service.List(r.Context(), user, r.URL.Query().Get("employer"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_list_failed", "failed to list workers", requestID)
		return
	}
	api.Success(w, workers, requestID)
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
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
	workers, err := h.Service.Previous(r.Context(), user, employerCode)
	if err != nil {
		failWorker(w, err, requestID)
		return
	}
	api.Success(w, workers, requestID)
}

func (h *Handler) handleEnquire(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	profile, err := h.Service.Enquire(r.Context(), chi.URLParam(r, "nationalID"))
	if err != nil {
		failWorker(w, err, requestID)
		return
	}
	api.Success(w, profile, requestID)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "multipart form required", requestID)
		return
	}
	employerCode := r.FormValue("employerCode")
	if employerCode == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "employerCode form field is required", requestID)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "file form field is required", requestID)
		return
	}
	defer file.Close()

	emp, err := h.resolveEmployer(r, user, employerCode)
	if err != nil {
		failWorker(w, err, requestID)
		return
	}

	report, err := h.Uploads.Process(r.Context(), user, employerCode, emp, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrMissingIDColumn), errors.Is(err, upload.ErrEmptyFile):
			api.Fail(w, http.StatusBadRequest, "invalid_file", err.Error(), requestID)
		default:
			slog.Error("worker upload failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to process upload", requestID)
		}
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionWorkerUpload, "worker_upload", report.UploadID, requestID, shared.ClientIP(r), nil, report); err != nil {
		slog.Warn("audit worker.upload failed", "err", err)
	}
	api.Created(w, report, requestID)
}

// resolveEmployer maps the employer code to its id for the upload row,
// honoring the caller's visibility.
func (h *Handler) resolveEmployer(r *http.Request, user auth.UserContext, employerCode string) (string, error) {
	all, err := h.Perms.HasPermission(r.Context(), user.RoleID, auth.PermVoucherSearchAll)
	if err != nil {
		return "", err
	}
	var employerID string
	query := `
    SELECT e.id FROM employers e
    WHERE e.code = $1 AND e.is_deleted = false`
	args := []any{employerCode}
	if !all {
		query += " AND EXISTS (SELECT 1 FROM employer_users eu WHERE eu.employer_id = e.id AND eu.user_id = $2 AND eu.is_deleted = false)"
		args = append(args, user.UserID)
	}
	if err := h.DB.QueryRow(r.Context(), query, args...).Scan(&employerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", worker.ErrEmployerNotFound
		}
		return "", err
	}
	return employerID, nil
}

func (h *Handler) handleListUploads(w http.ResponseWriter, r *http.Request) {
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
	employerID, err := h.resolveEmployer(r, user, employerCode)
	if err != nil {
		failWorker(w, err, requestID)
		return
	}

	uploads, err := h.Uploads.Store.ListByEmployer(r.Context(), employerID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "upload_list_failed", "failed to list uploads", requestID)
		return
	}
	api.Success(w, uploads, requestID)
}

func (h *Handler) handleUploadErrors(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	data, err := h.Uploads.Store.ErrorFile(r.Context(), chi.URLParam(r, "uploadID"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "upload not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "upload_errors_failed", "failed to fetch error file", requestID)
		return
	}
	if len(data) == 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "upload has no error file", requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="upload-errors.csv"`)
	if _, err := w.Write(data); err != nil {
		slog.Warn("upload error csv write failed", "err", err)
	}
}
