package voucherhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workervoucher/internal/domain/audit"
	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/export"
	"workervoucher/internal/domain/voucher"
	"workervoucher/internal/transport/http/api"
	"workervoucher/internal/transport/http/middleware"
	"workervoucher/internal/transport/http/shared"
)

type Handler struct {
	DB      *pgxpool.Pool
	Service *voucher.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(db *pgxpool.Pool, service *voucher.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{DB: db, Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vouchers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermVoucherAcquireUnassigned, h.Perms)).Post("/acquire/unassigned/validate", h.handleValidateAcquireUnassigned)
		r.With(middleware.RequirePermission(auth.PermVoucherAcquireUnassigned, h.Perms)).Post("/acquire/unassigned", h.handleAcquireUnassigned)
		r.With(middleware.RequirePermission(auth.PermVoucherAcquireAssigned, h.Perms)).Post("/acquire/assigned/validate", h.handleValidateAcquireAssigned)
		r.With(middleware.RequirePermission(auth.PermVoucherAcquireAssigned, h.Perms)).Post("/acquire/assigned", h.handleAcquireAssigned)
		r.With(middleware.RequirePermission(auth.PermVoucherAssign, h.Perms)).Post("/assign/validate", h.handleValidateAssign)
		r.With(middleware.RequirePermission(auth.PermVoucherAssign, h.Perms)).Post("/assign", h.handleAssign)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/", h.handleSearch)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/export", h.handleExportCSV)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/check/{code}", h.handleCheck)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/counts", h.handleYearlyCounts)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/worker-counts/{nationalID}", h.handleWorkerYearlyCounts)
		r.With(middleware.RequirePermission(auth.PermVoucherCreate, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/{voucherID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermVoucherSearch, h.Perms)).Get("/{voucherID}/pdf", h.handlePDF)
		r.With(middleware.RequirePermission(auth.PermVoucherUpdate, h.Perms)).Put("/{voucherID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermVoucherDelete, h.Perms)).Post("/delete", h.handleDelete)
	})
}

type dateRangePayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type acquireUnassignedRequest struct {
	EmployerCode string `json:"employerCode"`
	Count        int    `json:"count"`
}

type acquireAssignedRequest struct {
	EmployerCode string             `json:"employerCode"`
	Workers      []string           `json:"workers"`
	DateRanges   []dateRangePayload `json:"dateRanges"`
}

func parseDateRanges(v *shared.Validator, payloads []dateRangePayload) []voucher.DateRange {
	if len(payloads) == 0 {
		v.Add("dateRanges", "at least one date range is required")
		return nil
	}
	ranges := make([]voucher.DateRange, 0, len(payloads))
	for _, p := range payloads {
		start, okStart := v.Date("startDate", p.StartDate)
		end, okEnd := v.Date("endDate", p.EndDate)
		if okStart && okEnd {
			ranges = append(ranges, voucher.DateRange{Start: start, End: end})
		}
	}
	return ranges
}

// failDomain maps engine errors onto HTTP statuses and the stable error code
// vocabulary.
func failDomain(w http.ResponseWriter, err error, requestID string) {
	code := voucher.ErrorCode(err)
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, voucher.ErrEmployerNotFound),
		errors.Is(err, voucher.ErrWorkerNotFound),
		errors.Is(err, voucher.ErrVoucherNotFound):
		status = http.StatusNotFound
	case errors.Is(err, voucher.ErrConflictingVoucherExists),
		errors.Is(err, voucher.ErrYearlyLimitExceeded),
		errors.Is(err, voucher.ErrInsufficientInventory):
		status = http.StatusConflict
	case errors.Is(err, voucher.ErrFeatureDisabled):
		status = http.StatusForbidden
	case code == "internal_error":
		status = http.StatusInternalServerError
		slog.Error("voucher operation failed", "err", err)
	}
	api.Fail(w, status, code, err.Error(), requestID)
}

func (h *Handler) handleValidateAcquireUnassigned(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload acquireUnassignedRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employerCode", payload.EmployerCode, "employer code is required")
	if v.Reject(w, requestID) {
		return
	}

	summary, err := h.Service.ValidateAcquireUnassigned(r.Context(), user, payload.EmployerCode, payload.Count)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	api.Success(w, summary.Summary(), requestID)
}

func (h *Handler) handleAcquireUnassigned(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload acquireUnassignedRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employerCode", payload.EmployerCode, "employer code is required")
	if v.Reject(w, requestID) {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	raw, _ := json.Marshal(payload)
	requestHash := middleware.RequestHash(raw)
	if idempotencyKey != "" {
		stored, found, err := middleware.CheckIdempotency(r.Context(), h.DB, user.UserID, "vouchers.acquire.unassigned", idempotencyKey, requestHash)
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Success(w, json.RawMessage(stored), requestID)
			return
		}
	}

	result, err := h.Service.AcquireUnassigned(r.Context(), user, payload.EmployerCode, payload.Count)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionVoucherAcquire, "bill", result.BillID, requestID, shared.ClientIP(r), nil, result); err != nil {
		slog.Warn("audit voucher.acquire failed", "err", err)
	}
	if idempotencyKey != "" {
		if encoded, err := json.Marshal(result); err == nil {
			if err := middleware.SaveIdempotency(r.Context(), h.DB, user.UserID, "vouchers.acquire.unassigned", idempotencyKey, requestHash, encoded); err != nil {
				slog.Warn("idempotency save failed", "err", err)
			}
		}
	}
	api.Created(w, result, requestID)
}

func (h *Handler) decodeAssignedRequest(w http.ResponseWriter, r *http.Request, requestID string) (acquireAssignedRequest, []voucher.DateRange, bool) {
	var payload acquireAssignedRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return payload, nil, false
	}
	v := shared.NewValidator()
	v.Required("employerCode", payload.EmployerCode, "employer code is required")
	if len(payload.Workers) == 0 {
		v.Add("workers", "at least one worker is required")
	}
	ranges := parseDateRanges(v, payload.DateRanges)
	if v.Reject(w, requestID) {
		return payload, nil, false
	}
	return payload, ranges, true
}

func (h *Handler) handleValidateAcquireAssigned(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	payload, ranges, ok := h.decodeAssignedRequest(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.Service.ValidateAcquireAssigned(r.Context(), user, payload.EmployerCode, payload.Workers, ranges)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	api.Success(w, summary.Summary(), requestID)
}

func (h *Handler) handleAcquireAssigned(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	payload, ranges, ok := h.decodeAssignedRequest(w, r, requestID)
	if !ok {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	raw, _ := json.Marshal(payload)
	requestHash := middleware.RequestHash(raw)
	if idempotencyKey != "" {
		stored, found, err := middleware.CheckIdempotency(r.Context(), h.DB, user.UserID, "vouchers.acquire.assigned", idempotencyKey, requestHash)
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Success(w, json.RawMessage(stored), requestID)
			return
		}
	}

	result, err := h.Service.AcquireAssigned(r.Context(), user, payload.EmployerCode, payload.Workers, ranges)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionVoucherAcquire, "bill", result.BillID, requestID, shared.ClientIP(r), nil, result); err != nil {
		slog.Warn("audit voucher.acquire failed", "err", err)
	}
	if idempotencyKey != "" {
		if encoded, err := json.Marshal(result); err == nil {
			if err := middleware.SaveIdempotency(r.Context(), h.DB, user.UserID, "vouchers.acquire.assigned", idempotencyKey, requestHash, encoded); err != nil {
				slog.Warn("idempotency save failed", "err", err)
			}
		}
	}
	api.Created(w, result, requestID)
}

func (h *Handler) handleValidateAssign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	payload, ranges, ok := h.decodeAssignedRequest(w, r, requestID)
	if !ok {
		return
	}

	summary, err := h.Service.ValidateAssign(r.Context(), user, payload.EmployerCode, payload.Workers, ranges)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	api.Success(w, summary.Summary(), requestID)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	payload, ranges, ok := h.decodeAssignedRequest(w, r, requestID)
	if !ok {
		return
	}

	result, err := h.Service.Assign(r.Context(), user, payload.EmployerCode, payload.Workers, ranges)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionVoucherAssign, "voucher_batch", strings.Join(result.VoucherIDs, ","), requestID, shared.ClientIP(r), nil, result); err != nil {
		slog.Warn("audit voucher.assign failed", "err", err)
	}
	api.Success(w, result, requestID)
}

func (h *Handler) searchFromQuery(r *http.Request) (string, voucher.SearchFilter) {
	q := r.URL.Query()
	return q.Get("employer"), voucher.SearchFilter{
		Status:     voucher.Status(q.Get("status")),
		WorkerID:   q.Get("workerId"),
		NationalID: q.Get("nationalId"),
	}
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	employerCode, filter := h.searchFromQuery(r)
	page := shared.ParsePagination(r, 50, 500)
	vouchers, total, err := h.Service.Search(r.Context(), user, employerCode, filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "voucher_search_failed", "failed to search vouchers", requestID)
		return
	}
	api.Success(w, map[string]any{"items": vouchers, "total": total}, requestID)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	employerCode, filter := h.searchFromQuery(r)
	vouchers, _, err := h.Service.Search(r.Context(), user, employerCode, filter, 10000, 0)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "voucher_export_failed", "failed to export vouchers", requestID)
		return
	}
	data, err := export.VouchersCSV(vouchers)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "voucher_export_failed", "failed to export vouchers", requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="vouchers.csv"`)
	if _, err := w.Write(data); err != nil {
		slog.Warn("voucher csv write failed", "err", err)
	}
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	code := chi.URLParam(r, "code")

	usable, v, err := h.Service.CheckByCode(r.Context(), code)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{
		"valid":      usable,
		"status":     v.Status,
		"expiryDate": v.ExpiryDate.Format(time.DateOnly),
	}, requestID)
}

func (h *Handler) handleYearlyCounts(w http.ResponseWriter, r *http.Request) {
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
	years := parseYears(r.URL.Query().Get("years"))
	if len(years) == 0 {
		current := time.Now().Year()
		years = []int{current - 1, current}
	}

	counts, err := h.Service.YearlyCounts(r.Context(), user, employerCode, years)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	api.Success(w, counts, requestID)
}

func (h *Handler) handleWorkerYearlyCounts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 2000 {
			api.Fail(w, http.StatusBadRequest, "validation_error", "year must be a four digit year", requestID)
			return
		}
		year = parsed
	}

	counts, err := h.Service.WorkerYearlyCounts(r.Context(), user, chi.URLParam(r, "nationalID"), year)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	api.Success(w, counts, requestID)
}

type createRequest struct {
	EmployerCode string `json:"employerCode"`
	Status       string `json:"status"`
	NationalID   string `json:"nationalId"`
	AssignedDate string `json:"assignedDate"`
	ExpiryDate   string `json:"expiryDate"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employerCode", payload.EmployerCode, "employer code is required")
	if payload.Status != "" {
		v.Enum("status", payload.Status, []string{
			string(voucher.StatusAwaitingPayment), string(voucher.StatusUnassigned),
			string(voucher.StatusAssigned),
		}, "not a creatable voucher status")
	}
	in := voucher.CreateInput{Status: voucher.Status(payload.Status), NationalID: payload.NationalID}
	if payload.AssignedDate != "" {
		if parsed, ok := v.Date("assignedDate", payload.AssignedDate); ok {
			day := voucher.Day(parsed)
			in.AssignedDate = &day
		}
	}
	if payload.ExpiryDate != "" {
		if parsed, ok := v.Date("expiryDate", payload.ExpiryDate); ok {
			in.ExpiryDate = parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.Create(r.Context(), user, payload.EmployerCode, in)
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionVoucherCreate, "voucher", created.ID, requestID, shared.ClientIP(r), nil, created); err != nil {
		slog.Warn("audit voucher.create failed", "err", err)
	}
	api.Created(w, created, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	v, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "voucherID"))
	if err != nil {
		failDomain(w, err, requestID)
		return
	}
	api.Success(w, v, requestID)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	v, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "voucherID"))
	if err != nil {
		failDomain(w, err, requestID)
		return
	}

	var employerName string
	if err := h.DB.QueryRow(r.Context(), "SELECT trade_name FROM employers WHERE id = $1", v.EmployerID).Scan(&employerName); err != nil {
		slog.Warn("employer name lookup failed", "employerId", v.EmployerID, "err", err)
	}
	var workerName string
	if v.WorkerID != nil {
		if err := h.DB.QueryRow(r.Context(), "SELECT first_name || ' ' || last_name FROM workers WHERE id = $1", *v.WorkerID).Scan(&workerName); err != nil {
			slog.Warn("worker name lookup failed", "workerId", *v.WorkerID, "err", err)
		}
	}

	data, err := export.VoucherPDF(v, workerName, employerName)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "voucher_pdf_failed", "failed to render voucher", requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="voucher-`+v.Code+`.pdf"`)
	if _, err := w.Write(data); err != nil {
		slog.Warn("voucher pdf write failed", "err", err)
	}
}

type updateRequest struct {
	Status       string  `json:"status"`
	AssignedDate string  `json:"assignedDate"`
	ExpiryDate   string  `json:"expiryDate"`
	WorkerID     *string `json:"workerId"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload updateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	current, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "voucherID"))
	if err != nil {
		failDomain(w, err, requestID)
		return
	}

	v := shared.NewValidator()
	updated := current
	if payload.Status != "" {
		v.Enum("status", payload.Status, []string{
			string(voucher.StatusAwaitingPayment), string(voucher.StatusUnassigned),
			string(voucher.StatusAssigned), string(voucher.StatusExpired),
			string(voucher.StatusCanceled), string(voucher.StatusClosed),
		}, "not a valid voucher status")
		updated.Status = voucher.Status(payload.Status)
	}
	if payload.AssignedDate != "" {
		if parsed, ok := v.Date("assignedDate", payload.AssignedDate); ok {
			day := voucher.Day(parsed)
			updated.AssignedDate = &day
		}
	}
	if payload.ExpiryDate != "" {
		if parsed, ok := v.Date("expiryDate", payload.ExpiryDate); ok {
			updated.ExpiryDate = voucher.Day(parsed)
		}
	}
	if payload.WorkerID != nil {
		updated.WorkerID = payload.WorkerID
	}
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Service.Update(r.Context(), user, updated); err != nil {
		failDomain(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionVoucherUpdate, "voucher", updated.ID, requestID, shared.ClientIP(r), current, updated); err != nil {
		slog.Warn("audit voucher.update failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "updated"}, requestID)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.IDs) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "ids are required", requestID)
		return
	}

	if err := h.Service.Delete(r.Context(), user, payload.IDs); err != nil {
		failDomain(w, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, audit.ActionVoucherDelete, "voucher_batch", strings.Join(payload.IDs, ","), requestID, shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit voucher.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func parseYears(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	years := make([]int, 0, len(parts))
	for _, p := range parts {
		if year, err := strconv.Atoi(strings.TrimSpace(p)); err == nil && year > 2000 {
			years = append(years, year)
		}
	}
	return years
}
