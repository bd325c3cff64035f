package voucher

import "errors"

var (
	ErrEmployerNotFound = errors.New("economic unit not found")
	ErrWorkerNotFound   = errors.New("worker not found")
	ErrDuplicateWorker  = errors.New("duplicate worker in request")
	ErrNoValidWorkers   = errors.New("no valid workers in request")

	ErrInvalidCount    = errors.New("invalid voucher count")
	ErrNoValidDates    = errors.New("no valid dates in request")
	ErrDuplicateDate   = errors.New("date appears in more than one range")
	ErrDateAfterExpiry = errors.New("date after voucher expiry cutoff")
	ErrDateInPast      = errors.New("date in the past")
	ErrStartAfterEnd   = errors.New("range start after range end")

	ErrYearlyLimitExceeded      = errors.New("yearly voucher limit for worker exceeded")
	ErrConflictingVoucherExists = errors.New("worker already has a voucher for a requested date")
	ErrInsufficientInventory    = errors.New("not enough unassigned vouchers")
	ErrNoVouchersCreated        = errors.New("no vouchers to create")

	ErrFeatureDisabled = errors.New("unassigned vouchers are disabled")

	ErrVoucherNotFound = errors.New("voucher not found")
	ErrTerminalStatus  = errors.New("voucher is in a terminal status")

	ErrWorkerRequired   = errors.New("status requires a worker and an assigned date")
	ErrWorkerNotAllowed = errors.New("unassigned voucher cannot carry a worker or an assigned date")
)

// ErrorCode maps an engine error to the stable snake_case code surfaced in
// API envelopes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrEmployerNotFound):
		return "employer_not_found"
	case errors.Is(err, ErrWorkerNotFound):
		return "worker_not_found"
	case errors.Is(err, ErrDuplicateWorker):
		return "duplicate_worker"
	case errors.Is(err, ErrNoValidWorkers):
		return "no_valid_workers"
	case errors.Is(err, ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, ErrDuplicateDate):
		return "duplicate_date"
	case errors.Is(err, ErrDateAfterExpiry):
		return "date_after_expiry"
	case errors.Is(err, ErrDateInPast):
		return "date_in_past"
	case errors.Is(err, ErrStartAfterEnd):
		return "start_after_end"
	case errors.Is(err, ErrNoValidDates):
		return "no_valid_dates"
	case errors.Is(err, ErrYearlyLimitExceeded):
		return "yearly_limit_exceeded"
	case errors.Is(err, ErrConflictingVoucherExists):
		return "conflicting_voucher_exists"
	case errors.Is(err, ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, ErrNoVouchersCreated):
		return "no_vouchers_created"
	case errors.Is(err, ErrFeatureDisabled):
		return "feature_disabled"
	case errors.Is(err, ErrVoucherNotFound):
		return "voucher_not_found"
	case errors.Is(err, ErrTerminalStatus):
		return "terminal_status"
	case errors.Is(err, ErrWorkerRequired):
		return "worker_required"
	case errors.Is(err, ErrWorkerNotAllowed):
		return "worker_not_allowed"
	default:
		return "internal_error"
	}
}
