package worker

import "errors"

var (
	ErrInvalidNationalID = errors.New("national id must be 13 digits")
	ErrNotFound          = errors.New("worker not found")
	ErrAlreadyRegistered = errors.New("worker already registered with employer")
	ErrNotVerified       = errors.New("worker identity could not be verified")
	ErrEmployerNotFound  = errors.New("economic unit not found")
)

// ErrorCode maps a worker error to its API envelope code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidNationalID):
		return "invalid_national_id"
	case errors.Is(err, ErrNotFound):
		return "worker_not_found"
	case errors.Is(err, ErrAlreadyRegistered):
		return "worker_already_registered"
	case errors.Is(err, ErrNotVerified):
		return "worker_not_verified"
	case errors.Is(err, ErrEmployerNotFound):
		return "employer_not_found"
	default:
		return "internal_error"
	}
}
