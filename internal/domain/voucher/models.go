package voucher

import (
	"time"

	"github.com/shopspring/decimal"

	"workervoucher/internal/domain/employer"
	"workervoucher/internal/domain/worker"
)

type Status string

const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusUnassigned      Status = "unassigned"
	StatusAssigned        Status = "assigned"
	StatusExpired         Status = "expired"
	StatusCanceled        Status = "canceled"
	StatusClosed          Status = "closed"
)

// Terminal reports whether the status can never transition again.
func (s Status) Terminal() bool {
	switch s {
	case StatusExpired, StatusCanceled, StatusClosed:
		return true
	}
	return false
}

// NonTerminalStatuses are the statuses counted against quotas and conflicts.
var NonTerminalStatuses = []Status{StatusAssigned, StatusAwaitingPayment}

type Voucher struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	Status       Status     `json:"status"`
	AssignedDate *time.Time `json:"assignedDate,omitempty"`
	ExpiryDate   time.Time  `json:"expiryDate"`
	WorkerID     *string    `json:"workerId,omitempty"`
	EmployerID   string     `json:"employerId"`
	BillID       *string    `json:"billId,omitempty"`
	IsDeleted    bool       `json:"isDeleted"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	UpdatedBy    string     `json:"updatedBy,omitempty"`
}

// CreateInput describes a direct voucher creation. Zero-value fields fall
// back to policy defaults: status unassigned, expiry from the configured
// policy.
type CreateInput struct {
	Status       Status
	NationalID   string
	AssignedDate *time.Time
	ExpiryDate   time.Time
}

type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// AcquireSummary is the validated, in-memory result of a validation call. It
// lives for a single workflow invocation and is never persisted.
type AcquireSummary struct {
	Employer        employer.Employer
	Workers         []worker.Worker
	Dates           []time.Time
	Unassigned      []Voucher
	Count           int
	Price           decimal.Decimal
	PricePerVoucher decimal.Decimal
}

// Summary is the wire shape of a successful validation.
type Summary struct {
	Count           int             `json:"count"`
	Price           decimal.Decimal `json:"price"`
	PricePerVoucher decimal.Decimal `json:"pricePerVoucher"`
}

func (s AcquireSummary) Summary() Summary {
	return Summary{Count: s.Count, Price: s.Price, PricePerVoucher: s.PricePerVoucher}
}

// AcquireResult is returned by the mutating workflows.
type AcquireResult struct {
	VoucherIDs []string        `json:"voucherIds"`
	BillID     string          `json:"billId,omitempty"`
	Count      int             `json:"count"`
	Price      decimal.Decimal `json:"price"`
}
