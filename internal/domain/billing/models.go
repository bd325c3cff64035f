package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusIssued = "issued"
	StatusPaid   = "paid"
)

// Bill is the invoice raised for a voucher acquisition batch. Settlement is
// handled by an external payment collaborator; this module only issues and
// stores bills.
type Bill struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	EmployerID string          `json:"employerId"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"dueDate"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type LineItem struct {
	ID        string          `json:"id"`
	BillID    string          `json:"billId"`
	VoucherID string          `json:"voucherId"`
	Amount    decimal.Decimal `json:"amount"`
}
