package voucher

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"workervoucher/internal/domain/employer"
	"workervoucher/internal/domain/worker"
)

// StoreAPI is the persistence surface the voucher service drives. Tx-suffixed
// methods run inside a transaction owned by the caller so an acquisition and
// its bill commit or roll back together.
type StoreAPI interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	ByID(ctx context.Context, id string) (Voucher, error)
	ByCode(ctx context.Context, code string) (Voucher, error)
	Search(ctx context.Context, vis VisibilityFilter, f SearchFilter, limit, offset int) ([]Voucher, int, error)

	CountForYear(ctx context.Context, workerID, employerID string, year int) (int, error)
	ActiveOnDates(ctx context.Context, workerID, employerID string, dates []time.Time) (bool, error)
	ActiveOnOrAfter(ctx context.Context, workerID, employerID string, cutoff time.Time) (bool, error)
	UnassignedPool(ctx context.Context, employerID string) ([]Voucher, error)
	YearlyCountsByEmployer(ctx context.Context, employerID string, years []int) (map[int]int, error)
	CountsPerEmployerForWorker(ctx context.Context, vis VisibilityFilter, workerID string, year int) (map[string]int, error)

	InsertTx(ctx context.Context, tx pgx.Tx, v Voucher) (string, error)
	AssignTx(ctx context.Context, tx pgx.Tx, voucherID, workerID, updatedBy string, assignedDate time.Time) error
	LinkBillTx(ctx context.Context, tx pgx.Tx, voucherIDs []string, billID string) error
	UpdateTx(ctx context.Context, tx pgx.Tx, v Voucher) error
	SoftDeleteTx(ctx context.Context, tx pgx.Tx, id, updatedBy string) error
}

// EmployerDirectory resolves employers subject to the caller's visibility.
type EmployerDirectory interface {
	FindByCode(ctx context.Context, code, userID string, searchAll bool) (employer.Employer, error)
	IsAffiliated(ctx context.Context, employerID, userID string) (bool, error)
}

// WorkerDirectory resolves workers subject to the caller's visibility.
// FindAny looks a worker up by national id alone; callers scope whatever they
// derive from the result themselves.
type WorkerDirectory interface {
	FindByNationalID(ctx context.Context, nationalID, employerCode, userID string, searchAll bool) (worker.Worker, error)
	FindAny(ctx context.Context, nationalID string) (worker.Worker, error)
}

// BillIssuer raises a bill for an acquisition batch inside the batch's
// transaction.
type BillIssuer interface {
	CreateBillTx(ctx context.Context, tx pgx.Tx, employerID string, voucherIDs []string, unitPrice decimal.Decimal, dueDate time.Time) (string, error)
}

// CapabilityChecker answers whether a role holds a permission.
type CapabilityChecker interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}
