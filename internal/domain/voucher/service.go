package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/employer"
	"workervoucher/internal/domain/worker"
	"workervoucher/internal/platform/config"
)

// Service runs the voucher lifecycle workflows. Each mutating workflow
// re-validates and then commits all of its writes, bill included, in one
// transaction.
type Service struct {
	Cfg       config.Config
	Store     StoreAPI
	Employers EmployerDirectory
	Workers   WorkerDirectory
	Bills     BillIssuer
	Perms     CapabilityChecker

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func NewService(cfg config.Config, store StoreAPI, employers EmployerDirectory, workers WorkerDirectory, bills BillIssuer, perms CapabilityChecker) *Service {
	return &Service{
		Cfg:       cfg,
		Store:     store,
		Employers: employers,
		Workers:   workers,
		Bills:     bills,
		Perms:     perms,
		Now:       time.Now,
	}
}

func (s *Service) searchAll(ctx context.Context, user auth.UserContext) (bool, error) {
	return s.Perms.HasPermission(ctx, user.RoleID, auth.PermVoucherSearchAll)
}

func (s *Service) resolveEmployer(ctx context.Context, user auth.UserContext, code string) (employerResult, error) {
	all, err := s.searchAll(ctx, user)
	if err != nil {
		return employerResult{}, err
	}
	emp, err := s.Employers.FindByCode(ctx, code, user.UserID, all)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employerResult{}, fmt.Errorf("%s: %w", code, ErrEmployerNotFound)
		}
		return employerResult{}, err
	}
	return employerResult{emp: emp, searchAll: all}, nil
}

type employerResult struct {
	emp       employer.Employer
	searchAll bool
}

// resolveWorkers maps national ids to workers affiliated with the employer.
// Duplicates and unknown ids fail the whole request.
func (s *Service) resolveWorkers(ctx context.Context, user auth.UserContext, employerCode string, nationalIDs []string, searchAll bool) ([]worker.Worker, error) {
	if len(nationalIDs) == 0 {
		return nil, ErrNoValidWorkers
	}

	seen := make(map[string]struct{}, len(nationalIDs))
	workers := make([]worker.Worker, 0, len(nationalIDs))
	for _, nid := range nationalIDs {
		if _, dup := seen[nid]; dup {
			return nil, fmt.Errorf("%s: %w", nid, ErrDuplicateWorker)
		}
		seen[nid] = struct{}{}

		w, err := s.Workers.FindByNationalID(ctx, nid, employerCode, user.UserID, searchAll)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%s: %w", nid, ErrWorkerNotFound)
			}
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// checkYearlyQuota verifies that granting the requested dates would not push
// any worker past the per-employer yearly voucher limit. Dates are grouped by
// calendar year; each year's existing count is checked independently.
func (s *Service) checkYearlyQuota(ctx context.Context, workers []worker.Worker, employerID string, dates []time.Time) error {
	perYear := make(map[int]int)
	for _, d := range dates {
		perYear[d.Year()]++
	}

	for _, w := range workers {
		for year, requested := range perYear {
			existing, err := s.Store.CountForYear(ctx, w.ID, employerID, year)
			if err != nil {
				return err
			}
			if existing+requested > s.Cfg.YearlyWorkerVoucherLimit {
				return fmt.Errorf("worker %s, year %d: %w", w.NationalID, year, ErrYearlyLimitExceeded)
			}
		}
	}
	return nil
}

// ValidateAcquireUnassigned prices a generic voucher purchase without
// touching the database beyond resolving the employer.
func (s *Service) ValidateAcquireUnassigned(ctx context.Context, user auth.UserContext, employerCode string, count int) (AcquireSummary, error) {
	if !s.Cfg.UnassignedVoucherEnabled {
		return AcquireSummary{}, ErrFeatureDisabled
	}
	res, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return AcquireSummary{}, err
	}
	if count < 1 || count > s.Cfg.MaxGenericVouchers {
		return AcquireSummary{}, fmt.Errorf("count %d outside 1..%d: %w", count, s.Cfg.MaxGenericVouchers, ErrInvalidCount)
	}

	unit := s.Cfg.UnitPrice()
	return AcquireSummary{
		Employer:        res.emp,
		Count:           count,
		Price:           unit.Mul(decimal.NewFromInt(int64(count))),
		PricePerVoucher: unit,
	}, nil
}

// ValidateAcquireAssigned checks a direct worker-and-dates purchase: date
// expansion, yearly quotas, and exact-date conflicts, for the full cartesian
// product of workers and dates.
func (s *Service) ValidateAcquireAssigned(ctx context.Context, user auth.UserContext, employerCode string, nationalIDs []string, ranges []DateRange) (AcquireSummary, error) {
	res, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return AcquireSummary{}, err
	}
	workers, err := s.resolveWorkers(ctx, user, employerCode, nationalIDs, res.searchAll)
	if err != nil {
		return AcquireSummary{}, err
	}

	today := Day(s.Now())
	dates, err := ExpandDateRanges(ranges, today, PolicyExpiryDate(s.Cfg, today))
	if err != nil {
		return AcquireSummary{}, err
	}

	if err := s.checkYearlyQuota(ctx, workers, res.emp.ID, dates); err != nil {
		return AcquireSummary{}, err
	}
	for _, w := range workers {
		conflict, err := s.Store.ActiveOnDates(ctx, w.ID, res.emp.ID, dates)
		if err != nil {
			return AcquireSummary{}, err
		}
		if conflict {
			return AcquireSummary{}, fmt.Errorf("worker %s: %w", w.NationalID, ErrConflictingVoucherExists)
		}
	}

	count := len(workers) * len(dates)
	unit := s.Cfg.UnitPrice()
	return AcquireSummary{
		Employer:        res.emp,
		Workers:         workers,
		Dates:           dates,
		Count:           count,
		Price:           unit.Mul(decimal.NewFromInt(int64(count))),
		PricePerVoucher: unit,
	}, nil
}

// ValidateAssign checks an assignment of already-purchased generic vouchers
// and reserves a concrete set from the pool. Conflicts are checked from the
// earliest requested date onward, and every reserved voucher must stay valid
// through the latest requested date. Price is zero: the vouchers were billed
// at acquisition.
func (s *Service) ValidateAssign(ctx context.Context, user auth.UserContext, employerCode string, nationalIDs []string, ranges []DateRange) (AcquireSummary, error) {
	if !s.Cfg.UnassignedVoucherEnabled {
		return AcquireSummary{}, ErrFeatureDisabled
	}
	res, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return AcquireSummary{}, err
	}
	workers, err := s.resolveWorkers(ctx, user, employerCode, nationalIDs, res.searchAll)
	if err != nil {
		return AcquireSummary{}, err
	}

	today := Day(s.Now())
	dates, err := ExpandDateRanges(ranges, today, PolicyExpiryDate(s.Cfg, today))
	if err != nil {
		return AcquireSummary{}, err
	}

	if err := s.checkYearlyQuota(ctx, workers, res.emp.ID, dates); err != nil {
		return AcquireSummary{}, err
	}
	for _, w := range workers {
		conflict, err := s.Store.ActiveOnOrAfter(ctx, w.ID, res.emp.ID, dates[0])
		if err != nil {
			return AcquireSummary{}, err
		}
		if conflict {
			return AcquireSummary{}, fmt.Errorf("worker %s: %w", w.NationalID, ErrConflictingVoucherExists)
		}
	}

	count := len(workers) * len(dates)
	pool, err := s.Store.UnassignedPool(ctx, res.emp.ID)
	if err != nil {
		return AcquireSummary{}, err
	}
	reserved, err := SelectUnassigned(pool, count, latestDate(dates))
	if err != nil {
		return AcquireSummary{}, err
	}

	return AcquireSummary{
		Employer:        res.emp,
		Workers:         workers,
		Dates:           dates,
		Unassigned:      reserved,
		Count:           count,
		Price:           decimal.Zero,
		PricePerVoucher: decimal.Zero,
	}, nil
}

// AcquireUnassigned creates count generic vouchers and their bill in one
// transaction.
func (s *Service) AcquireUnassigned(ctx context.Context, user auth.UserContext, employerCode string, count int) (AcquireResult, error) {
	sum, err := s.ValidateAcquireUnassigned(ctx, user, employerCode, count)
	if err != nil {
		return AcquireResult{}, err
	}

	today := Day(s.Now())
	expiry := PolicyExpiryDate(s.Cfg, today)

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return AcquireResult{}, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, sum.Count)
	for i := 0; i < sum.Count; i++ {
		id, err := s.Store.InsertTx(ctx, tx, Voucher{
			Code:       uuid.NewString(),
			Status:     StatusUnassigned,
			ExpiryDate: expiry,
			EmployerID: sum.Employer.ID,
			UpdatedBy:  user.UserID,
		})
		if err != nil {
			return AcquireResult{}, err
		}
		ids = append(ids, id)
	}

	billID, err := s.issueBill(ctx, tx, sum.Employer.ID, ids, today)
	if err != nil {
		return AcquireResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return AcquireResult{}, err
	}
	return AcquireResult{VoucherIDs: ids, BillID: billID, Count: sum.Count, Price: sum.Price}, nil
}

// AcquireAssigned creates one awaiting-payment voucher per worker per date
// and bills the lot, all in one transaction.
func (s *Service) AcquireAssigned(ctx context.Context, user auth.UserContext, employerCode string, nationalIDs []string, ranges []DateRange) (AcquireResult, error) {
	sum, err := s.ValidateAcquireAssigned(ctx, user, employerCode, nationalIDs, ranges)
	if err != nil {
		return AcquireResult{}, err
	}
	if sum.Count == 0 {
		return AcquireResult{}, ErrNoVouchersCreated
	}

	today := Day(s.Now())
	expiry := PolicyExpiryDate(s.Cfg, today)

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return AcquireResult{}, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, sum.Count)
	for _, w := range sum.Workers {
		workerID := w.ID
		for _, d := range sum.Dates {
			assigned := d
			id, err := s.Store.InsertTx(ctx, tx, Voucher{
				Code:         uuid.NewString(),
				Status:       StatusAwaitingPayment,
				AssignedDate: &assigned,
				ExpiryDate:   expiry,
				WorkerID:     &workerID,
				EmployerID:   sum.Employer.ID,
				UpdatedBy:    user.UserID,
			})
			if err != nil {
				return AcquireResult{}, err
			}
			ids = append(ids, id)
		}
	}

	billID, err := s.issueBill(ctx, tx, sum.Employer.ID, ids, today)
	if err != nil {
		return AcquireResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return AcquireResult{}, err
	}
	return AcquireResult{VoucherIDs: ids, BillID: billID, Count: sum.Count, Price: sum.Price}, nil
}

// Assign fills the reserved pool vouchers with workers and dates. No bill is
// raised. The assignment order pairs the soonest-expiring reserved vouchers
// with the earliest dates.
func (s *Service) Assign(ctx context.Context, user auth.UserContext, employerCode string, nationalIDs []string, ranges []DateRange) (AcquireResult, error) {
	sum, err := s.ValidateAssign(ctx, user, employerCode, nationalIDs, ranges)
	if err != nil {
		return AcquireResult{}, err
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return AcquireResult{}, err
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, sum.Count)
	next := 0
	for _, d := range sum.Dates {
		for _, w := range sum.Workers {
			v := sum.Unassigned[next]
			next++
			if err := s.Store.AssignTx(ctx, tx, v.ID, w.ID, user.UserID, d); err != nil {
				return AcquireResult{}, err
			}
			ids = append(ids, v.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return AcquireResult{}, err
	}
	return AcquireResult{VoucherIDs: ids, Count: sum.Count, Price: decimal.Zero}, nil
}

func (s *Service) issueBill(ctx context.Context, tx pgx.Tx, employerID string, voucherIDs []string, today time.Time) (string, error) {
	billID, err := s.Bills.CreateBillTx(ctx, tx, employerID, voucherIDs, s.Cfg.UnitPrice(), BillDueDate(s.Cfg, today))
	if err != nil {
		return "", err
	}
	if err := s.Store.LinkBillTx(ctx, tx, voucherIDs, billID); err != nil {
		return "", err
	}
	return billID, nil
}

// Get returns a voucher by id if the caller may see it.
func (s *Service) Get(ctx context.Context, user auth.UserContext, id string) (Voucher, error) {
	v, err := s.Store.ByID(ctx, id)
	if err != nil {
		return Voucher{}, err
	}
	visible, err := s.visible(ctx, user, v)
	if err != nil {
		return Voucher{}, err
	}
	if !visible {
		return Voucher{}, ErrVoucherNotFound
	}
	return v, nil
}

// CheckByCode answers whether a voucher code is currently usable: assigned,
// unexpired, and live. The voucher is returned either way so callers can
// explain a negative answer.
func (s *Service) CheckByCode(ctx context.Context, code string) (bool, Voucher, error) {
	v, err := s.Store.ByCode(ctx, code)
	if err != nil {
		return false, Voucher{}, err
	}
	today := Day(s.Now())
	usable := v.Status == StatusAssigned && !Day(v.ExpiryDate).Before(today)
	return usable, v, nil
}

// Search lists vouchers the caller may see, scoped by affiliation unless the
// caller holds the search-all capability.
func (s *Service) Search(ctx context.Context, user auth.UserContext, employerCode string, f SearchFilter, limit, offset int) ([]Voucher, int, error) {
	all, err := s.searchAll(ctx, user)
	if err != nil {
		return nil, 0, err
	}
	return s.Store.Search(ctx, BuildVisibilityFilter(user.UserID, all, employerCode), f, limit, offset)
}

// YearlyCounts reports the employer's voucher volume for the given years.
func (s *Service) YearlyCounts(ctx context.Context, user auth.UserContext, employerCode string, years []int) (map[int]int, error) {
	res, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return nil, err
	}
	return s.Store.YearlyCountsByEmployer(ctx, res.emp.ID, years)
}

// WorkerYearlyCounts reports, keyed by employer code, how many live vouchers
// the worker holds for the given year. Without the search-all capability the
// map only covers employers the caller is affiliated with.
func (s *Service) WorkerYearlyCounts(ctx context.Context, user auth.UserContext, nationalID string, year int) (map[string]int, error) {
	all, err := s.searchAll(ctx, user)
	if err != nil {
		return nil, err
	}
	w, err := s.Workers.FindAny(ctx, nationalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", nationalID, ErrWorkerNotFound)
		}
		return nil, err
	}
	return s.Store.CountsPerEmployerForWorker(ctx, BuildVisibilityFilter(user.UserID, all, ""), w.ID, year)
}

// Create inserts a single voucher outside the acquisition workflows. A
// worker-bound status requires a worker and an assigned date and passes the
// same quota and conflict checks as an acquisition; an unassigned voucher
// must carry neither.
func (s *Service) Create(ctx context.Context, user auth.UserContext, employerCode string, in CreateInput) (Voucher, error) {
	res, err := s.resolveEmployer(ctx, user, employerCode)
	if err != nil {
		return Voucher{}, err
	}

	if in.Status == "" {
		in.Status = StatusUnassigned
	}
	if in.Status.Terminal() {
		return Voucher{}, fmt.Errorf("cannot create a %s voucher: %w", in.Status, ErrTerminalStatus)
	}

	today := Day(s.Now())
	expiry := in.ExpiryDate
	if expiry.IsZero() {
		expiry = PolicyExpiryDate(s.Cfg, today)
	} else {
		expiry = Day(expiry)
	}

	v := Voucher{
		Code:       uuid.NewString(),
		Status:     in.Status,
		ExpiryDate: expiry,
		EmployerID: res.emp.ID,
		UpdatedBy:  user.UserID,
	}

	if in.Status == StatusAssigned || in.Status == StatusAwaitingPayment {
		if in.NationalID == "" || in.AssignedDate == nil {
			return Voucher{}, fmt.Errorf("status %s: %w", in.Status, ErrWorkerRequired)
		}
		w, err := s.Workers.FindByNationalID(ctx, in.NationalID, employerCode, user.UserID, res.searchAll)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Voucher{}, fmt.Errorf("%s: %w", in.NationalID, ErrWorkerNotFound)
			}
			return Voucher{}, err
		}

		assigned := Day(*in.AssignedDate)
		if assigned.Before(today) {
			return Voucher{}, fmt.Errorf("%s: %w", assigned.Format(time.DateOnly), ErrDateInPast)
		}
		if assigned.After(expiry) {
			return Voucher{}, fmt.Errorf("%s: %w", assigned.Format(time.DateOnly), ErrDateAfterExpiry)
		}
		if err := s.checkYearlyQuota(ctx, []worker.Worker{w}, res.emp.ID, []time.Time{assigned}); err != nil {
			return Voucher{}, err
		}
		conflict, err := s.Store.ActiveOnDates(ctx, w.ID, res.emp.ID, []time.Time{assigned})
		if err != nil {
			return Voucher{}, err
		}
		if conflict {
			return Voucher{}, fmt.Errorf("worker %s: %w", w.NationalID, ErrConflictingVoucherExists)
		}

		workerID := w.ID
		v.WorkerID = &workerID
		v.AssignedDate = &assigned
	} else if in.NationalID != "" || in.AssignedDate != nil {
		return Voucher{}, fmt.Errorf("status %s: %w", in.Status, ErrWorkerNotAllowed)
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return Voucher{}, err
	}
	defer tx.Rollback(ctx)

	id, err := s.Store.InsertTx(ctx, tx, v)
	if err != nil {
		return Voucher{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Voucher{}, err
	}
	v.ID = id
	return v, nil
}

// Update rewrites a voucher's mutable fields. Terminal vouchers are frozen.
func (s *Service) Update(ctx context.Context, user auth.UserContext, v Voucher) error {
	current, err := s.Get(ctx, user, v.ID)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return fmt.Errorf("voucher %s is %s: %w", current.Code, current.Status, ErrTerminalStatus)
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	v.UpdatedBy = user.UserID
	if err := s.Store.UpdateTx(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete soft-deletes the given vouchers, all or none.
func (s *Service) Delete(ctx context.Context, user auth.UserContext, ids []string) error {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, id := range ids {
		if _, err := s.Get(ctx, user, id); err != nil {
			return err
		}
		if err := s.Store.SoftDeleteTx(ctx, tx, id, user.UserID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Service) visible(ctx context.Context, user auth.UserContext, v Voucher) (bool, error) {
	all, err := s.searchAll(ctx, user)
	if err != nil {
		return false, err
	}
	if all {
		return true, nil
	}
	return s.Employers.IsAffiliated(ctx, v.EmployerID, user.UserID)
}
