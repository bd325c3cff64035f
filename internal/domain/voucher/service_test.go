package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/employer"
	"workervoucher/internal/domain/worker"
	"workervoucher/internal/platform/config"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.committed || t.rolledBack {
		return pgx.ErrTxClosed
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                               { return nil }

type assignment struct {
	voucherID string
	workerID  string
	date      time.Time
}

type fakeStore struct {
	vouchers map[string]Voucher
	byCode   map[string]Voucher

	countForYear    map[string]int
	workerCounts    map[string]int
	conflictOnDates bool
	conflictOnward  bool
	pool            []Voucher

	tx          *fakeTx
	inserted    []Voucher
	assigned    []assignment
	linkedBill  string
	linkedIDs   []string
	updated     []Voucher
	softDeleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vouchers:     map[string]Voucher{},
		byCode:       map[string]Voucher{},
		countForYear: map[string]int{},
		workerCounts: map[string]int{},
	}
}

func (s *fakeStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	s.tx = &fakeTx{}
	return s.tx, nil
}

func (s *fakeStore) ByID(ctx context.Context, id string) (Voucher, error) {
	v, ok := s.vouchers[id]
	if !ok {
		return Voucher{}, ErrVoucherNotFound
	}
	return v, nil
}

func (s *fakeStore) ByCode(ctx context.Context, code string) (Voucher, error) {
	v, ok := s.byCode[code]
	if !ok {
		return Voucher{}, ErrVoucherNotFound
	}
	return v, nil
}

func (s *fakeStore) Search(ctx context.Context, vis VisibilityFilter, f SearchFilter, limit, offset int) ([]Voucher, int, error) {
	return nil, 0, nil
}

func (s *fakeStore) CountForYear(ctx context.Context, workerID, employerID string, year int) (int, error) {
	return s.countForYear[fmt.Sprintf("%s:%d", workerID, year)], nil
}

func (s *fakeStore) ActiveOnDates(ctx context.Context, workerID, employerID string, dates []time.Time) (bool, error) {
	return s.conflictOnDates, nil
}

func (s *fakeStore) ActiveOnOrAfter(ctx context.Context, workerID, employerID string, cutoff time.Time) (bool, error) {
	return s.conflictOnward, nil
}

func (s *fakeStore) UnassignedPool(ctx context.Context, employerID string) ([]Voucher, error) {
	return s.pool, nil
}

func (s *fakeStore) YearlyCountsByEmployer(ctx context.Context, employerID string, years []int) (map[int]int, error) {
	return map[int]int{}, nil
}

func (s *fakeStore) CountsPerEmployerForWorker(ctx context.Context, vis VisibilityFilter, workerID string, year int) (map[string]int, error) {
	counts := map[string]int{}
	prefix := fmt.Sprintf("%s:%d:", workerID, year)
	for key, count := range s.workerCounts {
		if strings.HasPrefix(key, prefix) {
			counts[strings.TrimPrefix(key, prefix)] = count
		}
	}
	return counts, nil
}

func (s *fakeStore) InsertTx(ctx context.Context, tx pgx.Tx, v Voucher) (string, error) {
	v.ID = fmt.Sprintf("v-%d", len(s.inserted)+1)
	s.inserted = append(s.inserted, v)
	return v.ID, nil
}

func (s *fakeStore) AssignTx(ctx context.Context, tx pgx.Tx, voucherID, workerID, updatedBy string, assignedDate time.Time) error {
	s.assigned = append(s.assigned, assignment{voucherID: voucherID, workerID: workerID, date: assignedDate})
	return nil
}

func (s *fakeStore) LinkBillTx(ctx context.Context, tx pgx.Tx, voucherIDs []string, billID string) error {
	s.linkedBill = billID
	s.linkedIDs = voucherIDs
	return nil
}

func (s *fakeStore) UpdateTx(ctx context.Context, tx pgx.Tx, v Voucher) error {
	s.updated = append(s.updated, v)
	return nil
}

func (s *fakeStore) SoftDeleteTx(ctx context.Context, tx pgx.Tx, id, updatedBy string) error {
	s.softDeleted = append(s.softDeleted, id)
	return nil
}

type fakeEmployers struct {
	employer   employer.Employer
	notFound   bool
	affiliated bool
}

func (f *fakeEmployers) FindByCode(ctx context.Context, code, userID string, searchAll bool) (employer.Employer, error) {
	if f.notFound {
		return employer.Employer{}, pgx.ErrNoRows
	}
	return f.employer, nil
}

func (f *fakeEmployers) IsAffiliated(ctx context.Context, employerID, userID string) (bool, error) {
	return f.affiliated, nil
}

type fakeWorkers struct {
	workers map[string]worker.Worker
}

func (f *fakeWorkers) FindByNationalID(ctx context.Context, nationalID, employerCode, userID string, searchAll bool) (worker.Worker, error) {
	w, ok := f.workers[nationalID]
	if !ok {
		return worker.Worker{}, pgx.ErrNoRows
	}
	return w, nil
}

func (f *fakeWorkers) FindAny(ctx context.Context, nationalID string) (worker.Worker, error) {
	return f.FindByNationalID(ctx, nationalID, "", "", false)
}

type recordingBills struct {
	created   bool
	unitPrice decimal.Decimal
	dueDate   time.Time
}

func (f *recordingBills) CreateBillTx(ctx context.Context, tx pgx.Tx, employerID string, voucherIDs []string, unitPrice decimal.Decimal, dueDate time.Time) (string, error) {
	f.created = true
	f.unitPrice = unitPrice
	f.dueDate = dueDate
	return "bill-1", nil
}

type fakePerms struct {
	searchAll bool
}

func (f *fakePerms) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	if permission == auth.PermVoucherSearchAll {
		return f.searchAll, nil
	}
	return true, nil
}

func testCfg() config.Config {
	return config.Config{
		PricePerVoucher:          "100.00",
		MaxGenericVouchers:       10,
		YearlyWorkerVoucherLimit: 120,
		VoucherExpiryType:        config.ExpiryTypeEndOfYear,
		VoucherBillDuePeriodDays: 30,
		UnassignedVoucherEnabled: true,
	}
}

func newTestService(cfg config.Config, store *fakeStore, employers *fakeEmployers, workers *fakeWorkers, bills BillIssuer) *Service {
	svc := NewService(cfg, store, employers, workers, bills, &fakePerms{searchAll: true})
	svc.Now = func() time.Time { return date(2026, time.March, 1) }
	return svc
}

var testUser = auth.UserContext{UserID: "user-1", RoleID: "role-1"}

func TestAcquireUnassignedCreatesVouchersAndBill(t *testing.T) {
	store := newFakeStore()
	bills := &recordingBills{}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1", Code: "EMP-1"}}, &fakeWorkers{}, bills)

	res, err := svc.AcquireUnassigned(context.Background(), testUser, "EMP-1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.VoucherIDs) != 3 {
		t.Fatalf("expected 3 vouchers, got %d", len(res.VoucherIDs))
	}
	if res.BillID != "bill-1" {
		t.Fatalf("expected bill-1, got %q", res.BillID)
	}
	if !res.Price.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected price 300, got %s", res.Price)
	}
	for _, v := range store.inserted {
		if v.Status != StatusUnassigned {
			t.Fatalf("expected unassigned status, got %s", v.Status)
		}
		if !v.ExpiryDate.Equal(date(2026, time.December, 31)) {
			t.Fatalf("expected end-of-year expiry, got %s", v.ExpiryDate.Format(time.DateOnly))
		}
	}
	if store.linkedBill != "bill-1" || len(store.linkedIDs) != 3 {
		t.Fatalf("expected bill linked to 3 vouchers, got %q %v", store.linkedBill, store.linkedIDs)
	}
	if !store.tx.committed {
		t.Fatal("expected transaction commit")
	}
	if !bills.dueDate.Equal(date(2026, time.March, 31)) {
		t.Fatalf("expected due date 2026-03-31, got %s", bills.dueDate.Format(time.DateOnly))
	}
}

func TestAcquireUnassignedFeatureDisabled(t *testing.T) {
	cfg := testCfg()
	cfg.UnassignedVoucherEnabled = false
	svc := newTestService(cfg, newFakeStore(), &fakeEmployers{}, &fakeWorkers{}, &recordingBills{})

	_, err := svc.AcquireUnassigned(context.Background(), testUser, "EMP-1", 1)
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
}

func TestAcquireUnassignedCountBounds(t *testing.T) {
	svc := newTestService(testCfg(), newFakeStore(), &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, &fakeWorkers{}, &recordingBills{})

	for _, count := range []int{0, -1, 11} {
		_, err := svc.AcquireUnassigned(context.Background(), testUser, "EMP-1", count)
		if !errors.Is(err, ErrInvalidCount) {
			t.Fatalf("count %d: expected ErrInvalidCount, got %v", count, err)
		}
	}
}

func TestAcquireUnassignedUnknownEmployer(t *testing.T) {
	svc := newTestService(testCfg(), newFakeStore(), &fakeEmployers{notFound: true}, &fakeWorkers{}, &recordingBills{})

	_, err := svc.AcquireUnassigned(context.Background(), testUser, "NOPE", 1)
	if !errors.Is(err, ErrEmployerNotFound) {
		t.Fatalf("expected ErrEmployerNotFound, got %v", err)
	}
}

func TestAcquireAssignedCreatesCartesianProduct(t *testing.T) {
	store := newFakeStore()
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
		"2222222222222": {ID: "w-2", NationalID: "2222222222222"},
	}}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 2)}}
	res, err := svc.AcquireAssigned(context.Background(), testUser, "EMP-1", []string{"1111111111111", "2222222222222"}, ranges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 4 || len(store.inserted) != 4 {
		t.Fatalf("expected 4 vouchers, got count=%d inserted=%d", res.Count, len(store.inserted))
	}
	if !res.Price.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected price 400, got %s", res.Price)
	}
	for _, v := range store.inserted {
		if v.Status != StatusAwaitingPayment {
			t.Fatalf("expected awaiting_payment, got %s", v.Status)
		}
		if v.WorkerID == nil || v.AssignedDate == nil {
			t.Fatal("expected worker and assigned date on every voucher")
		}
	}
	if res.BillID == "" {
		t.Fatal("expected a bill")
	}
}

func TestAcquireAssignedDuplicateWorker(t *testing.T) {
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(testCfg(), newFakeStore(), &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 1)}}
	_, err := svc.AcquireAssigned(context.Background(), testUser, "EMP-1", []string{"1111111111111", "1111111111111"}, ranges)
	if !errors.Is(err, ErrDuplicateWorker) {
		t.Fatalf("expected ErrDuplicateWorker, got %v", err)
	}
}

func TestAcquireAssignedConflict(t *testing.T) {
	store := newFakeStore()
	store.conflictOnDates = true
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 1)}}
	_, err := svc.AcquireAssigned(context.Background(), testUser, "EMP-1", []string{"1111111111111"}, ranges)
	if !errors.Is(err, ErrConflictingVoucherExists) {
		t.Fatalf("expected ErrConflictingVoucherExists, got %v", err)
	}
}

func TestAcquireAssignedYearlyQuota(t *testing.T) {
	store := newFakeStore()
	store.countForYear["w-1:2026"] = 119
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 2)}}
	_, err := svc.AcquireAssigned(context.Background(), testUser, "EMP-1", []string{"1111111111111"}, ranges)
	if !errors.Is(err, ErrYearlyLimitExceeded) {
		t.Fatalf("expected ErrYearlyLimitExceeded, got %v", err)
	}
}

func TestAssignPairsOldestExpiringFirst(t *testing.T) {
	store := newFakeStore()
	store.pool = []Voucher{
		{ID: "v-late", Code: "late", Status: StatusUnassigned, ExpiryDate: date(2026, time.December, 31)},
		{ID: "v-soon", Code: "soon", Status: StatusUnassigned, ExpiryDate: date(2026, time.June, 30)},
	}
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	bills := &recordingBills{}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, bills)

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 2)}}
	res, err := svc.Assign(context.Background(), testUser, "EMP-1", []string{"1111111111111"}, ranges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.assigned) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(store.assigned))
	}
	if store.assigned[0].voucherID != "v-soon" {
		t.Fatalf("expected soonest-expiring voucher first, got %s", store.assigned[0].voucherID)
	}
	if !store.assigned[0].date.Equal(date(2026, time.April, 1)) {
		t.Fatalf("expected earliest date first, got %s", store.assigned[0].date.Format(time.DateOnly))
	}
	if bills.created {
		t.Fatal("assignment must not raise a bill")
	}
	if !res.Price.IsZero() {
		t.Fatalf("expected zero price, got %s", res.Price)
	}
	if !store.tx.committed {
		t.Fatal("expected transaction commit")
	}
}

func TestAssignInsufficientInventory(t *testing.T) {
	store := newFakeStore()
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 1)}}
	_, err := svc.Assign(context.Background(), testUser, "EMP-1", []string{"1111111111111"}, ranges)
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
}

func TestAssignConflictFromEarliestDateOnward(t *testing.T) {
	store := newFakeStore()
	store.conflictOnward = true
	store.pool = []Voucher{
		{ID: "v-1", Code: "a", Status: StatusUnassigned, ExpiryDate: date(2026, time.December, 31)},
	}
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 1)}}
	_, err := svc.Assign(context.Background(), testUser, "EMP-1", []string{"1111111111111"}, ranges)
	if !errors.Is(err, ErrConflictingVoucherExists) {
		t.Fatalf("expected ErrConflictingVoucherExists, got %v", err)
	}
}

func TestCheckByCode(t *testing.T) {
	store := newFakeStore()
	store.byCode["good"] = Voucher{Code: "good", Status: StatusAssigned, ExpiryDate: date(2026, time.December, 31)}
	store.byCode["lapsed"] = Voucher{Code: "lapsed", Status: StatusAssigned, ExpiryDate: date(2026, time.February, 1)}
	store.byCode["pending"] = Voucher{Code: "pending", Status: StatusAwaitingPayment, ExpiryDate: date(2026, time.December, 31)}
	svc := newTestService(testCfg(), store, &fakeEmployers{}, &fakeWorkers{}, &recordingBills{})

	usable, _, err := svc.CheckByCode(context.Background(), "good")
	if err != nil || !usable {
		t.Fatalf("expected usable voucher, got usable=%v err=%v", usable, err)
	}
	usable, _, err = svc.CheckByCode(context.Background(), "lapsed")
	if err != nil || usable {
		t.Fatalf("expected lapsed voucher unusable, got usable=%v err=%v", usable, err)
	}
	usable, _, err = svc.CheckByCode(context.Background(), "pending")
	if err != nil || usable {
		t.Fatalf("expected unpaid voucher unusable, got usable=%v err=%v", usable, err)
	}
}

func TestUpdateRejectsTerminalVoucher(t *testing.T) {
	store := newFakeStore()
	store.vouchers["v-1"] = Voucher{ID: "v-1", Code: "c", Status: StatusExpired, EmployerID: "emp-1"}
	svc := newTestService(testCfg(), store, &fakeEmployers{}, &fakeWorkers{}, &recordingBills{})

	err := svc.Update(context.Background(), testUser, Voucher{ID: "v-1", Status: StatusAssigned})
	if !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("expected ErrTerminalStatus, got %v", err)
	}
	if len(store.updated) != 0 {
		t.Fatal("terminal voucher must not be written")
	}
}

func TestGetHiddenWithoutAffiliation(t *testing.T) {
	store := newFakeStore()
	store.vouchers["v-1"] = Voucher{ID: "v-1", EmployerID: "emp-1"}
	svc := NewService(testCfg(), store, &fakeEmployers{affiliated: false}, &fakeWorkers{}, &recordingBills{}, &fakePerms{searchAll: false})
	svc.Now = func() time.Time { return date(2026, time.March, 1) }

	_, err := svc.Get(context.Background(), testUser, "v-1")
	if !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got %v", err)
	}
}

func TestDeleteAllOrNone(t *testing.T) {
	store := newFakeStore()
	store.vouchers["v-1"] = Voucher{ID: "v-1", EmployerID: "emp-1"}
	svc := newTestService(testCfg(), store, &fakeEmployers{}, &fakeWorkers{}, &recordingBills{})

	err := svc.Delete(context.Background(), testUser, []string{"v-1", "v-missing"})
	if !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got %v", err)
	}
	if store.tx.committed {
		t.Fatal("failed delete must not commit")
	}
}

func TestAcquireAssignedAtLimitAllowsNextYear(t *testing.T) {
	cfg := testCfg()
	cfg.VoucherExpiryType = config.ExpiryTypeFixedPeriod
	cfg.VoucherExpiryPeriodDays = 730
	store := newFakeStore()
	store.countForYear["w-1:2026"] = 120
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(cfg, store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	ranges := []DateRange{{Start: date(2026, time.April, 1), End: date(2026, time.April, 1)}}
	_, err := svc.AcquireAssigned(context.Background(), testUser, "EMP-1", []string{"1111111111111"}, ranges)
	if !errors.Is(err, ErrYearlyLimitExceeded) {
		t.Fatalf("expected ErrYearlyLimitExceeded for the saturated year, got %v", err)
	}

	ranges = []DateRange{{Start: date(2027, time.January, 4), End: date(2027, time.January, 4)}}
	res, err := svc.AcquireAssigned(context.Background(), testUser, "EMP-1", []string{"1111111111111"}, ranges)
	if err != nil {
		t.Fatalf("next year must not count against the saturated year: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("expected 1 voucher, got %d", res.Count)
	}
}

func TestValidateAcquireUnassignedRepeatable(t *testing.T) {
	store := newFakeStore()
	bills := &recordingBills{}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1", Code: "EMP-1"}}, &fakeWorkers{}, bills)

	first, err := svc.ValidateAcquireUnassigned(context.Background(), testUser, "EMP-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ValidateAcquireUnassigned(context.Background(), testUser, "EMP-1", 5)
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if first.Count != second.Count || !first.Price.Equal(second.Price) || !first.PricePerVoucher.Equal(second.PricePerVoucher) {
		t.Fatalf("repeated validation diverged: %+v vs %+v", first.Summary(), second.Summary())
	}
	if len(store.inserted) != 0 || bills.created || store.tx != nil {
		t.Fatal("validation must not write")
	}
}

func TestWorkerYearlyCountsKeyedByEmployer(t *testing.T) {
	store := newFakeStore()
	store.workerCounts["w-1:2026:EMP-1"] = 3
	store.workerCounts["w-1:2026:EMP-2"] = 1
	store.workerCounts["w-1:2025:EMP-1"] = 9
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(testCfg(), store, &fakeEmployers{}, workers, &recordingBills{})

	counts, err := svc.WorkerYearlyCounts(context.Background(), testUser, "1111111111111", 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != 2 || counts["EMP-1"] != 3 || counts["EMP-2"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestWorkerYearlyCountsUnknownWorker(t *testing.T) {
	svc := newTestService(testCfg(), newFakeStore(), &fakeEmployers{}, &fakeWorkers{}, &recordingBills{})

	_, err := svc.WorkerYearlyCounts(context.Background(), testUser, "9999999999999", 2026)
	if !errors.Is(err, ErrWorkerNotFound) {
		t.Fatalf("expected ErrWorkerNotFound, got %v", err)
	}
}

func TestCreateUnassignedDefaultsToPolicyExpiry(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, &fakeWorkers{}, &recordingBills{})

	v, err := svc.Create(context.Background(), testUser, "EMP-1", CreateInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusUnassigned {
		t.Fatalf("expected unassigned, got %s", v.Status)
	}
	if !v.ExpiryDate.Equal(date(2026, time.December, 31)) {
		t.Fatalf("expected end-of-year expiry, got %s", v.ExpiryDate.Format(time.DateOnly))
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserted))
	}
	if !store.tx.committed {
		t.Fatal("expected transaction commit")
	}
}

func TestCreateAssignedRequiresWorkerAndDate(t *testing.T) {
	svc := newTestService(testCfg(), newFakeStore(), &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, &fakeWorkers{}, &recordingBills{})

	_, err := svc.Create(context.Background(), testUser, "EMP-1", CreateInput{Status: StatusAssigned})
	if !errors.Is(err, ErrWorkerRequired) {
		t.Fatalf("expected ErrWorkerRequired, got %v", err)
	}
}

func TestCreateRejectsTerminalStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, &fakeWorkers{}, &recordingBills{})

	_, err := svc.Create(context.Background(), testUser, "EMP-1", CreateInput{Status: StatusExpired})
	if !errors.Is(err, ErrTerminalStatus) {
		t.Fatalf("expected ErrTerminalStatus, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatal("terminal status must not be written")
	}
}

func TestCreateUnassignedRejectsWorker(t *testing.T) {
	svc := newTestService(testCfg(), newFakeStore(), &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, &fakeWorkers{}, &recordingBills{})

	_, err := svc.Create(context.Background(), testUser, "EMP-1", CreateInput{NationalID: "1111111111111"})
	if !errors.Is(err, ErrWorkerNotAllowed) {
		t.Fatalf("expected ErrWorkerNotAllowed, got %v", err)
	}
}

func TestCreateAssignedChecksConflicts(t *testing.T) {
	store := newFakeStore()
	store.conflictOnDates = true
	workers := &fakeWorkers{workers: map[string]worker.Worker{
		"1111111111111": {ID: "w-1", NationalID: "1111111111111"},
	}}
	svc := newTestService(testCfg(), store, &fakeEmployers{employer: employer.Employer{ID: "emp-1"}}, workers, &recordingBills{})

	assigned := date(2026, time.April, 1)
	_, err := svc.Create(context.Background(), testUser, "EMP-1", CreateInput{
		Status:       StatusAssigned,
		NationalID:   "1111111111111",
		AssignedDate: &assigned,
	})
	if !errors.Is(err, ErrConflictingVoucherExists) {
		t.Fatalf("expected ErrConflictingVoucherExists, got %v", err)
	}
}
