package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"workervoucher/internal/platform/querier"
)

const voucherColumns = `v.id, v.code, v.status, v.assigned_date, v.expiry_date,
	v.worker_id, v.employer_id, v.bill_id, v.is_deleted, v.version,
	v.created_at, v.updated_at, v.updated_by`

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func scanVoucher(row pgx.Row) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Code, &v.Status, &v.AssignedDate, &v.ExpiryDate,
		&v.WorkerID, &v.EmployerID, &v.BillID, &v.IsDeleted, &v.Version,
		&v.CreatedAt, &v.UpdatedAt, &v.UpdatedBy)
	return v, err
}

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) ByID(ctx context.Context, id string) (Voucher, error) {
	v, err := scanVoucher(s.DB.QueryRow(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers v
		WHERE v.id = $1 AND v.is_deleted = false
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Voucher{}, ErrVoucherNotFound
	}
	return v, err
}

func (s *Store) ByCode(ctx context.Context, code string) (Voucher, error) {
	v, err := scanVoucher(s.DB.QueryRow(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers v
		WHERE v.code = $1 AND v.is_deleted = false
	`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Voucher{}, ErrVoucherNotFound
	}
	return v, err
}

// Search lists vouchers visible to the caller, newest first, with a total
// count for paging.
func (s *Store) Search(ctx context.Context, vis VisibilityFilter, f SearchFilter, limit, offset int) ([]Voucher, int, error) {
	base := `
		FROM vouchers v
		JOIN employers e ON e.id = v.employer_id
		WHERE v.is_deleted = false`

	visClause, visArgs := vis.SQL(1)
	fClause, fArgs := f.SQL(1 + len(visArgs))
	args := append(visArgs, fArgs...)

	var total int
	err := s.DB.QueryRow(ctx, "SELECT count(*)"+base+visClause+fClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count vouchers: %w", err)
	}

	query := "SELECT " + voucherColumns + base + visClause + fClause +
		fmt.Sprintf(" ORDER BY v.created_at DESC, v.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search vouchers: %w", err)
	}
	defer rows.Close()

	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// CountForYear counts a worker's non-terminal vouchers with the employer whose
// assigned date falls in the given calendar year.
func (s *Store) CountForYear(ctx context.Context, workerID, employerID string, year int) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
		SELECT count(*)
		FROM vouchers v
		WHERE v.worker_id = $1
		  AND v.employer_id = $2
		  AND v.status = ANY($3)
		  AND v.is_deleted = false
		  AND date_part('year', v.assigned_date) = $4
	`, workerID, employerID, statusStrings(NonTerminalStatuses), year).Scan(&count)
	return count, err
}

// ActiveOnDates reports whether the worker already holds a non-terminal
// voucher with the employer on any of the given dates.
func (s *Store) ActiveOnDates(ctx context.Context, workerID, employerID string, dates []time.Time) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM vouchers v
			WHERE v.worker_id = $1
			  AND v.employer_id = $2
			  AND v.status = ANY($3)
			  AND v.is_deleted = false
			  AND v.assigned_date = ANY($4)
		)
	`, workerID, employerID, statusStrings(NonTerminalStatuses), dates).Scan(&exists)
	return exists, err
}

// ActiveOnOrAfter reports whether the worker holds a non-terminal voucher with
// the employer assigned on or after the cutoff date.
func (s *Store) ActiveOnOrAfter(ctx context.Context, workerID, employerID string, cutoff time.Time) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM vouchers v
			WHERE v.worker_id = $1
			  AND v.employer_id = $2
			  AND v.status = ANY($3)
			  AND v.is_deleted = false
			  AND v.assigned_date >= $4
		)
	`, workerID, employerID, statusStrings(NonTerminalStatuses), cutoff).Scan(&exists)
	return exists, err
}

// UnassignedPool fetches the employer's live unassigned vouchers for the
// allocator to pick from.
func (s *Store) UnassignedPool(ctx context.Context, employerID string) ([]Voucher, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers v
		WHERE v.employer_id = $1
		  AND v.status = $2
		  AND v.is_deleted = false
	`, employerID, string(StatusUnassigned))
	if err != nil {
		return nil, fmt.Errorf("unassigned pool: %w", err)
	}
	defer rows.Close()

	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountsPerEmployerForWorker counts the worker's non-terminal vouchers per
// employer code whose assigned date falls in the given year, limited to
// employers the caller may see.
func (s *Store) CountsPerEmployerForWorker(ctx context.Context, vis VisibilityFilter, workerID string, year int) (map[string]int, error) {
	visClause, visArgs := vis.SQL(4)
	args := append([]any{workerID, statusStrings(NonTerminalStatuses), year}, visArgs...)

	rows, err := s.DB.Query(ctx, `
		SELECT e.code, count(*)
		FROM vouchers v
		JOIN employers e ON e.id = v.employer_id
		WHERE v.worker_id = $1
		  AND v.status = ANY($2)
		  AND v.is_deleted = false
		  AND date_part('year', v.assigned_date) = $3`+visClause+`
		GROUP BY e.code
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("worker yearly counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		counts[code] = count
	}
	return counts, rows.Err()
}

// YearlyCountsByEmployer counts the employer's non-deleted vouchers per
// calendar year of creation.
func (s *Store) YearlyCountsByEmployer(ctx context.Context, employerID string, years []int) (map[int]int, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT date_part('year', v.created_at)::int AS yr, count(*)
		FROM vouchers v
		WHERE v.employer_id = $1
		  AND v.is_deleted = false
		  AND date_part('year', v.created_at) = ANY($2)
		GROUP BY yr
	`, employerID, years)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int, len(years))
	for _, y := range years {
		counts[y] = 0
	}
	for rows.Next() {
		var year, count int
		if err := rows.Scan(&year, &count); err != nil {
			return nil, err
		}
		counts[year] = count
	}
	return counts, rows.Err()
}

func (s *Store) InsertTx(ctx context.Context, tx pgx.Tx, v Voucher) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO vouchers (code, status, assigned_date, expiry_date, worker_id, employer_id, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, v.Code, string(v.Status), v.AssignedDate, v.ExpiryDate, v.WorkerID, v.EmployerID, v.UpdatedBy).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert voucher: %w", err)
	}
	return id, nil
}

// AssignTx moves an unassigned voucher to assigned. The status guard keeps a
// concurrent assignment of the same voucher from succeeding twice.
func (s *Store) AssignTx(ctx context.Context, tx pgx.Tx, voucherID, workerID, updatedBy string, assignedDate time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE vouchers
		SET status = $1, worker_id = $2, assigned_date = $3,
		    updated_by = $4, updated_at = now(), version = version + 1
		WHERE id = $5 AND status = $6 AND is_deleted = false
	`, string(StatusAssigned), workerID, assignedDate, updatedBy, voucherID, string(StatusUnassigned))
	if err != nil {
		return fmt.Errorf("assign voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

func (s *Store) LinkBillTx(ctx context.Context, tx pgx.Tx, voucherIDs []string, billID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE vouchers
		SET bill_id = $1, updated_at = now(), version = version + 1
		WHERE id = ANY($2)
	`, billID, voucherIDs)
	if err != nil {
		return fmt.Errorf("link bill: %w", err)
	}
	return nil
}

func (s *Store) UpdateTx(ctx context.Context, tx pgx.Tx, v Voucher) error {
	tag, err := tx.Exec(ctx, `
		UPDATE vouchers
		SET status = $1, assigned_date = $2, expiry_date = $3, worker_id = $4,
		    updated_by = $5, updated_at = now(), version = version + 1
		WHERE id = $6 AND is_deleted = false
	`, string(v.Status), v.AssignedDate, v.ExpiryDate, v.WorkerID, v.UpdatedBy, v.ID)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

func (s *Store) SoftDeleteTx(ctx context.Context, tx pgx.Tx, id, updatedBy string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE vouchers
		SET is_deleted = true, updated_by = $1, updated_at = now(), version = version + 1
		WHERE id = $2 AND is_deleted = false
	`, updatedBy, id)
	if err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

// ExpireDue flips past-expiry live vouchers to expired. Run periodically.
func (s *Store) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
		UPDATE vouchers
		SET status = $1, updated_at = now(), version = version + 1
		WHERE status = ANY($2)
		  AND is_deleted = false
		  AND expiry_date < $3
	`, string(StatusExpired), statusStrings([]Status{StatusUnassigned, StatusAssigned, StatusAwaitingPayment}), now)
	if err != nil {
		return 0, fmt.Errorf("expire vouchers: %w", err)
	}
	return tag.RowsAffected(), nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
