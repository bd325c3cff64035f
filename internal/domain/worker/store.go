package worker

import (
	"context"

	"github.com/jackc/pgx/v5"

	"workervoucher/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const workerColumns = "w.id, w.national_id, w.first_name, w.last_name, w.date_of_birth, w.is_deleted, w.created_at"

func scanWorker(row pgx.Row) (Worker, error) {
	var w Worker
	err := row.Scan(&w.ID, &w.NationalID, &w.FirstName, &w.LastName, &w.DateOfBirth, &w.IsDeleted, &w.CreatedAt)
	return w, err
}

// FindByNationalID resolves a worker by national id, scoped to an employer
// and to the requesting user's affiliations.
func (s *Store) FindByNationalID(ctx context.Context, nationalID, employerCode, userID string, searchAll bool) (Worker, error) {
	filter := BuildVisibilityFilter(userID, searchAll, employerCode)
	clause, filterArgs := filter.SQL(2)

	query := "SELECT " + workerColumns + " FROM workers w WHERE w.national_id = $1 AND w.is_deleted = false" + clause
	args := append([]any{nationalID}, filterArgs...)

	return scanWorker(s.DB.QueryRow(ctx, query, args...))
}

// List returns workers visible through the filter.
func (s *Store) List(ctx context.Context, filter VisibilityFilter) ([]Worker, error) {
	clause, args := filter.SQL(1)
	query := "SELECT " + workerColumns + " FROM workers w WHERE w.is_deleted = false" + clause + " ORDER BY w.last_name, w.first_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Create inserts a worker row.
func (s *Store) Create(ctx context.Context, w Worker) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO workers (national_id, first_name, last_name, date_of_birth)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, w.NationalID, w.FirstName, w.LastName, w.DateOfBirth).Scan(&id)
	return id, err
}

// FindAny resolves a worker by national id with no visibility scoping. Used
// by registration flows that need to know whether the person exists at all.
func (s *Store) FindAny(ctx context.Context, nationalID string) (Worker, error) {
	query := "SELECT " + workerColumns + " FROM workers w WHERE w.national_id = $1 AND w.is_deleted = false"
	return scanWorker(s.DB.QueryRow(ctx, query, nationalID))
}

// HasActiveAffiliation reports whether the worker is currently affiliated to
// the employer.
func (s *Store) HasActiveAffiliation(ctx context.Context, workerID, employerID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM employer_workers
    WHERE worker_id = $1 AND employer_id = $2 AND is_deleted = false
  `, workerID, employerID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateAffiliation links a worker to an employer.
func (s *Store) CreateAffiliation(ctx context.Context, workerID, employerID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employer_workers (worker_id, employer_id)
    VALUES ($1,$2)
  `, workerID, employerID)
	return err
}

// RemoveAffiliation soft-deletes the worker's affiliation to the employer.
// The worker row itself is retained for audit.
func (s *Store) RemoveAffiliation(ctx context.Context, workerID, employerID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE employer_workers
    SET is_deleted = true, updated_at = now()
    WHERE worker_id = $1 AND employer_id = $2 AND is_deleted = false
  `, workerID, employerID)
	return err
}

// PreviousWorkers lists distinct workers that ever held a voucher at the
// employer, regardless of current affiliation.
func (s *Store) PreviousWorkers(ctx context.Context, employerCode string) ([]Worker, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT `+workerColumns+`
    FROM workers w
    JOIN vouchers v ON v.worker_id = w.id
    JOIN employers e ON v.employer_id = e.id
    WHERE e.code = $1 AND v.is_deleted = false AND e.is_deleted = false AND w.is_deleted = false
    ORDER BY w.last_name, w.first_name, w.id
  `, employerCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
