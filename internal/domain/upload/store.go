package upload

import (
	"context"

	"workervoucher/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, fileName, employerID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO worker_uploads (file_name, employer_id, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, fileName, employerID, string(StatusTriggered)).Scan(&id)
	return id, err
}

func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE worker_uploads
		SET status = $1, updated_at = now()
		WHERE id = $2
	`, string(status), id)
	return err
}

// Finish records the outcome counts and the annotated error file.
func (s *Store) Finish(ctx context.Context, id string, status Status, totalRows, failedRows int, errorCSV []byte) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE worker_uploads
		SET status = $1, total_rows = $2, failed_rows = $3, error_csv = $4, updated_at = now()
		WHERE id = $5
	`, string(status), totalRows, failedRows, errorCSV, id)
	return err
}

func (s *Store) ByID(ctx context.Context, id string) (Upload, error) {
	var u Upload
	err := s.DB.QueryRow(ctx, `
		SELECT id, file_name, employer_id, status, total_rows, failed_rows, created_at, updated_at
		FROM worker_uploads
		WHERE id = $1
	`, id).Scan(&u.ID, &u.FileName, &u.EmployerID, &u.Status, &u.TotalRows, &u.FailedRows, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ErrorFile returns the annotated error CSV for a finished upload. Nil when
// the upload had no failing rows.
func (s *Store) ErrorFile(ctx context.Context, id string) ([]byte, error) {
	var csv []byte
	err := s.DB.QueryRow(ctx, `
		SELECT error_csv FROM worker_uploads WHERE id = $1
	`, id).Scan(&csv)
	return csv, err
}

func (s *Store) ListByEmployer(ctx context.Context, employerID string) ([]Upload, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, file_name, employer_id, status, total_rows, failed_rows, created_at, updated_at
		FROM worker_uploads
		WHERE employer_id = $1
		ORDER BY created_at DESC
	`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.FileName, &u.EmployerID, &u.Status, &u.TotalRows, &u.FailedRows, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
