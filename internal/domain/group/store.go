package group

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"workervoucher/internal/domain/worker"
	"workervoucher/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) CreateTx(ctx context.Context, tx pgx.Tx, name, employerID string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO worker_groups (name, employer_id)
		VALUES ($1, $2)
		RETURNING id
	`, name, employerID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert group: %w", err)
	}
	return id, nil
}

func (s *Store) RenameTx(ctx context.Context, tx pgx.Tx, id, name string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE worker_groups
		SET name = $1, updated_at = now()
		WHERE id = $2 AND is_deleted = false
	`, name, id)
	if err != nil {
		return fmt.Errorf("rename group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReplaceMembersTx swaps the group's membership for the given worker ids.
func (s *Store) ReplaceMembersTx(ctx context.Context, tx pgx.Tx, groupID string, workerIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM worker_group_members WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("clear group members: %w", err)
	}
	for _, workerID := range workerIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO worker_group_members (group_id, worker_id)
			VALUES ($1, $2)
		`, groupID, workerID); err != nil {
			return fmt.Errorf("insert group member: %w", err)
		}
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE worker_groups
		SET is_deleted = true, updated_at = now()
		WHERE id = $1 AND is_deleted = false
	`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) ByID(ctx context.Context, id string) (Group, error) {
	var g Group
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, employer_id, is_deleted, created_at, updated_at
		FROM worker_groups
		WHERE id = $1 AND is_deleted = false
	`, id).Scan(&g.ID, &g.Name, &g.EmployerID, &g.IsDeleted, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return Group{}, err
	}
	g.Members, err = s.members(ctx, id)
	return g, err
}

func (s *Store) ListByEmployer(ctx context.Context, employerID string) ([]Group, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, employer_id, is_deleted, created_at, updated_at
		FROM worker_groups
		WHERE employer_id = $1 AND is_deleted = false
		ORDER BY name
	`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.EmployerID, &g.IsDeleted, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) members(ctx context.Context, groupID string) ([]worker.Worker, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT w.id, w.national_id, w.first_name, w.last_name, w.date_of_birth, w.is_deleted, w.created_at
		FROM workers w
		JOIN worker_group_members m ON m.worker_id = w.id
		WHERE m.group_id = $1 AND w.is_deleted = false
		ORDER BY w.last_name, w.first_name
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []worker.Worker
	for rows.Next() {
		var w worker.Worker
		if err := rows.Scan(&w.ID, &w.NationalID, &w.FirstName, &w.LastName, &w.DateOfBirth, &w.IsDeleted, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
