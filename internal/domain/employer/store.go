package employer

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

// FindByCode resolves an employer by business code. Unless searchAll is set,
// the lookup is scoped to employers the user is affiliated with.
func (s *Store) FindByCode(ctx context.Context, code, userID string, searchAll bool) (Employer, error) {
	query := `
    SELECT e.id, e.code, e.trade_name, e.is_deleted, e.created_at
    FROM employers e
    WHERE e.code = $1 AND e.is_deleted = false
  `
	args := []any{code}
	if !searchAll {
		query += " AND EXISTS (SELECT 1 FROM employer_users eu WHERE eu.employer_id = e.id AND eu.user_id = $2 AND eu.is_deleted = false)"
		args = append(args, userID)
	}

	var out Employer
	err := s.DB.QueryRow(ctx, query, args...).Scan(&out.ID, &out.Code, &out.TradeName, &out.IsDeleted, &out.CreatedAt)
	return out, err
}

// IsAffiliated reports whether the user may act for the employer.
func (s *Store) IsAffiliated(ctx context.Context, employerID, userID string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM employer_users eu
      WHERE eu.employer_id = $1 AND eu.user_id = $2 AND eu.is_deleted = false
    )
  `, employerID, userID).Scan(&ok)
	return ok, err
}

// AffiliatedCodes lists the employer codes the user may act for.
func (s *Store) AffiliatedCodes(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.code
    FROM employers e
    JOIN employer_users eu ON eu.employer_id = e.id
    WHERE eu.user_id = $1 AND eu.is_deleted = false AND e.is_deleted = false
    ORDER BY e.code
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// List returns employers visible to the user.
func (s *Store) List(ctx context.Context, userID string, searchAll bool) ([]Employer, error) {
	query := `
    SELECT e.id, e.code, e.trade_name, e.is_deleted, e.created_at
    FROM employers e
    WHERE e.is_deleted = false
  `
	args := []any{}
	if !searchAll {
		query += " AND EXISTS (SELECT 1 FROM employer_users eu WHERE eu.employer_id = e.id AND eu.user_id = $1 AND eu.is_deleted = false)"
		args = append(args, userID)
	}
	query += " ORDER BY e.code"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employer
	for rows.Next() {
		var e Employer
		if err := rows.Scan(&e.ID, &e.Code, &e.TradeName, &e.IsDeleted, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
