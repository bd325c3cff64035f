package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"workervoucher/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// CreateBillTx issues a bill for the given vouchers inside the caller's
// transaction, one line item per voucher. The bill code doubles as the
// payment reference handed to the employer.
func (s *Store) CreateBillTx(ctx context.Context, tx pgx.Tx, employerID string, voucherIDs []string, unitPrice decimal.Decimal, dueDate time.Time) (string, error) {
	amount := unitPrice.Mul(decimal.NewFromInt(int64(len(voucherIDs))))

	var billID string
	err := tx.QueryRow(ctx, `
		INSERT INTO bills (code, employer_id, amount, due_date, status)
		VALUES ('BILL-' || to_char(now(), 'YYYYMMDD') || '-' || substr(gen_random_uuid()::text, 1, 8), $1, $2, $3, $4)
		RETURNING id
	`, employerID, amount, dueDate, StatusIssued).Scan(&billID)
	if err != nil {
		return "", fmt.Errorf("insert bill: %w", err)
	}

	for _, voucherID := range voucherIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO bill_line_items (bill_id, voucher_id, amount)
			VALUES ($1, $2, $3)
		`, billID, voucherID, unitPrice)
		if err != nil {
			return "", fmt.Errorf("insert bill line item: %w", err)
		}
	}

	return billID, nil
}

func (s *Store) ByID(ctx context.Context, id string) (Bill, error) {
	var b Bill
	err := s.DB.QueryRow(ctx, `
		SELECT id, code, employer_id, amount, due_date, status, created_at
		FROM bills
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Code, &b.EmployerID, &b.Amount, &b.DueDate, &b.Status, &b.CreatedAt)
	if err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (s *Store) ListByEmployer(ctx context.Context, employerID string) ([]Bill, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, code, employer_id, amount, due_date, status, created_at
		FROM bills
		WHERE employer_id = $1
		ORDER BY created_at DESC
	`, employerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.Code, &b.EmployerID, &b.Amount, &b.DueDate, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}
