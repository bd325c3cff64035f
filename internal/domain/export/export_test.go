package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"workervoucher/internal/domain/voucher"
)

func TestVouchersCSV(t *testing.T) {
	assigned := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	workerID := "w-1"
	vouchers := []voucher.Voucher{
		{
			Code:         "abc",
			Status:       voucher.StatusAssigned,
			AssignedDate: &assigned,
			ExpiryDate:   time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
			EmployerID:   "emp-1",
			WorkerID:     &workerID,
		},
		{
			Code:       "def",
			Status:     voucher.StatusUnassigned,
			ExpiryDate: time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
			EmployerID: "emp-1",
		},
	}

	data, err := VouchersCSV(vouchers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "code" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][2] != "2026-04-01" || records[1][5] != "w-1" {
		t.Fatalf("unexpected assigned row: %v", records[1])
	}
	if records[2][2] != "" || records[2][5] != "" {
		t.Fatalf("unassigned voucher must have empty worker and date: %v", records[2])
	}
}

func TestVoucherPDF(t *testing.T) {
	v := voucher.Voucher{
		Code:       "abc",
		Status:     voucher.StatusAssigned,
		ExpiryDate: time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
	}

	data, err := VoucherPDF(v, "Journey Worker", "EMP-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected a pdf document")
	}
}
