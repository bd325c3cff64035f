package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"workervoucher/internal/domain/voucher"
)

// VouchersCSV renders a voucher listing for download.
func VouchersCSV(vouchers []voucher.Voucher) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"code", "status", "assigned_date", "expiry_date", "employer_id", "worker_id", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, v := range vouchers {
		assigned := ""
		if v.AssignedDate != nil {
			assigned = v.AssignedDate.Format(time.DateOnly)
		}
		workerID := ""
		if v.WorkerID != nil {
			workerID = *v.WorkerID
		}
		row := []string{
			v.Code,
			string(v.Status),
			assigned,
			v.ExpiryDate.Format(time.DateOnly),
			v.EmployerID,
			workerID,
			v.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// VoucherPDF renders a single voucher as a printable document the worker can
// present on site.
func VoucherPDF(v voucher.Voucher, workerName, employerName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Worker Voucher")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Code: %s", v.Code))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", v.Status))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employer: %s", employerName))
	pdf.Ln(7)
	if workerName != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Worker: %s", workerName))
		pdf.Ln(7)
	}
	if v.AssignedDate != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Valid on: %s", v.AssignedDate.Format("2006-01-02")))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Expires: %s", v.ExpiryDate.Format("2006-01-02")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
