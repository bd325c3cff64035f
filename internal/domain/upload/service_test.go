package upload

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/worker"
	"workervoucher/internal/platform/config"
)

func ingestService() *Service {
	return &Service{Cfg: config.Config{
		UploadNationalIDColumn: "national_id",
		UploadErrorColumn:      "errors",
	}}
}

func TestIngestRejectsEmptyFile(t *testing.T) {
	svc := ingestService()
	_, _, err := svc.ingest(context.Background(), auth.UserContext{}, "EMP-1", strings.NewReader(""))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestIngestRejectsHeaderOnlyFile(t *testing.T) {
	svc := ingestService()
	_, _, err := svc.ingest(context.Background(), auth.UserContext{}, "EMP-1", strings.NewReader("national_id,first_name\n"))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestIngestRequiresIDColumn(t *testing.T) {
	svc := ingestService()
	_, _, err := svc.ingest(context.Background(), auth.UserContext{}, "EMP-1", strings.NewReader("name,surname\nJane,Doe\n"))
	if !errors.Is(err, ErrMissingIDColumn) {
		t.Fatalf("expected ErrMissingIDColumn, got %v", err)
	}
}

func TestIngestMatchesIDColumnCaseInsensitively(t *testing.T) {
	svc := ingestService()
	// Header matches, but the lookup stops before any row is registered.
	_, _, err := svc.ingest(context.Background(), auth.UserContext{}, "EMP-1", strings.NewReader("  National_ID ,name\n"))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile after header match, got %v", err)
	}
}

type fakeRegistrar struct {
	failing map[string]error
	seen    []string
}

func (f *fakeRegistrar) Register(ctx context.Context, user auth.UserContext, employerCode string, in worker.RegisterInput) (worker.Worker, error) {
	f.seen = append(f.seen, in.NationalID)
	if err, ok := f.failing[in.NationalID]; ok {
		return worker.Worker{}, err
	}
	return worker.Worker{NationalID: in.NationalID}, nil
}

func TestIngestReportsRowErrorsByNationalID(t *testing.T) {
	svc := ingestService()
	svc.Workers = &fakeRegistrar{failing: map[string]error{
		"2222222222222": worker.ErrNotVerified,
	}}

	file := "national_id,name\n1111111111111,Jane\n2222222222222,John\n3333333333333,Ana\n"
	report, errCSV, err := svc.ingest(context.Background(), auth.UserContext{}, "EMP-1", strings.NewReader(file))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 3 || report.Registered != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.RowErrors) != 1 {
		t.Fatalf("expected 1 row error, got %v", report.RowErrors)
	}
	if report.RowErrors["2222222222222"] != worker.ErrNotVerified.Error() {
		t.Fatalf("row error not keyed by national id: %v", report.RowErrors)
	}

	rows, err := csv.NewReader(bytes.NewReader(errCSV)).ReadAll()
	if err != nil {
		t.Fatalf("annotated file does not parse: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("annotated file must carry every source row, got %d rows", len(rows))
	}
	if rows[0][2] != "errors" {
		t.Fatalf("expected appended error column, got header %v", rows[0])
	}
	if rows[1][2] != "" || rows[3][2] != "" {
		t.Fatalf("registered rows must have an empty error cell: %v", rows)
	}
	if rows[2][2] != worker.ErrNotVerified.Error() {
		t.Fatalf("failing row missing its error: %v", rows[2])
	}
}

func TestIngestAnnotatesCleanFileToo(t *testing.T) {
	svc := ingestService()
	reg := &fakeRegistrar{}
	svc.Workers = reg

	file := "national_id\n1111111111111\n"
	report, errCSV, err := svc.ingest(context.Background(), auth.UserContext{}, "EMP-1", strings.NewReader(file))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed != 0 || report.Registered != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	rows, err := csv.NewReader(bytes.NewReader(errCSV)).ReadAll()
	if err != nil {
		t.Fatalf("annotated file does not parse: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "" {
		t.Fatalf("expected annotated copy with empty error cells, got %v", rows)
	}
	if len(reg.seen) != 1 || reg.seen[0] != "1111111111111" {
		t.Fatalf("unexpected registrations: %v", reg.seen)
	}
}
