package upload

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"workervoucher/internal/domain/auth"
	"workervoucher/internal/domain/worker"
	"workervoucher/internal/platform/config"
)

var (
	ErrMissingIDColumn = errors.New("national id column not found in header")
	ErrEmptyFile       = errors.New("file has no data rows")
)

// Registrar registers one worker with an employer; *worker.Service is the
// production implementation.
type Registrar interface {
	Register(ctx context.Context, user auth.UserContext, employerCode string, in worker.RegisterInput) (worker.Worker, error)
}

type Service struct {
	Cfg     config.Config
	Store   *Store
	Workers Registrar
	Logger  *slog.Logger
}

func NewService(cfg config.Config, store *Store, workers Registrar, logger *slog.Logger) *Service {
	return &Service{Cfg: cfg, Store: store, Workers: workers, Logger: logger}
}

// Process ingests a worker CSV for the employer. Rows are independent: a bad
// row is recorded in the error file and the rest continue. The upload status
// reflects the mix of outcomes.
func (s *Service) Process(ctx context.Context, user auth.UserContext, employerCode, employerID, fileName string, r io.Reader) (Report, error) {
	uploadID, err := s.Store.Create(ctx, fileName, employerID)
	if err != nil {
		return Report{}, err
	}
	if err := s.Store.SetStatus(ctx, uploadID, StatusInProgress); err != nil {
		return Report{}, err
	}

	report, errCSV, err := s.ingest(ctx, user, employerCode, r)
	if err != nil {
		if ferr := s.Store.Finish(ctx, uploadID, StatusFail, 0, 0, nil); ferr != nil {
			s.Logger.Error("mark upload failed", "upload_id", uploadID, "error", ferr)
		}
		return Report{}, err
	}

	status := StatusSuccess
	switch {
	case report.Registered == 0:
		status = StatusFail
	case report.Failed > 0:
		status = StatusPartialSuccess
	}

	if err := s.Store.Finish(ctx, uploadID, status, report.Total, report.Failed, errCSV); err != nil {
		return Report{}, err
	}

	report.UploadID = uploadID
	report.Status = status
	report.ErrorCSV = errCSV
	return report, nil
}

func (s *Service) ingest(ctx context.Context, user auth.UserContext, employerCode string, r io.Reader) (Report, []byte, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Report{}, nil, ErrEmptyFile
	}

	idCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), s.Cfg.UploadNationalIDColumn) {
			idCol = i
			break
		}
	}
	if idCol == -1 {
		return Report{}, nil, fmt.Errorf("%q: %w", s.Cfg.UploadNationalIDColumn, ErrMissingIDColumn)
	}

	var buf bytes.Buffer
	errWriter := csv.NewWriter(&buf)
	if err := errWriter.Write(append(header, s.Cfg.UploadErrorColumn)); err != nil {
		return Report{}, nil, err
	}

	report := Report{RowErrors: map[string]string{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line; count it as a failing row and move on.
			report.Total++
			report.Failed++
			report.RowErrors[fmt.Sprintf("line %d", report.Total)] = err.Error()
			if werr := errWriter.Write(append(make([]string, len(header)), err.Error())); werr != nil {
				return Report{}, nil, werr
			}
			continue
		}

		report.Total++
		nationalID := ""
		if idCol < len(row) {
			nationalID = strings.TrimSpace(row[idCol])
		}
		if rowErr := s.ingestRow(ctx, user, employerCode, nationalID); rowErr != nil {
			report.Failed++
			key := nationalID
			if key == "" {
				key = fmt.Sprintf("line %d", report.Total)
			}
			report.RowErrors[key] = rowErr.Error()
			if werr := errWriter.Write(append(row, rowErr.Error())); werr != nil {
				return Report{}, nil, werr
			}
			continue
		}
		report.Registered++
		if werr := errWriter.Write(append(row, "")); werr != nil {
			return Report{}, nil, werr
		}
	}

	if report.Total == 0 {
		return Report{}, nil, ErrEmptyFile
	}

	errWriter.Flush()
	if err := errWriter.Error(); err != nil {
		return Report{}, nil, err
	}
	return report, buf.Bytes(), nil
}

func (s *Service) ingestRow(ctx context.Context, user auth.UserContext, employerCode, nationalID string) error {
	_, err := s.Workers.Register(ctx, user, employerCode, worker.RegisterInput{NationalID: nationalID})
	return err
}
