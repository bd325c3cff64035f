package upload

import "time"

type Status string

const (
	StatusTriggered      Status = "triggered"
	StatusInProgress     Status = "in_progress"
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFail           Status = "fail"
)

// Upload records one bulk worker CSV ingestion. The annotated error file, if
// any, is kept alongside the row so the uploader can download and fix it.
type Upload struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	EmployerID string    `json:"employerId"`
	Status     Status    `json:"status"`
	TotalRows  int       `json:"totalRows"`
	FailedRows int       `json:"failedRows"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Report summarises a finished ingestion. RowErrors maps each failing row's
// national id (or "line N" when the id could not be read) to its error.
// ErrorCSV is a copy of the source file with an appended error column, blank
// for rows that registered.
type Report struct {
	UploadID   string            `json:"uploadId"`
	Status     Status            `json:"status"`
	Total      int               `json:"total"`
	Registered int               `json:"registered"`
	Failed     int               `json:"failed"`
	RowErrors  map[string]string `json:"rowErrors,omitempty"`
	ErrorCSV   []byte            `json:"-"`
}
