package group

import (
	"time"

	"workervoucher/internal/domain/worker"
)

// Group is a named set of an employer's workers, used to acquire or assign
// vouchers for a whole crew at once.
type Group struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	EmployerID string          `json:"employerId"`
	Members    []worker.Worker `json:"members,omitempty"`
	IsDeleted  bool            `json:"isDeleted"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
