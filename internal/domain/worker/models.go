package worker

import "time"

// Worker is a person entitled to receive vouchers, identified by a national
// id. Workers are shared with an external registry; this module creates them
// only through registration and bulk upload.
type Worker struct {
	ID          string     `json:"id"`
	NationalID  string     `json:"nationalId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	IsDeleted   bool       `json:"isDeleted"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// nationalIDLength matches the registry's 13-digit worker identifiers.
const nationalIDLength = 13

// ValidNationalID reports whether the id has the registry shape: exactly 13
// digits.
func ValidNationalID(id string) bool {
	if len(id) != nationalIDLength {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
