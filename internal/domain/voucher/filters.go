package voucher

import "fmt"

// VisibilityFilter scopes voucher rows to the requesting principal's employer
// affiliations. Principals with the search-all capability see everything.
type VisibilityFilter struct {
	UserID       string
	EmployerCode string
	Unscoped     bool
}

func BuildVisibilityFilter(userID string, searchAll bool, employerCode string) VisibilityFilter {
	return VisibilityFilter{UserID: userID, EmployerCode: employerCode, Unscoped: searchAll}
}

// SQL renders the predicate against vouchers aliased "v" joined to employers
// aliased "e". Placeholders start at argPos; the clause begins with " AND".
func (f VisibilityFilter) SQL(argPos int) (string, []any) {
	clause := ""
	args := []any{}

	if f.EmployerCode != "" {
		clause += fmt.Sprintf(" AND e.code = $%d", argPos)
		args = append(args, f.EmployerCode)
		argPos++
	}
	if !f.Unscoped {
		clause += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM employer_users eu WHERE eu.employer_id = e.id AND eu.user_id = $%d AND eu.is_deleted = false)", argPos)
		args = append(args, f.UserID)
	}
	return clause, args
}

// SearchFilter narrows voucher listings. Zero values mean "any".
type SearchFilter struct {
	Status     Status
	WorkerID   string
	NationalID string
}

func (f SearchFilter) SQL(argPos int) (string, []any) {
	clause := ""
	args := []any{}

	if f.Status != "" {
		clause += fmt.Sprintf(" AND v.status = $%d", argPos)
		args = append(args, string(f.Status))
		argPos++
	}
	if f.WorkerID != "" {
		clause += fmt.Sprintf(" AND v.worker_id = $%d", argPos)
		args = append(args, f.WorkerID)
		argPos++
	}
	if f.NationalID != "" {
		clause += fmt.Sprintf(" AND v.worker_id IN (SELECT id FROM workers WHERE national_id = $%d)", argPos)
		args = append(args, f.NationalID)
	}
	return clause, args
}
