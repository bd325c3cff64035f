package worker

import "fmt"

// VisibilityFilter scopes worker rows to the requesting principal. It is a
// plain value so callers can build and inspect it without touching storage;
// the store renders it to SQL.
type VisibilityFilter struct {
	UserID       string
	EmployerCode string
	Unscoped     bool
}

// BuildVisibilityFilter returns the row predicate for a principal. Principals
// holding the search-all capability see every worker; everyone else sees
// workers affiliated to their own employers. An employer code narrows either
// scope to a single employer.
func BuildVisibilityFilter(userID string, searchAll bool, employerCode string) VisibilityFilter {
	return VisibilityFilter{
		UserID:       userID,
		EmployerCode: employerCode,
		Unscoped:     searchAll,
	}
}

// SQL renders the predicate against workers aliased "w". Placeholders start
// at argPos. The rendered clause always begins with " AND".
func (f VisibilityFilter) SQL(argPos int) (string, []any) {
	clause := ""
	args := []any{}

	sub := ` AND EXISTS (
    SELECT 1 FROM employer_workers ew
    JOIN employers e ON ew.employer_id = e.id
    WHERE ew.worker_id = w.id AND ew.is_deleted = false AND e.is_deleted = false`

	if f.Unscoped && f.EmployerCode == "" {
		return clause, args
	}

	clause += sub
	if f.EmployerCode != "" {
		clause += fmt.Sprintf(" AND e.code = $%d", argPos)
		args = append(args, f.EmployerCode)
		argPos++
	}
	if !f.Unscoped {
		clause += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM employer_users eu WHERE eu.employer_id = e.id AND eu.user_id = $%d AND eu.is_deleted = false)`, argPos)
		args = append(args, f.UserID)
	}
	clause += ")"
	return clause, args
}
