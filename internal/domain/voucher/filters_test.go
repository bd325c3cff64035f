package voucher

import (
	"strings"
	"testing"
)

func TestVisibilityFilterScoped(t *testing.T) {
	f := BuildVisibilityFilter("user-1", false, "EMP-1")
	clause, args := f.SQL(3)

	if !strings.Contains(clause, "e.code = $3") {
		t.Fatalf("expected employer predicate at $3, got %q", clause)
	}
	if !strings.Contains(clause, "eu.user_id = $4") {
		t.Fatalf("expected affiliation predicate at $4, got %q", clause)
	}
	if len(args) != 2 || args[0] != "EMP-1" || args[1] != "user-1" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestVisibilityFilterUnscoped(t *testing.T) {
	f := BuildVisibilityFilter("user-1", true, "")
	clause, args := f.SQL(1)

	if clause != "" {
		t.Fatalf("expected empty clause, got %q", clause)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestVisibilityFilterUnscopedWithEmployer(t *testing.T) {
	f := BuildVisibilityFilter("user-1", true, "EMP-1")
	clause, args := f.SQL(1)

	if !strings.Contains(clause, "e.code = $1") {
		t.Fatalf("expected employer predicate, got %q", clause)
	}
	if strings.Contains(clause, "employer_users") {
		t.Fatalf("unscoped filter must not require affiliation, got %q", clause)
	}
	if len(args) != 1 {
		t.Fatalf("expected one arg, got %v", args)
	}
}

func TestSearchFilterSQL(t *testing.T) {
	f := SearchFilter{Status: StatusAssigned, NationalID: "1234567890123"}
	clause, args := f.SQL(2)

	if !strings.Contains(clause, "v.status = $2") {
		t.Fatalf("expected status predicate at $2, got %q", clause)
	}
	if !strings.Contains(clause, "national_id = $3") {
		t.Fatalf("expected national id predicate at $3, got %q", clause)
	}
	if len(args) != 2 || args[0] != "assigned" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSearchFilterEmpty(t *testing.T) {
	clause, args := SearchFilter{}.SQL(1)
	if clause != "" || len(args) != 0 {
		t.Fatalf("expected empty filter, got %q %v", clause, args)
	}
}
