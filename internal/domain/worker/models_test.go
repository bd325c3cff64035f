package worker

import (
	"strings"
	"testing"
)

func TestValidNationalID(t *testing.T) {
	valid := []string{"1234567890123", "0000000000000"}
	for _, id := range valid {
		if !ValidNationalID(id) {
			t.Fatalf("expected %q to be valid", id)
		}
	}

	invalid := []string{
		"",
		"123456789012",
		"12345678901234",
		"123456789012x",
		"12345 7890123",
	}
	for _, id := range invalid {
		if ValidNationalID(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}

func TestVisibilityFilterUnscopedWithoutEmployer(t *testing.T) {
	clause, args := BuildVisibilityFilter("user-1", true, "").SQL(1)
	if clause != "" || len(args) != 0 {
		t.Fatalf("expected no predicate, got %q %v", clause, args)
	}
}

func TestVisibilityFilterScopedToEmployer(t *testing.T) {
	clause, args := BuildVisibilityFilter("user-1", false, "EMP-1").SQL(2)
	if !strings.Contains(clause, "e.code = $2") {
		t.Fatalf("expected employer predicate at $2, got %q", clause)
	}
	if !strings.Contains(clause, "employer_users") {
		t.Fatalf("expected affiliation predicate, got %q", clause)
	}
	if len(args) != 2 || args[0] != "EMP-1" || args[1] != "user-1" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestVisibilityFilterUnscopedNarrowedByEmployer(t *testing.T) {
	clause, args := BuildVisibilityFilter("user-1", true, "EMP-1").SQL(1)
	if !strings.Contains(clause, "e.code = $1") {
		t.Fatalf("expected employer predicate, got %q", clause)
	}
	if strings.Contains(clause, "employer_users") {
		t.Fatalf("search-all must not require affiliation, got %q", clause)
	}
	if len(args) != 1 {
		t.Fatalf("expected one arg, got %v", args)
	}
}
