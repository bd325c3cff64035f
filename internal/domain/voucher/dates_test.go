package voucher

import (
	"errors"
	"testing"
	"time"

	"workervoucher/internal/platform/config"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPolicyExpiryDateEndOfYear(t *testing.T) {
	cfg := config.Config{VoucherExpiryType: config.ExpiryTypeEndOfYear}
	got := PolicyExpiryDate(cfg, date(2026, time.March, 15))
	if !got.Equal(date(2026, time.December, 31)) {
		t.Fatalf("expected 2026-12-31, got %s", got.Format(time.DateOnly))
	}
}

func TestPolicyExpiryDateFixedPeriod(t *testing.T) {
	cfg := config.Config{VoucherExpiryType: config.ExpiryTypeFixedPeriod, VoucherExpiryPeriodDays: 90}
	got := PolicyExpiryDate(cfg, date(2026, time.March, 15))
	if !got.Equal(date(2026, time.June, 13)) {
		t.Fatalf("expected 2026-06-13, got %s", got.Format(time.DateOnly))
	}
}

func TestBillDueDate(t *testing.T) {
	cfg := config.Config{VoucherBillDuePeriodDays: 30}
	got := BillDueDate(cfg, date(2026, time.March, 15))
	if !got.Equal(date(2026, time.April, 14)) {
		t.Fatalf("expected 2026-04-14, got %s", got.Format(time.DateOnly))
	}
}

func TestExpandDateRanges(t *testing.T) {
	today := date(2026, time.March, 1)
	maxDate := date(2026, time.December, 31)

	dates, err := ExpandDateRanges([]DateRange{
		{Start: date(2026, time.March, 10), End: date(2026, time.March, 12)},
		{Start: date(2026, time.March, 5), End: date(2026, time.March, 5)},
	}, today, maxDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 4 {
		t.Fatalf("expected 4 dates, got %d", len(dates))
	}
	if !dates[0].Equal(date(2026, time.March, 5)) {
		t.Fatalf("expected dates sorted ascending, first was %s", dates[0].Format(time.DateOnly))
	}
	if !dates[3].Equal(date(2026, time.March, 12)) {
		t.Fatalf("expected last date 2026-03-12, got %s", dates[3].Format(time.DateOnly))
	}
}

func TestExpandDateRangesRejectsPast(t *testing.T) {
	today := date(2026, time.March, 10)
	_, err := ExpandDateRanges([]DateRange{
		{Start: date(2026, time.March, 9), End: date(2026, time.March, 11)},
	}, today, date(2026, time.December, 31))
	if !errors.Is(err, ErrDateInPast) {
		t.Fatalf("expected ErrDateInPast, got %v", err)
	}
}

func TestExpandDateRangesRejectsInvertedRange(t *testing.T) {
	today := date(2026, time.March, 1)
	_, err := ExpandDateRanges([]DateRange{
		{Start: date(2026, time.March, 12), End: date(2026, time.March, 10)},
	}, today, date(2026, time.December, 31))
	if !errors.Is(err, ErrStartAfterEnd) {
		t.Fatalf("expected ErrStartAfterEnd, got %v", err)
	}
}

func TestExpandDateRangesRejectsOverlap(t *testing.T) {
	today := date(2026, time.March, 1)
	_, err := ExpandDateRanges([]DateRange{
		{Start: date(2026, time.March, 10), End: date(2026, time.March, 12)},
		{Start: date(2026, time.March, 12), End: date(2026, time.March, 14)},
	}, today, date(2026, time.December, 31))
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("expected ErrDuplicateDate, got %v", err)
	}
}

func TestExpandDateRangesRejectsBeyondExpiry(t *testing.T) {
	today := date(2026, time.December, 30)
	_, err := ExpandDateRanges([]DateRange{
		{Start: date(2026, time.December, 30), End: date(2027, time.January, 2)},
	}, today, date(2026, time.December, 31))
	if !errors.Is(err, ErrDateAfterExpiry) {
		t.Fatalf("expected ErrDateAfterExpiry, got %v", err)
	}
}

func TestExpandDateRangesRejectsEmpty(t *testing.T) {
	_, err := ExpandDateRanges(nil, date(2026, time.March, 1), date(2026, time.December, 31))
	if !errors.Is(err, ErrNoValidDates) {
		t.Fatalf("expected ErrNoValidDates, got %v", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusExpired, StatusCanceled, StatusClosed} {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusAwaitingPayment, StatusUnassigned, StatusAssigned} {
		if s.Terminal() {
			t.Fatalf("expected %s to be live", s)
		}
	}
}
