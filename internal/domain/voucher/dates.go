package voucher

import (
	"fmt"
	"sort"
	"time"

	"workervoucher/internal/platform/config"
)

// Day truncates a timestamp to a calendar date in UTC. All engine date
// arithmetic runs on day-truncated values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PolicyExpiryDate returns the latest date a voucher issued today remains
// valid for, per the configured expiry policy. It doubles as the maximum
// assignable date during range expansion.
func PolicyExpiryDate(cfg config.Config, today time.Time) time.Time {
	today = Day(today)
	if cfg.VoucherExpiryType == config.ExpiryTypeEndOfYear {
		return time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return today.AddDate(0, 0, cfg.VoucherExpiryPeriodDays)
}

// BillDueDate returns the payment deadline for a bill issued today.
func BillDueDate(cfg config.Config, today time.Time) time.Time {
	return Day(today).AddDate(0, 0, cfg.VoucherBillDuePeriodDays)
}

// ExpandDateRanges turns inclusive date ranges into a sorted set of distinct
// calendar dates. A date may not repeat across ranges, precede today, or
// exceed maxDate.
func ExpandDateRanges(ranges []DateRange, today, maxDate time.Time) ([]time.Time, error) {
	today = Day(today)
	maxDate = Day(maxDate)

	seen := make(map[time.Time]struct{})
	for _, r := range ranges {
		start, end := Day(r.Start), Day(r.End)
		if start.Before(today) {
			return nil, fmt.Errorf("range starting %s: %w", start.Format(time.DateOnly), ErrDateInPast)
		}
		if start.After(end) {
			return nil, fmt.Errorf("range %s to %s: %w", start.Format(time.DateOnly), end.Format(time.DateOnly), ErrStartAfterEnd)
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if d.After(maxDate) {
				return nil, fmt.Errorf("date %s: %w", d.Format(time.DateOnly), ErrDateAfterExpiry)
			}
			if _, dup := seen[d]; dup {
				return nil, fmt.Errorf("date %s: %w", d.Format(time.DateOnly), ErrDuplicateDate)
			}
			seen[d] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, ErrNoValidDates
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// latestDate assumes dates is non-empty and sorted ascending.
func latestDate(dates []time.Time) time.Time {
	return dates[len(dates)-1]
}
