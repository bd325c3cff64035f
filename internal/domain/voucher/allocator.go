package voucher

import (
	"fmt"
	"sort"
	"time"
)

// SelectUnassigned reserves count vouchers from the employer's unassigned
// pool. Every selected voucher must remain valid through the latest requested
// date, even though most will be assigned to earlier dates; the pool is
// drained oldest-expiring first so vouchers closest to lapsing get used.
func SelectUnassigned(pool []Voucher, count int, validThrough time.Time) ([]Voucher, error) {
	validThrough = Day(validThrough)

	eligible := make([]Voucher, 0, count)
	for _, v := range pool {
		if v.Status != StatusUnassigned || v.IsDeleted {
			continue
		}
		if Day(v.ExpiryDate).Before(validThrough) {
			continue
		}
		eligible = append(eligible, v)
	}

	if len(eligible) < count {
		return nil, fmt.Errorf("need %d, have %d: %w", count, len(eligible), ErrInsufficientInventory)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if !eligible[i].ExpiryDate.Equal(eligible[j].ExpiryDate) {
			return eligible[i].ExpiryDate.Before(eligible[j].ExpiryDate)
		}
		return eligible[i].Code < eligible[j].Code
	})
	return eligible[:count], nil
}
