package employer

import "time"

// Employer is the economic unit purchasing vouchers. It is owned by an
// external registry; this engine only reads it.
type Employer struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	TradeName string    `json:"tradeName"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
}
