package entities

import "time"

// PointsHistory is one append-only entry in a profile's points ledger
type PointsHistory struct {
	ID              int64           `db:"id"`
	ProfileID       string          `db:"profile_id"`
	PointsBefore    int64           `db:"points_before"`
	PointsAfter     int64           `db:"points_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Metadata        map[string]any  `db:"metadata"`
	RelatedID       *string         `db:"related_id"`
	CreatedAt       time.Time       `db:"created_at"`
}

// IsPositiveChange returns true if the change amount is positive
func (h *PointsHistory) IsPositiveChange() bool {
	return h.ChangeAmount > 0
}

// Description returns a human-readable description of the entry
func (h *PointsHistory) Description() string {
	switch h.TransactionType {
	case TransactionTypeFlipWin:
		return "Coin flip doubled"
	case TransactionTypeFlipLoss:
		return "Coin flip rugged"
	case TransactionTypeTaskReward:
		return "Task reward"
	case TransactionTypePurchaseReward:
		return "Points purchase"
	case TransactionTypeReferralClaim:
		return "Referral earnings claimed"
	case TransactionTypeInitial:
		return "Starting points"
	default:
		return string(h.TransactionType)
	}
}
