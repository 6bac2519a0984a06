package entities

// TransactionType represents the reason a profile's points changed
type TransactionType string

// All transaction types supported by the system
const (
	// Coin flip transactions
	TransactionTypeFlipWin  TransactionType = "flip_win"
	TransactionTypeFlipLoss TransactionType = "flip_loss"

	// Reward transactions
	TransactionTypeTaskReward     TransactionType = "task_reward"
	TransactionTypePurchaseReward TransactionType = "purchase_reward"

	// Referral transactions
	TransactionTypeReferralClaim TransactionType = "referral_claim"

	// System transactions
	TransactionTypeInitial TransactionType = "initial"
)

// IsFlipType returns true if the transaction came from a settled coin flip
func (tt TransactionType) IsFlipType() bool {
	return tt == TransactionTypeFlipWin || tt == TransactionTypeFlipLoss
}

// IsRewardType returns true if the transaction credits earned points
func (tt TransactionType) IsRewardType() bool {
	return tt == TransactionTypeTaskReward ||
		tt == TransactionTypePurchaseReward ||
		tt == TransactionTypeReferralClaim
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
