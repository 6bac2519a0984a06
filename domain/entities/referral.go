package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReferralCode returns a fresh UUIDv4 with dashes swapped for underscores
// so the code survives Telegram's start_param alphabet.
func NewReferralCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "_")
}

// ReferralCommission records the share of one wager credited to a referrer
type ReferralCommission struct {
	ID                int64     `db:"id"`
	BetID             int64     `db:"bet_id"`
	ReferrerID        string    `db:"referrer_id"`
	ReferredID        string    `db:"referred_id"`
	AmountCentipoints int64     `db:"amount_centipoints"`
	CreatedAt         time.Time `db:"created_at"`
}

// CommissionCentipoints returns percent of amount expressed in hundredths of a point
func CommissionCentipoints(amount, percent int64) int64 {
	// percent/100 of amount points is amount*percent centipoints
	return amount * percent
}

// ReferredUser is a row in a referrer's network list
type ReferredUser struct {
	ProfileID string `db:"id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	Points    int64  `db:"points"`
}

// ReferralClaimResult summarises a referral earnings claim
type ReferralClaimResult struct {
	Claimed               int64
	NewPoints             int64
	RemainingCentipoints  int64
	TotalReferralEarnings int64
}
