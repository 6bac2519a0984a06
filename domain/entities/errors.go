package entities

import "errors"

// Validation failures are returned before any write happens.
var (
	ErrInvalidWager           = errors.New("wager amount out of bounds")
	ErrInvalidChoice          = errors.New("choice must be Heads or Tails")
	ErrInsufficientPoints     = errors.New("insufficient points")
	ErrInvalidLeaderboardSort = errors.New("unknown leaderboard sort")
	ErrInvalidWalletAddress   = errors.New("invalid wallet address")
)

// Lookup failures
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUnknownTask      = errors.New("unknown task")
	ErrPurchaseNotFound = errors.New("purchase transaction not found")
	ErrUnknownPurchase  = errors.New("unknown purchase")
)

// Rule violations
var (
	ErrTaskOnCooldown          = errors.New("task already claimed in the last 24 hours")
	ErrTaskRequirementNotMet   = errors.New("task requirement not met")
	ErrTaskNotClaimable        = errors.New("task cannot be claimed directly")
	ErrPurchaseLimitReached    = errors.New("daily purchase limit reached")
	ErrWalletNotConnected      = errors.New("wallet not connected")
	ErrVerifyCooldown          = errors.New("purchase cannot be verified yet")
	ErrPurchaseExpired         = errors.New("purchase expired")
	ErrPurchaseAlreadyVerified = errors.New("purchase already verified")
	ErrTransactionAlreadyUsed  = errors.New("transaction already used for another purchase")
	ErrNothingToClaim          = errors.New("no referral earnings to claim")
)
