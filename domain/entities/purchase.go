package entities

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus tracks a points purchase through verification
type PurchaseStatus string

const (
	PurchaseStatusPending  PurchaseStatus = "pending"
	PurchaseStatusVerified PurchaseStatus = "verified"
	PurchaseStatusExpired  PurchaseStatus = "expired"
)

// PurchaseWindow is the rolling period the daily purchase limit applies to
const PurchaseWindow = 24 * time.Hour

// Purchase is one attempt to buy points with TON
type Purchase struct {
	ID               uuid.UUID      `db:"id"`
	ProfileID        string         `db:"profile_id"`
	WalletAddress    string         `db:"wallet_address"`
	RecipientAddress string         `db:"recipient_address"`
	AmountNano       int64          `db:"amount_nano"`
	Status           PurchaseStatus `db:"status"`
	TxHash           *string        `db:"tx_hash"`
	InitiatedAt      time.Time      `db:"initiated_at"`
	ValidUntil       time.Time      `db:"valid_until"`
	VerifiedAt       *time.Time     `db:"verified_at"`
}

// IsPending reports whether the purchase still awaits verification
func (p *Purchase) IsPending() bool {
	return p.Status == PurchaseStatusPending
}

// VerifiableAt returns the earliest time a verification attempt is accepted
func (p *Purchase) VerifiableAt(cooldown time.Duration) time.Time {
	return p.InitiatedAt.Add(cooldown)
}

// PurchaseIntent is the transaction descriptor handed to the wallet
type PurchaseIntent struct {
	PurchaseID       uuid.UUID
	RecipientAddress string
	AmountNano       int64
	ValidUntil       time.Time
	VerifiableAt     time.Time
}

// PurchaseResult is returned after a purchase is verified
type PurchaseResult struct {
	PurchaseID     uuid.UUID
	TxHash         string
	Reward         int64
	NewPoints      int64
	DailyPurchases int
}

// ChainMessage is an outgoing message of an indexed transaction
type ChainMessage struct {
	Destination string // raw form workchain:hex
	ValueNano   int64
}

// ChainTransaction is the subset of an indexed wallet transaction used for verification
type ChainTransaction struct {
	Hash        string
	Utime       time.Time
	OutMessages []ChainMessage
}

// PurchaseMatch describes the transfer a purchase is matched against
type PurchaseMatch struct {
	Recipient     string // raw form workchain:hex
	AmountNano    int64
	ToleranceNano int64
	NotBefore     time.Time
}

// Matches reports whether tx carries a transfer satisfying m
func (m PurchaseMatch) Matches(tx *ChainTransaction) bool {
	if tx.Utime.Before(m.NotBefore) {
		return false
	}
	for _, msg := range tx.OutMessages {
		if msg.Destination != m.Recipient {
			continue
		}
		diff := msg.ValueNano - m.AmountNano
		if diff < 0 {
			diff = -diff
		}
		if diff <= m.ToleranceNano {
			return true
		}
	}
	return false
}
