package events

import (
	"time"

	"tonflip/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeProfileCreated   EventType = "profile_created"
	EventTypePointsChange     EventType = "points_change"
	EventTypeBetSettled       EventType = "bet_settled"
	EventTypeTaskClaimed      EventType = "task_claimed"
	EventTypePurchaseVerified EventType = "purchase_verified"
	EventTypeReferralCredited EventType = "referral_credited"
	EventTypeReferralSignedUp EventType = "referral_signed_up"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ProfileCreatedEvent is emitted once per new profile
type ProfileCreatedEvent struct {
	ProfileID              string
	Username               string
	InitialPoints          int64
	ReferralCode           string
	ReferredBy             string
	SignupBonusCentipoints int64
}

func (e ProfileCreatedEvent) Type() EventType {
	return EventTypeProfileCreated
}

// PointsChangeEvent mirrors a points_history row
type PointsChangeEvent struct {
	ProfileID       string
	OldPoints       int64
	NewPoints       int64
	ChangeAmount    int64
	TransactionType entities.TransactionType
}

func (e PointsChangeEvent) Type() EventType {
	return EventTypePointsChange
}

// BetSettledEvent is emitted after a flip commits
type BetSettledEvent struct {
	BetID     int64
	ProfileID string
	Username  string
	Avatar    string
	Amount    int64
	Choice    entities.CoinSide
	Result    entities.CoinSide
	Outcome   entities.BetOutcome
	NewPoints int64
	SettledAt time.Time
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// Bet rebuilds the public bet record carried by the event
func (e BetSettledEvent) Bet() *entities.Bet {
	return &entities.Bet{
		ID:        e.BetID,
		ProfileID: e.ProfileID,
		Username:  e.Username,
		Amount:    e.Amount,
		Choice:    e.Choice,
		Result:    e.Result,
		Outcome:   e.Outcome,
		Avatar:    e.Avatar,
		CreatedAt: e.SettledAt,
	}
}

// TaskClaimedEvent is emitted after a task reward is credited
type TaskClaimedEvent struct {
	ProfileID string
	TaskID    entities.TaskID
	Reward    int64
	ClaimedAt time.Time
}

func (e TaskClaimedEvent) Type() EventType {
	return EventTypeTaskClaimed
}

// PurchaseVerifiedEvent is emitted after an on-chain purchase is accepted
type PurchaseVerifiedEvent struct {
	PurchaseID    string
	ProfileID     string
	Username      string
	WalletAddress string
	TxHash        string
	AmountNano    int64
	Reward        int64
}

func (e PurchaseVerifiedEvent) Type() EventType {
	return EventTypePurchaseVerified
}

// ReferralSignedUpEvent asks for the referrer's signup credit after a referred profile commits
type ReferralSignedUpEvent struct {
	ReferrerID string
	ReferredID string
}

func (e ReferralSignedUpEvent) Type() EventType {
	return EventTypeReferralSignedUp
}

// ReferralCreditedEvent is emitted when a referrer's claimable balance grows
type ReferralCreditedEvent struct {
	ReferrerID        string
	ReferredID        string
	AmountCentipoints int64
	Reason            string // "signup" or "commission"
	BetID             *int64
}

func (e ReferralCreditedEvent) Type() EventType {
	return EventTypeReferralCredited
}
