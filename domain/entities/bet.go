package entities

import (
	"fmt"
	"strings"
	"time"
)

// CoinSide is one face of the coin
type CoinSide string

const (
	CoinSideHeads CoinSide = "Heads"
	CoinSideTails CoinSide = "Tails"
)

// ParseCoinSide accepts either side in any letter case
func ParseCoinSide(raw string) (CoinSide, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "heads":
		return CoinSideHeads, nil
	case "tails":
		return CoinSideTails, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, raw)
	}
}

// Opposite returns the other face
func (c CoinSide) Opposite() CoinSide {
	if c == CoinSideHeads {
		return CoinSideTails
	}
	return CoinSideHeads
}

// BetOutcome is the published label of a settled flip
type BetOutcome string

const (
	BetOutcomeDoubled BetOutcome = "doubled"
	BetOutcomeRugged  BetOutcome = "rugged"
)

// Bet is an append-only record of one settled flip
type Bet struct {
	ID        int64      `db:"id"`
	ProfileID string     `db:"profile_id"`
	Username  string     `db:"username"`
	Amount    int64      `db:"amount"`
	Choice    CoinSide   `db:"choice"`
	Result    CoinSide   `db:"result"`
	Outcome   BetOutcome `db:"outcome"`
	Avatar    string     `db:"avatar"`
	CreatedAt time.Time  `db:"created_at"`
}

// Won reports whether the chosen side came up
func (b *Bet) Won() bool {
	return b.Outcome == BetOutcomeDoubled
}

// BetResult is returned to the player after settlement
type BetResult struct {
	BetID     int64
	Choice    CoinSide
	Result    CoinSide
	Won       bool
	Amount    int64
	NewPoints int64
}
