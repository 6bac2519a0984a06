package interfaces

import (
	"context"
	"time"

	"tonflip/domain/entities"
)

// ChainIndexer reads wallet transactions from a TON indexer
type ChainIndexer interface {
	// GetTransactions returns the most recent transactions of wallet, newest first
	GetTransactions(ctx context.Context, wallet string, limit int) ([]*entities.ChainTransaction, error)
}

// LeaderboardCache holds recently computed leaderboards
type LeaderboardCache interface {
	// Get returns nil, nil on a cache miss
	Get(ctx context.Context, sort entities.LeaderboardSort) ([]*entities.LeaderboardEntry, error)
	Set(ctx context.Context, sort entities.LeaderboardSort, entries []*entities.LeaderboardEntry, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// CoinFlipper draws the side a wager settles against
type CoinFlipper interface {
	Flip() entities.CoinSide
}

// Clock returns the current time
type Clock func() time.Time
