package entities

import "fmt"

// LeaderboardSort selects the column a leaderboard is ranked by
type LeaderboardSort string

const (
	LeaderboardSortPoints LeaderboardSort = "points"
	LeaderboardSortVolume LeaderboardSort = "volume"
	LeaderboardSortWins   LeaderboardSort = "wins"
)

// ParseLeaderboardSort defaults to points when raw is empty
func ParseLeaderboardSort(raw string) (LeaderboardSort, error) {
	switch LeaderboardSort(raw) {
	case "", LeaderboardSortPoints:
		return LeaderboardSortPoints, nil
	case LeaderboardSortVolume:
		return LeaderboardSortVolume, nil
	case LeaderboardSortWins:
		return LeaderboardSortWins, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLeaderboardSort, raw)
	}
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	ProfileID   string `json:"profileId"`
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	PhotoURL    string `json:"photoUrl"`
	Points      int64  `json:"points"`
	TotalVolume int64  `json:"totalVolume"`
	GamesWon    int    `json:"gamesWon"`
}
