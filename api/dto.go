package api

import (
	"strconv"
	"time"

	"tonflip/domain/entities"
)

type sessionRequest struct {
	ReferralCode string `json:"referral_code"`
}

type walletRequest struct {
	Address string `json:"address"`
}

type flipRequest struct {
	Choice string `json:"choice"`
	Amount int64  `json:"amount"`
}

type profileResponse struct {
	ID                     string     `json:"id"`
	Username               string     `json:"username"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	PhotoURL               string     `json:"photo_url"`
	Points                 int64      `json:"points"`
	ClaimablePoints        float64    `json:"claimable_points"`
	TotalReferralEarnings  int64      `json:"total_referral_earnings"`
	ReferralCode           string     `json:"referral_code"`
	ReferredBy             *string    `json:"referred_by"`
	Referrals              int        `json:"referrals"`
	GamesPlayed            int        `json:"games_played"`
	GamesWon               int        `json:"games_won"`
	GamesLost              int        `json:"games_lost"`
	TotalVolume            int64      `json:"total_volume"`
	DailyPurchases         int        `json:"daily_purchases"`
	LastBetAt              *time.Time `json:"last_bet_at"`
	WalletAddress          *string    `json:"wallet_address"`
	LastWalletConnectionAt *time.Time `json:"last_wallet_connection_at"`
	CreatedAt              time.Time  `json:"created_at"`
}

type sessionResponse struct {
	Profile profileResponse `json:"profile"`
	Created bool            `json:"created"`
}

func newProfileResponse(p *entities.Profile) profileResponse {
	return profileResponse{
		ID:                     p.ID,
		Username:               p.Username,
		FirstName:              p.FirstName,
		LastName:               p.LastName,
		PhotoURL:               p.PhotoURL,
		Points:                 p.Points,
		ClaimablePoints:        float64(p.ClaimableCentipoints) / float64(entities.CentipointsPerPoint),
		TotalReferralEarnings:  p.TotalReferralEarnings,
		ReferralCode:           p.ReferralCode,
		ReferredBy:             p.ReferredBy,
		Referrals:              p.Referrals,
		GamesPlayed:            p.GamesPlayed,
		GamesWon:               p.GamesWon,
		GamesLost:              p.GamesLost,
		TotalVolume:            p.TotalVolume,
		DailyPurchases:         p.DailyPurchases,
		LastBetAt:              p.LastBetAt,
		WalletAddress:          p.WalletAddress,
		LastWalletConnectionAt: p.LastWalletConnectionAt,
		CreatedAt:              p.CreatedAt,
	}
}

type betResponse struct {
	ID        int64     `json:"id"`
	ProfileID string    `json:"profile_id"`
	Username  string    `json:"username"`
	Amount    int64     `json:"amount"`
	Choice    string    `json:"choice"`
	Result    string    `json:"result"`
	Outcome   string    `json:"outcome"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

func newBetResponse(b *entities.Bet) betResponse {
	return betResponse{
		ID:        b.ID,
		ProfileID: b.ProfileID,
		Username:  b.Username,
		Amount:    b.Amount,
		Choice:    string(b.Choice),
		Result:    string(b.Result),
		Outcome:   string(b.Outcome),
		Avatar:    b.Avatar,
		CreatedAt: b.CreatedAt,
	}
}

func newBetResponses(bets []*entities.Bet) []betResponse {
	out := make([]betResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, newBetResponse(b))
	}
	return out
}

type flipResponse struct {
	BetID     int64  `json:"bet_id"`
	Choice    string `json:"choice"`
	Result    string `json:"result"`
	Won       bool   `json:"won"`
	Amount    int64  `json:"amount"`
	NewPoints int64  `json:"new_points"`
}

type taskResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Category      string     `json:"category"`
	Reward        int64      `json:"reward"`
	Link          string     `json:"link,omitempty"`
	Completed     bool       `json:"completed"`
	LastClaimedAt *time.Time `json:"last_claimed_at"`
	PurchaseCount int        `json:"purchase_count,omitempty"`
	HasBetToday   bool       `json:"has_bet_today,omitempty"`
}

func newTaskResponses(statuses []*entities.TaskStatus) []taskResponse {
	out := make([]taskResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, taskResponse{
			ID:            string(s.ID),
			Name:          s.Name,
			Type:          string(s.Type),
			Category:      string(s.Category),
			Reward:        s.Reward,
			Link:          s.Link,
			Completed:     s.Completed,
			LastClaimedAt: s.LastClaimedAt,
			PurchaseCount: s.PurchaseCount,
			HasBetToday:   s.HasBetToday,
		})
	}
	return out
}

type taskClaimResponse struct {
	TaskID    string    `json:"task_id"`
	Reward    int64     `json:"reward"`
	NewPoints int64     `json:"new_points"`
	ClaimedAt time.Time `json:"claimed_at"`
}

type tonMessage struct {
	Address string `json:"address"`
	Amount  string `json:"amount"` // nanoton, TON Connect expects a string
}

// purchaseIntentResponse is shaped for a TON Connect sendTransaction call
type purchaseIntentResponse struct {
	PurchaseID   string       `json:"purchase_id"`
	ValidUntil   int64        `json:"valid_until"`
	VerifiableAt time.Time    `json:"verifiable_at"`
	Messages     []tonMessage `json:"messages"`
}

func newPurchaseIntentResponse(intent *entities.PurchaseIntent) purchaseIntentResponse {
	return purchaseIntentResponse{
		PurchaseID:   intent.PurchaseID.String(),
		ValidUntil:   intent.ValidUntil.Unix(),
		VerifiableAt: intent.VerifiableAt,
		Messages: []tonMessage{{
			Address: intent.RecipientAddress,
			Amount:  strconv.FormatInt(intent.AmountNano, 10),
		}},
	}
}

type purchaseResultResponse struct {
	PurchaseID     string `json:"purchase_id"`
	TxHash         string `json:"tx_hash"`
	Reward         int64  `json:"reward"`
	NewPoints      int64  `json:"new_points"`
	DailyPurchases int    `json:"daily_purchases"`
}

type referralClaimResponse struct {
	Claimed               int64   `json:"claimed"`
	NewPoints             int64   `json:"new_points"`
	RemainingClaimable    float64 `json:"remaining_claimable"`
	TotalReferralEarnings int64   `json:"total_referral_earnings"`
}

type referredUserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Points    int64  `json:"points"`
}
