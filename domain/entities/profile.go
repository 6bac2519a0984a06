package entities

import (
	"strconv"
	"time"
)

// DefaultAvatar is shown for players without a Telegram photo
const DefaultAvatar = "/img/coin-static.png"

// CentipointsPerPoint converts whole points into the hundredths used for claimable balances
const CentipointsPerPoint int64 = 100

// TelegramUser is the verified identity carried by a Mini App launch
type TelegramUser struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	PhotoURL     string
}

// ProfileID returns the profile key derived from the Telegram id
func (u TelegramUser) ProfileID() string {
	return strconv.FormatInt(u.ID, 10)
}

// Profile is the per-user ledger record
type Profile struct {
	ID                      string     `db:"id"`
	Username                string     `db:"username"`
	FirstName               string     `db:"first_name"`
	LastName                string     `db:"last_name"`
	LanguageCode            string     `db:"language_code"`
	PhotoURL                string     `db:"photo_url"`
	Points                  int64      `db:"points"`
	ClaimableCentipoints    int64      `db:"claimable_centipoints"`
	TotalReferralEarnings   int64      `db:"total_referral_earnings"`
	ReferralCode            string     `db:"referral_code"`
	ReferredBy              *string    `db:"referred_by"`
	Referrals               int        `db:"referrals"`
	GamesPlayed             int        `db:"games_played"`
	GamesWon                int        `db:"games_won"`
	GamesLost               int        `db:"games_lost"`
	TotalVolume             int64      `db:"total_volume"`
	DailyPurchases          int        `db:"daily_purchases"`
	PurchaseWindowStartedAt *time.Time `db:"purchase_window_started_at"`
	LastBetAt               *time.Time `db:"last_bet_at"`
	WalletAddress           *string    `db:"wallet_address"`
	LastWalletConnectionAt  *time.Time `db:"last_wallet_connection_at"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
}

// DisplayName prefers the Telegram username and falls back to the first name
func (p *Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.FirstName
}

// Avatar returns the photo shown next to the player's bets
func (p *Profile) Avatar() string {
	if p.PhotoURL != "" {
		return p.PhotoURL
	}
	return DefaultAvatar
}

// CanAfford checks if the profile holds at least amount spendable points
func (p *Profile) CanAfford(amount int64) bool {
	return p.Points >= amount
}

// ClaimablePoints returns the whole points that a referral claim would move
func (p *Profile) ClaimablePoints() int64 {
	return p.ClaimableCentipoints / CentipointsPerPoint
}

// HasWallet reports whether a TON wallet is connected
func (p *Profile) HasWallet() bool {
	return p.WalletAddress != nil && *p.WalletAddress != ""
}

// IsReferred reports whether the profile was created through a referral code
func (p *Profile) IsReferred() bool {
	return p.ReferredBy != nil && *p.ReferredBy != ""
}

// ApplyIdentity refreshes the display fields from a Telegram identity.
// Returns true if anything changed.
func (p *Profile) ApplyIdentity(u TelegramUser) bool {
	changed := p.Username != u.Username ||
		p.FirstName != u.FirstName ||
		p.LastName != u.LastName ||
		p.LanguageCode != u.LanguageCode ||
		p.PhotoURL != u.PhotoURL

	p.Username = u.Username
	p.FirstName = u.FirstName
	p.LastName = u.LastName
	p.LanguageCode = u.LanguageCode
	p.PhotoURL = u.PhotoURL
	return changed
}
