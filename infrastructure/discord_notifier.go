package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tonflip/domain/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Embed colors
const (
	colorPurchase = 0x0098EA
	colorBigWin   = 0xF1C40F
)

// DiscordNotifier posts ops notifications to a Discord channel webhook
type DiscordNotifier struct {
	session      *discordgo.Session
	webhookID    string
	webhookToken string
}

// NewDiscordNotifier creates a webhook notifier. Webhooks need no bot token.
func NewDiscordNotifier(webhookID, webhookToken string) (*DiscordNotifier, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Client.Timeout = 10 * time.Second

	return &DiscordNotifier{
		session:      session,
		webhookID:    webhookID,
		webhookToken: webhookToken,
	}, nil
}

// NotifyPurchaseVerified announces a verified points purchase
func (n *DiscordNotifier) NotifyPurchaseVerified(ctx context.Context, event events.PurchaseVerifiedEvent) error {
	return n.send(ctx, purchaseVerifiedEmbed(event))
}

// NotifyBigWin announces a wager won at or above the configured threshold
func (n *DiscordNotifier) NotifyBigWin(ctx context.Context, event events.BetSettledEvent) error {
	return n.send(ctx, bigWinEmbed(event))
}

func (n *DiscordNotifier) send(ctx context.Context, embed *discordgo.MessageEmbed) error {
	_, err := n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
		Username: "tonflip",
		Embeds:   []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}

	log.WithField("title", embed.Title).Debug("Sent ops notification")
	return nil
}

func purchaseVerifiedEmbed(event events.PurchaseVerifiedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "💎 Points Purchased",
		Description: fmt.Sprintf("**%s** bought %s points", displayName(event.Username, event.ProfileID), formatPoints(event.Reward)),
		Color:       colorPurchase,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Amount",
				Value:  formatTON(event.AmountNano),
				Inline: true,
			},
			{
				Name:   "Wallet",
				Value:  event.WalletAddress,
				Inline: true,
			},
			{
				Name:   "Transaction",
				Value:  "`" + event.TxHash + "`",
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Purchase " + event.PurchaseID},
	}
}

func bigWinEmbed(event events.BetSettledEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🪙 Big Win",
		Description: fmt.Sprintf("**%s** doubled %s points on %s", displayName(event.Username, event.ProfileID), formatPoints(event.Amount), event.Result),
		Color:       colorBigWin,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "New Balance",
				Value:  formatPoints(event.NewPoints),
				Inline: true,
			},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Bet #" + strconv.FormatInt(event.BetID, 10)},
		Timestamp: event.SettledAt.UTC().Format(time.RFC3339),
	}
}

func displayName(username, profileID string) string {
	if username != "" {
		return username
	}
	return "player " + profileID
}

// formatPoints inserts thousands separators
func formatPoints(points int64) string {
	s := strconv.FormatInt(points, 10)
	sign := ""
	if points < 0 {
		sign, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

func formatTON(nano int64) string {
	return strconv.FormatFloat(float64(nano)/1e9, 'f', -1, 64) + " TON"
}
