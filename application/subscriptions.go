package application

import (
	"context"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/interfaces"
	"tonflip/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// RegisterApplicationSubscriptions registers the in-process reactions to committed ledger events:
// referrer credits, the live plays feed, ledger metrics and leaderboard cache invalidation.
// feed and cache may be nil.
func RegisterApplicationSubscriptions(
	subscriber interfaces.EventSubscriber,
	uowFactory UnitOfWorkFactory,
	feed PlayFeed,
	cache interfaces.LeaderboardCache,
) error {
	if err := subscriber.Subscribe(events.EventTypeReferralSignedUp, func(ctx context.Context, event events.Event) error {
		signup, err := AssertEventType[events.ReferralSignedUpEvent](event, "ReferralSignedUpEvent")
		if err != nil {
			return err
		}

		if err := creditSignup(ctx, uowFactory, signup.ReferrerID, signup.ReferredID); err != nil {
			log.WithFields(log.Fields{
				"referrerID": signup.ReferrerID,
				"referredID": signup.ReferredID,
				"error":      err,
			}).Error("Failed to credit referrer signup bonus")
			return err
		}
		return nil
	}); err != nil {
		return err
	}

	if err := subscriber.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, event events.Event) error {
		settled, err := AssertEventType[events.BetSettledEvent](event, "BetSettledEvent")
		if err != nil {
			return err
		}

		observability.RecordFlip(settled.Outcome == entities.BetOutcomeDoubled, settled.Amount)
		if feed != nil {
			feed.BroadcastBet(settled.Bet())
		}

		credited, err := creditCommission(ctx, uowFactory, settled.BetID, settled.ProfileID, settled.Amount)
		if err != nil {
			log.WithFields(log.Fields{
				"betID":     settled.BetID,
				"profileID": settled.ProfileID,
				"error":     err,
			}).Error("Failed to credit referral commission")
			return err
		}
		if credited {
			log.WithField("betID", settled.BetID).Debug("Credited referral commission")
		}
		return nil
	}); err != nil {
		return err
	}

	return subscriber.Subscribe(events.EventTypePointsChange, func(ctx context.Context, event events.Event) error {
		change, err := AssertEventType[events.PointsChangeEvent](event, "PointsChangeEvent")
		if err != nil {
			return err
		}
		if !change.TransactionType.IsRewardType() {
			return nil
		}

		observability.RecordPointsCredited(change.TransactionType.String(), change.ChangeAmount)

		// Flips only drift the rankings, rewards can reorder them outright
		if cache != nil {
			if err := cache.Invalidate(ctx); err != nil {
				log.WithError(err).Warn("Failed to invalidate leaderboard cache")
			}
		}
		return nil
	})
}

// RegisterOpsSubscriptions announces verified purchases and big wins to operators
func RegisterOpsSubscriptions(subscriber interfaces.EventSubscriber, notifier OpsNotifier) error {
	if err := subscriber.Subscribe(events.EventTypePurchaseVerified, func(ctx context.Context, event events.Event) error {
		purchase, err := AssertEventType[events.PurchaseVerifiedEvent](event, "PurchaseVerifiedEvent")
		if err != nil {
			return err
		}
		return notifier.NotifyPurchaseVerified(ctx, purchase)
	}); err != nil {
		return err
	}

	return subscriber.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, event events.Event) error {
		settled, err := AssertEventType[events.BetSettledEvent](event, "BetSettledEvent")
		if err != nil {
			return err
		}
		if settled.Outcome != entities.BetOutcomeDoubled || settled.Amount < config.Get().BigWinThreshold {
			return nil
		}
		return notifier.NotifyBigWin(ctx, settled)
	})
}
