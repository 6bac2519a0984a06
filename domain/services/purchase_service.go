package services

import (
	"context"
	"fmt"
	"time"

	"tonflip/config"
	"tonflip/domain/entities"
	"tonflip/domain/events"
	"tonflip/domain/interfaces"
	"tonflip/domain/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// indexerLookback is how many recent wallet transactions verification inspects
const indexerLookback = 3

type purchaseService struct {
	profileRepo    interfaces.ProfileRepository
	purchaseRepo   interfaces.PurchaseRepository
	historyRepo    interfaces.PointsHistoryRepository
	indexer        interfaces.ChainIndexer
	eventPublisher interfaces.EventPublisher
	now            interfaces.Clock
}

// NewPurchaseService creates a new purchase service. A nil clock uses time.Now.
func NewPurchaseService(profileRepo interfaces.ProfileRepository, purchaseRepo interfaces.PurchaseRepository, historyRepo interfaces.PointsHistoryRepository, indexer interfaces.ChainIndexer, eventPublisher interfaces.EventPublisher, clock interfaces.Clock) interfaces.PurchaseService {
	if clock == nil {
		clock = time.Now
	}
	return &purchaseService{
		profileRepo:    profileRepo,
		purchaseRepo:   purchaseRepo,
		historyRepo:    historyRepo,
		indexer:        indexer,
		eventPublisher: eventPublisher,
		now:            clock,
	}
}

func (s *purchaseService) InitiatePurchase(ctx context.Context, profileID string) (*entities.PurchaseIntent, error) {
	cfg := config.Get()

	profile, err := s.profileRepo.GetByIDForUpdate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}
	if !profile.HasWallet() {
		return nil, entities.ErrWalletNotConnected
	}

	now := s.now()
	count, _ := purchaseWindow(profile, now)
	pending, err := s.purchaseRepo.CountPending(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending purchases: %w", err)
	}
	if count+pending >= cfg.DailyPurchaseLimit {
		return nil, fmt.Errorf("%w: %d of %d used", entities.ErrPurchaseLimitReached, count, cfg.DailyPurchaseLimit)
	}

	purchase := &entities.Purchase{
		ID:               uuid.New(),
		ProfileID:        profileID,
		WalletAddress:    *profile.WalletAddress,
		RecipientAddress: cfg.PurchaseRecipientAddress,
		AmountNano:       cfg.PurchaseAmountNano,
		Status:           entities.PurchaseStatusPending,
		InitiatedAt:      now,
		ValidUntil:       now.Add(cfg.PurchaseValidity),
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	log.WithFields(log.Fields{
		"profileID":  profileID,
		"purchaseID": purchase.ID,
		"wallet":     purchase.WalletAddress,
	}).Info("Initiated points purchase")

	return &entities.PurchaseIntent{
		PurchaseID:       purchase.ID,
		RecipientAddress: purchase.RecipientAddress,
		AmountNano:       purchase.AmountNano,
		ValidUntil:       purchase.ValidUntil,
		VerifiableAt:     purchase.VerifiableAt(cfg.VerifyCooldown),
	}, nil
}

func (s *purchaseService) VerifyPurchase(ctx context.Context, profileID string, purchaseID uuid.UUID) (*entities.PurchaseResult, error) {
	cfg := config.Get()

	// Lock the purchase first so concurrent verifications of it serialize
	purchase, err := s.purchaseRepo.GetByIDForUpdate(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock purchase: %w", err)
	}
	if purchase == nil || purchase.ProfileID != profileID {
		return nil, entities.ErrUnknownPurchase
	}
	switch purchase.Status {
	case entities.PurchaseStatusVerified:
		return nil, entities.ErrPurchaseAlreadyVerified
	case entities.PurchaseStatusExpired:
		return nil, entities.ErrPurchaseExpired
	}

	now := s.now()
	if now.Before(purchase.VerifiableAt(cfg.VerifyCooldown)) {
		return nil, fmt.Errorf("%w: retry in %s", entities.ErrVerifyCooldown,
			purchase.VerifiableAt(cfg.VerifyCooldown).Sub(now).Round(time.Second))
	}

	tx, err := s.findTransfer(ctx, purchase)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByIDForUpdate(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}
	if profile == nil {
		return nil, entities.ErrProfileNotFound
	}

	count, windowStart := purchaseWindow(profile, now)
	if count >= cfg.DailyPurchaseLimit {
		return nil, fmt.Errorf("%w: %d of %d used", entities.ErrPurchaseLimitReached, count, cfg.DailyPurchaseLimit)
	}
	count++
	if err := s.profileRepo.SetPurchaseWindow(ctx, profileID, count, &windowStart); err != nil {
		return nil, fmt.Errorf("failed to update purchase window: %w", err)
	}

	if err := s.purchaseRepo.MarkVerified(ctx, purchase.ID, tx.Hash, now); err != nil {
		return nil, fmt.Errorf("failed to mark purchase verified: %w", err)
	}

	newPoints, err := s.profileRepo.AddPoints(ctx, profileID, cfg.PurchaseReward)
	if err != nil {
		return nil, fmt.Errorf("failed to credit purchase reward: %w", err)
	}

	relatedID := purchase.ID.String()
	history := &entities.PointsHistory{
		ProfileID:       profileID,
		PointsBefore:    profile.Points,
		PointsAfter:     newPoints,
		ChangeAmount:    cfg.PurchaseReward,
		TransactionType: entities.TransactionTypePurchaseReward,
		Metadata: map[string]any{
			"txHash":     tx.Hash,
			"amountNano": purchase.AmountNano,
			"wallet":     purchase.WalletAddress,
		},
		RelatedID: &relatedID,
	}
	if err := utils.RecordPointsChange(ctx, s.historyRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.PurchaseVerifiedEvent{
		PurchaseID:    relatedID,
		ProfileID:     profileID,
		Username:      profile.DisplayName(),
		WalletAddress: purchase.WalletAddress,
		TxHash:        tx.Hash,
		AmountNano:    purchase.AmountNano,
		Reward:        cfg.PurchaseReward,
	}); err != nil {
		log.WithError(err).Error("Failed to publish purchase verified event")
	}

	return &entities.PurchaseResult{
		PurchaseID:     purchase.ID,
		TxHash:         tx.Hash,
		Reward:         cfg.PurchaseReward,
		NewPoints:      newPoints,
		DailyPurchases: count,
	}, nil
}

// findTransfer looks for an unused wallet transaction that pays for purchase
func (s *purchaseService) findTransfer(ctx context.Context, purchase *entities.Purchase) (*entities.ChainTransaction, error) {
	cfg := config.Get()

	recipient, err := utils.NormalizeTONAddress(purchase.RecipientAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address configured: %w", err)
	}

	txs, err := s.indexer.GetTransactions(ctx, purchase.WalletAddress, indexerLookback)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrPurchaseNotFound, err)
	}

	match := entities.PurchaseMatch{
		Recipient:     recipient,
		AmountNano:    purchase.AmountNano,
		ToleranceNano: cfg.PurchaseToleranceNano,
		NotBefore:     purchase.InitiatedAt,
	}
	for _, tx := range txs {
		if !match.Matches(tx) {
			continue
		}
		used, err := s.purchaseRepo.IsTxHashUsed(ctx, tx.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to check transaction reuse: %w", err)
		}
		if used {
			log.WithField("txHash", tx.Hash).Warn("Skipping transaction already used by another purchase")
			continue
		}
		return tx, nil
	}

	return nil, entities.ErrPurchaseNotFound
}

func (s *purchaseService) ExpireStalePurchases(ctx context.Context) (int64, error) {
	// Keep a grace period after validUntil for transfers the indexer has not seen yet
	cutoff := s.now().Add(-config.Get().PurchaseValidity)
	expired, err := s.purchaseRepo.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire purchases: %w", err)
	}
	return expired, nil
}

// purchaseWindow returns the purchases counted in the current window and when it started.
// An expired window restarts at now with no purchases.
func purchaseWindow(profile *entities.Profile, now time.Time) (int, time.Time) {
	if utils.IsWindowExpired(profile.PurchaseWindowStartedAt, now, entities.PurchaseWindow) {
		return 0, now
	}
	return profile.DailyPurchases, *profile.PurchaseWindowStartedAt
}
