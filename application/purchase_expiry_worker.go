package application

import (
	"context"
	"time"

	"tonflip/infrastructure/observability"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// PurchaseExpiryWorker periodically expires pending purchases past their validity
type PurchaseExpiryWorker struct {
	purchases PurchaseHandler
	interval  time.Duration
}

// NewPurchaseExpiryWorker creates a new purchase expiry worker
func NewPurchaseExpiryWorker(purchases PurchaseHandler, interval time.Duration) *PurchaseExpiryWorker {
	return &PurchaseExpiryWorker{purchases: purchases, interval: interval}
}

// RunOnce expires stale purchases a single time
func (w *PurchaseExpiryWorker) RunOnce(ctx context.Context) {
	expired, err := w.purchases.ExpireStalePurchases(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to expire stale purchases")
		return
	}
	observability.RecordPurchasesExpired(expired)
}

// Start schedules the worker and returns a function that stops it
func (w *PurchaseExpiryWorker) Start(ctx context.Context) (func(), error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			w.RunOnce(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("expire-stale-purchases"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}

	scheduler.Start()
	log.WithField("interval", w.interval).Info("Purchase expiry worker started")

	return func() {
		if err := scheduler.Shutdown(); err != nil {
			log.WithError(err).Warn("Purchase expiry scheduler shutdown failed")
			return
		}
		log.Info("Purchase expiry worker stopped")
	}, nil
}
