package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/repository"
	"telegram-course-store/internal/infra/metrics"
)

// OrderReconciler periodically fails purchase transactions that stayed
// pending past the provider's order lifetime (abandoned checkouts, lost
// webhooks). Completed captures are reconciled by the webhook path; this
// worker only sweeps what never completed.
type OrderReconciler struct {
	transactions repository.TransactionRepository
	interval     time.Duration
	staleAfter   time.Duration
	log          *zerolog.Logger
}

func NewOrderReconciler(transactions repository.TransactionRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *OrderReconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	l := logger.With().Str("component", "OrderReconciler").Logger()
	return &OrderReconciler{transactions: transactions, interval: interval, staleAfter: staleAfter, log: &l}
}

func (w *OrderReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting order reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping order reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *OrderReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	n, err := w.transactions.ExpirePending(ctx, repository.NoTX, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("expire pending transactions failed")
		return
	}
	if n > 0 {
		for i := int64(0); i < n; i++ {
			metrics.IncTransaction(string(model.TransactionStatusFailed))
		}
		w.log.Info().Int64("count", n).Msg("stale pending transactions failed")
	}
}
