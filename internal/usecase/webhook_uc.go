package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/domain/ports/repository"
	"telegram-course-store/internal/infra/metrics"
)

var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookUseCase routes verified provider events to the grant/deny/refund
// handlers. A returned error means an internal failure that needs
// out-of-band reconciliation; the HTTP layer still acknowledges the
// delivery so the provider does not retry-storm us.
type WebhookUseCase interface {
	Process(ctx context.Context, body []byte) error
}

type webhookUC struct {
	catalog      repository.CourseCatalog
	users        repository.UserRepository
	entitlements repository.EntitlementRepository
	transactions repository.TransactionRepository
	events       repository.WebhookEventRepository
	gateway      adapter.PaymentGateway
	cache        adapter.CourseCache
	courier      adapter.Courier
	tm           repository.TransactionManager
	log          *zerolog.Logger
}

func NewWebhookUseCase(
	catalog repository.CourseCatalog,
	users repository.UserRepository,
	entitlements repository.EntitlementRepository,
	transactions repository.TransactionRepository,
	events repository.WebhookEventRepository,
	gateway adapter.PaymentGateway,
	cache adapter.CourseCache,
	courier adapter.Courier,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{
		catalog:      catalog,
		users:        users,
		entitlements: entitlements,
		transactions: transactions,
		events:       events,
		gateway:      gateway,
		cache:        cache,
		courier:      courier,
		tm:           tm,
		log:          &l,
	}
}

func (u *webhookUC) Process(ctx context.Context, body []byte) error {
	ev, err := model.DecodePaymentEvent(body)
	if err != nil {
		u.log.Error().Err(err).Msg("undecodable webhook event dropped")
		return err
	}

	// Audit trail only; a failure here must not block routing.
	if err := u.events.Record(ctx, repository.NoTX, ev.ID, ev.RawType, time.Now().UTC()); err != nil {
		u.log.Warn().Err(err).Str("event_id", ev.ID).Msg("webhook event audit record failed")
	}

	log := u.log.With().Str("event_id", ev.ID).Str("event_type", ev.RawType).Logger()

	var herr error
	switch ev.Type {
	case model.EventOrderApproved:
		herr = u.handleOrderApproved(ctx, ev, &log)
	case model.EventCaptureCompleted:
		herr = u.handleCaptureCompleted(ctx, ev, &log)
	case model.EventCaptureDenied:
		herr = u.handleCaptureDenied(ctx, ev, &log)
	case model.EventCaptureRefunded:
		herr = u.handleCaptureRefunded(ctx, ev, &log)
	case model.EventUnknown:
		log.Info().Msg("unhandled webhook event type ignored")
		metrics.IncWebhookEvent(ev.RawType, "skipped")
		return nil
	}

	if herr != nil {
		metrics.IncWebhookEvent(ev.RawType, "error")
		return herr
	}
	metrics.IncWebhookEvent(ev.RawType, "handled")
	return nil
}

// handleOrderApproved captures the approved order, then re-enters the
// completed path with the resulting capture id and captured amount.
func (u *webhookUC) handleOrderApproved(ctx context.Context, ev *model.PaymentEvent, log *zerolog.Logger) error {
	cap, err := u.gateway.CaptureOrder(ctx, ev.OrderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", ev.OrderID).Msg("auto-capture failed")
		return fmt.Errorf("auto-capture order %s: %w", ev.OrderID, err)
	}
	completed := *ev
	completed.Type = model.EventCaptureCompleted
	completed.ResourceID = cap.CaptureID
	completed.Amount = cap.Amount
	completed.Currency = cap.Currency
	log.Info().Str("order_id", ev.OrderID).Str("capture_id", cap.CaptureID).Msg("order auto-captured")
	return u.handleCaptureCompleted(ctx, &completed, log)
}

// handleCaptureCompleted is the access grantor. The duplicate-grant check
// and the entitlement insert are one atomicity unit: the insert-if-absent
// on user_courses reports a conflict as "already granted" rather than an
// error, so replayed deliveries cannot grant twice. Transaction
// reconciliation is re-run safe so a crash between grant and reconcile is
// repaired by the provider's retry.
func (u *webhookUC) handleCaptureCompleted(ctx context.Context, ev *model.PaymentEvent, log *zerolog.Logger) error {
	userID, courseID, err := model.ParseCustomID(ev.CustomID)
	if err != nil {
		// Permanent failure: nothing to grant, nothing to retry.
		log.Error().Err(err).
			Str("capture_id", ev.ResourceID).
			Str("custom_id", ev.CustomID).
			Msg("capture completed with unusable custom id, dropped")
		return nil
	}

	course, err := u.catalog.Find(ctx, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Error().
				Str("capture_id", ev.ResourceID).
				Str("course_id", courseID).
				Int64("user_id", userID).
				Msg("capture completed for nonexistent course, dropped")
			return nil
		}
		return err
	}

	var (
		granted    bool
		reconciled *model.Transaction
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		granted, err = u.entitlements.Grant(ctx, tx, userID, courseID, time.Now().UTC())
		if err != nil {
			return err
		}

		reconciled, err = u.transactions.MarkCaptured(ctx, tx, userID, courseID, ev.OrderID, ev.ResourceID, ev.Amount, ev.Currency)
		if err != nil {
			return err
		}
		if reconciled == nil && granted {
			// No pending row (order created out-of-band); record the
			// capture as a fresh success row. Skipped on duplicate
			// delivery so one payment never yields two success rows.
			t := model.NewTransaction(
				ulid.MustNew(ulid.Now(), rand.Reader).String(),
				userID, courseID, ev.ResourceID,
				ev.Amount, ev.Currency,
				model.TransactionStatusSuccess, model.TransactionTypePurchase,
			)
			if err := u.transactions.Insert(ctx, tx, t); err != nil {
				return err
			}
			reconciled = t
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).
			Str("capture_id", ev.ResourceID).
			Str("custom_id", ev.CustomID).
			Int64("user_id", userID).
			Str("course_id", courseID).
			Msg("grant transaction failed")
		return err
	}

	if !granted {
		metrics.IncGrant("duplicate")
		log.Info().
			Int64("user_id", userID).
			Str("course_id", courseID).
			Str("capture_id", ev.ResourceID).
			Bool("pending_reconciled", reconciled != nil).
			Msg("duplicate capture delivery, access already granted")
		return nil
	}

	metrics.IncGrant("granted")
	metrics.IncTransaction(string(model.TransactionStatusSuccess))
	metrics.AddRevenue(ev.Currency, ev.Amount)
	log.Info().
		Int64("user_id", userID).
		Str("course_id", courseID).
		Str("capture_id", ev.ResourceID).
		Msg("course access granted")

	// Cache and courier are best-effort from here on; the grant is
	// committed and nothing below may undo it.
	if err := u.cache.InvalidateUser(ctx, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("cache invalidation failed")
	}

	u.notifyGranted(ctx, userID, course.Title, reconciled, log)
	return nil
}

func (u *webhookUC) notifyGranted(ctx context.Context, userID int64, courseTitle string, t *model.Transaction, log *zerolog.Logger) {
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("confirmation skipped, user lookup failed")
		return
	}
	if t != nil && t.NotifyMessageID != nil {
		if err := u.courier.EditToConfirmation(ctx, user.TelegramID, *t.NotifyMessageID, courseTitle); err == nil {
			return
		} else {
			log.Warn().Err(err).Int64("user_id", userID).Msg("confirmation edit failed, sending fresh message")
		}
	}
	if _, err := u.courier.SendPurchaseConfirmation(ctx, user.TelegramID, courseTitle); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("confirmation notification failed")
	}
}

// handleCaptureDenied records the failed attempt. No entitlement was ever
// granted for a denied capture, so there is nothing to revoke.
func (u *webhookUC) handleCaptureDenied(ctx context.Context, ev *model.PaymentEvent, log *zerolog.Logger) error {
	userID, courseID, err := model.ParseCustomID(ev.CustomID)
	if err != nil {
		log.Error().Err(err).Str("capture_id", ev.ResourceID).Msg("capture denied with unusable custom id, dropped")
		return nil
	}

	t := model.NewTransaction(
		ulid.MustNew(ulid.Now(), rand.Reader).String(),
		userID, courseID, ev.ResourceID,
		ev.Amount, ev.Currency,
		model.TransactionStatusFailed, model.TransactionTypePurchase,
	)
	if err := u.transactions.Insert(ctx, repository.NoTX, t); err != nil {
		return err
	}
	metrics.IncTransaction(string(model.TransactionStatusFailed))
	log.Info().Int64("user_id", userID).Str("course_id", courseID).Str("capture_id", ev.ResourceID).Msg("capture denied recorded")
	return nil
}

// handleCaptureRefunded revokes the (user, course) entitlement and records
// the refund. The revoke is unconditional: a stale refund for an earlier
// capture also revokes a later re-purchase of the same course.
func (u *webhookUC) handleCaptureRefunded(ctx context.Context, ev *model.PaymentEvent, log *zerolog.Logger) error {
	userID, courseID, err := model.ParseCustomID(ev.CustomID)
	if err != nil {
		log.Error().Err(err).Str("refund_id", ev.ResourceID).Msg("refund with unusable custom id, dropped")
		return nil
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.entitlements.Revoke(ctx, tx, userID, courseID); err != nil {
			return err
		}
		t := model.NewTransaction(
			ulid.MustNew(ulid.Now(), rand.Reader).String(),
			userID, courseID, ev.ResourceID,
			ev.Amount, ev.Currency,
			model.TransactionStatusRefunded, model.TransactionTypeRefund,
		)
		return u.transactions.Insert(ctx, tx, t)
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("course_id", courseID).Msg("refund processing failed")
		return err
	}

	metrics.IncGrant("revoked")
	metrics.IncTransaction(string(model.TransactionStatusRefunded))
	log.Info().Int64("user_id", userID).Str("course_id", courseID).Str("refund_id", ev.ResourceID).Msg("refund processed, access revoked")

	if err := u.cache.InvalidateUser(ctx, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("cache invalidation failed")
	}

	if user, uerr := u.users.FindByID(ctx, repository.NoTX, userID); uerr == nil {
		title := courseID
		if course, cerr := u.catalog.Find(ctx, courseID); cerr == nil {
			title = course.Title
		}
		if nerr := u.courier.SendRefundNotice(ctx, user.TelegramID, title); nerr != nil {
			log.Warn().Err(nerr).Int64("user_id", userID).Msg("refund notification failed")
		}
	}
	return nil
}
