package usecase

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/domain/ports/repository"
	"telegram-course-store/internal/infra/metrics"
)

var _ OrderUseCase = (*orderUC)(nil)

// CreatedPurchase is what the client needs to continue checkout.
type CreatedPurchase struct {
	OrderID    string
	ApproveURL string
	Amount     int64
	Price      string // provider decimal rendering of Amount
	Currency   string
}

type OrderUseCase interface {
	// CreateOrder opens a provider order for (user, course) and records the
	// pending transaction keyed by the provider order id.
	CreateOrder(ctx context.Context, user *model.User, courseID string) (*CreatedPurchase, error)
}

type orderUC struct {
	catalog      repository.CourseCatalog
	entitlements repository.EntitlementRepository
	transactions repository.TransactionRepository
	gateway      adapter.PaymentGateway
	courier      adapter.Courier
	log          *zerolog.Logger
}

func NewOrderUseCase(
	catalog repository.CourseCatalog,
	entitlements repository.EntitlementRepository,
	transactions repository.TransactionRepository,
	gateway adapter.PaymentGateway,
	courier adapter.Courier,
	logger *zerolog.Logger,
) *orderUC {
	l := logger.With().Str("component", "OrderUC").Logger()
	return &orderUC{
		catalog:      catalog,
		entitlements: entitlements,
		transactions: transactions,
		gateway:      gateway,
		courier:      courier,
		log:          &l,
	}
}

func (u *orderUC) CreateOrder(ctx context.Context, user *model.User, courseID string) (*CreatedPurchase, error) {
	course, err := u.catalog.Find(ctx, courseID)
	if err != nil {
		return nil, err
	}

	owned, err := u.entitlements.Exists(ctx, repository.NoTX, user.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, domain.ErrAlreadyOwned
	}

	customID := model.CustomID(user.ID, course.ID)
	order, err := u.gateway.CreateOrder(ctx, course.Price, course.Currency, course.Title, customID)
	if err != nil {
		return nil, fmt.Errorf("create provider order: %w", err)
	}

	t := model.NewTransaction(
		ulid.MustNew(ulid.Now(), rand.Reader).String(),
		user.ID, course.ID, order.OrderID,
		course.Price, course.Currency,
		model.TransactionStatusPending, model.TransactionTypePurchase,
	)

	// Best-effort processing notice; its message id lets the capture
	// handler edit the message into a confirmation later.
	if msgID, nerr := u.courier.SendPurchaseProcessing(ctx, user.TelegramID, course.Title); nerr != nil {
		u.log.Warn().Err(nerr).Int64("user_id", user.ID).Str("course_id", course.ID).Msg("processing notification failed")
	} else {
		t.NotifyMessageID = &msgID
	}

	if err := u.transactions.Insert(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	metrics.IncTransaction(string(model.TransactionStatusPending))

	u.log.Info().
		Int64("user_id", user.ID).
		Str("course_id", course.ID).
		Str("order_id", order.OrderID).
		Int64("amount", course.Price).
		Str("currency", course.Currency).
		Msg("purchase order created")

	return &CreatedPurchase{
		OrderID:    order.OrderID,
		ApproveURL: order.ApproveURL,
		Amount:     course.Price,
		Price:      model.FormatAmount(course.Price),
		Currency:   course.Currency,
	}, nil
}
