package adapter

import "context"

// CreatedOrder is the provider-side purchase intent returned by CreateOrder.
type CreatedOrder struct {
	OrderID    string
	ApproveURL string
}

// CaptureResult is the outcome of capturing an approved order.
type CaptureResult struct {
	CaptureID string
	Amount    int64
	Currency  string
}

type PaymentGateway interface {
	Name() string
	// CreateOrder creates a remote order carrying the custom id that
	// round-trips user+course identity through the webhook boundary.
	CreateOrder(ctx context.Context, amount int64, currency, description, customID string) (*CreatedOrder, error)
	// CaptureOrder charges an approved order (used by the ORDER.APPROVED
	// auto-capture path).
	CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error)
}

// WebhookHeaders are the provider transmission headers accompanying a
// webhook delivery, consumed by signature verification.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

type WebhookVerifier interface {
	// VerifySignature reports whether the delivery was signed by the
	// provider for the configured webhook id.
	VerifySignature(ctx context.Context, hdr WebhookHeaders, rawEvent []byte) (bool, error)
}
