package model

import (
	"strings"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"  // order created on provider side, awaiting capture
	TransactionStatusSuccess  TransactionStatus = "success"  // capture completed, access granted
	TransactionStatusFailed   TransactionStatus = "failed"   // capture denied or order abandoned
	TransactionStatusRefunded TransactionStatus = "refunded" // capture refunded, access revoked
)

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeRefund   TransactionType = "refund"
)

// Transaction records one payment attempt against the provider.
// PaymentID holds the provider order id while the row is pending and is
// replaced with the capture id once the capture completes.
type Transaction struct {
	ID        string // ULID
	UserID    int64
	CourseID  string // may be empty when the event carried no resolvable course
	PaymentID string
	Amount    int64 // minor units of Currency
	Currency  string
	Status    TransactionStatus
	Type      TransactionType
	// Telegram message id of the "processing" notification, kept so the
	// confirmation can edit that message instead of sending a new one.
	NotifyMessageID *int
	CreatedAt       time.Time
}

func NewTransaction(id string, userID int64, courseID, paymentID string, amount int64, currency string, status TransactionStatus, typ TransactionType) *Transaction {
	return &Transaction{
		ID:        id,
		UserID:    userID,
		CourseID:  courseID,
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  strings.ToUpper(currency),
		Status:    status,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
}
