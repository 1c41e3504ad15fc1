package model

import (
	"encoding/json"
	"fmt"

	"telegram-course-store/internal/domain"
)

// EventType is a closed set of provider webhook event types. Everything the
// dispatcher routes on is declared here; an unlisted type parses to
// EventUnknown and is logged and ignored, never silently mistyped.
type EventType string

const (
	EventOrderApproved    EventType = "CHECKOUT.ORDER.APPROVED"
	EventCaptureCompleted EventType = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    EventType = "PAYMENT.CAPTURE.DENIED"
	EventCaptureRefunded  EventType = "PAYMENT.CAPTURE.REFUNDED"
	EventUnknown          EventType = ""
)

// ParseEventType maps the wire event_type to the closed enum.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventOrderApproved, EventCaptureCompleted, EventCaptureDenied, EventCaptureRefunded:
		return EventType(s), true
	default:
		return EventUnknown, false
	}
}

// PaymentEvent is the normalized view of one provider webhook delivery.
// ResourceID is the capture id for capture events, the order id for
// CHECKOUT.ORDER.APPROVED, and the refund id for refund events.
type PaymentEvent struct {
	ID         string
	Type       EventType
	RawType    string
	ResourceID string
	OrderID    string
	CustomID   string
	Amount     int64
	Currency   string
}

type eventEnvelope struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID       string `json:"id"`
		CustomID string `json:"custom_id"`
		Amount   struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
		// Present on CHECKOUT.ORDER.APPROVED, where the resource is the
		// order itself and custom_id/amount live in the purchase unit.
		PurchaseUnits []struct {
			CustomID string `json:"custom_id"`
			Amount   struct {
				Value        string `json:"value"`
				CurrencyCode string `json:"currency_code"`
			} `json:"amount"`
		} `json:"purchase_units"`
	} `json:"resource"`
}

// DecodePaymentEvent parses a raw provider event body. The amount is decoded
// best-effort: an absent or unparsable amount leaves zero, since denied events
// may omit it and the handlers tolerate that.
func DecodePaymentEvent(body []byte) (*PaymentEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", domain.ErrInvalidArgument, err)
	}
	if env.ID == "" || env.EventType == "" {
		return nil, fmt.Errorf("%w: event id or type missing", domain.ErrInvalidArgument)
	}
	typ, _ := ParseEventType(env.EventType)
	ev := &PaymentEvent{
		ID:         env.ID,
		Type:       typ,
		RawType:    env.EventType,
		ResourceID: env.Resource.ID,
		OrderID:    env.Resource.SupplementaryData.RelatedIDs.OrderID,
		CustomID:   env.Resource.CustomID,
		Currency:   env.Resource.Amount.CurrencyCode,
	}
	amountValue := env.Resource.Amount.Value
	if typ == EventOrderApproved {
		ev.OrderID = env.Resource.ID
		if len(env.Resource.PurchaseUnits) > 0 {
			pu := env.Resource.PurchaseUnits[0]
			if ev.CustomID == "" {
				ev.CustomID = pu.CustomID
			}
			if amountValue == "" {
				amountValue = pu.Amount.Value
				ev.Currency = pu.Amount.CurrencyCode
			}
		}
	}
	if amountValue != "" {
		if minor, err := ParseAmount(amountValue); err == nil {
			ev.Amount = minor
		}
	}
	return ev, nil
}
