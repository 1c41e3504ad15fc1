package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"telegram-course-store/internal/domain/ports/adapter"
)

var _ adapter.WebhookVerifier = (*PayPalGateway)(nil)

// VerifySignature asks PayPal whether the delivery was actually signed for
// the configured webhook id, forwarding the transmission headers verbatim.
// The raw event body must be passed through untouched: re-serialising it
// breaks the signature.
func (g *PayPalGateway) VerifySignature(ctx context.Context, hdr adapter.WebhookHeaders, rawEvent []byte) (bool, error) {
	if g.webhookID == "" {
		return false, fmt.Errorf("paypal verify: webhook id not configured")
	}
	if hdr.TransmissionID == "" || hdr.TransmissionSig == "" || hdr.CertURL == "" {
		return false, nil
	}

	body := map[string]interface{}{
		"auth_algo":         hdr.AuthAlgo,
		"cert_url":          hdr.CertURL,
		"transmission_id":   hdr.TransmissionID,
		"transmission_sig":  hdr.TransmissionSig,
		"transmission_time": hdr.TransmissionTime,
		"webhook_id":        g.webhookID,
		"webhook_event":     json.RawMessage(rawEvent),
	}
	req, err := g.authorizedRequest(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", body)
	if err != nil {
		return false, err
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := g.do(req, http.StatusOK, &out); err != nil {
		return false, err
	}
	return out.VerificationStatus == "SUCCESS", nil
}
