package web

import (
	"io"
	"net/http"

	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/infra/metrics"
)

const webhookBodyLimit = 1 << 20 // 1 MiB

// handlePayPalWebhook applies the trust policy, then routes the event.
// Once the signature gate has passed, the response is always 200: internal
// failures are logged for out-of-band reconciliation instead of triggering
// provider retry storms.
func (s *Server) handlePayPalWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		metrics.IncWebhookRejected("body")
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if s.verifier == nil {
		if s.production {
			// A webhook endpoint must never run unauthenticated in
			// production.
			s.log.Error().Msg("webhook received but signature verification is unconfigured")
			metrics.IncWebhookRejected("unconfigured")
			writeError(w, http.StatusInternalServerError, "webhook verification unconfigured")
			return
		}
		s.log.Warn().Msg("INSECURE: processing webhook without signature verification (dev only)")
	} else {
		ok, verr := s.verifier.VerifySignature(r.Context(), webhookHeaders(r), body)
		if verr != nil || !ok {
			if verr != nil {
				s.log.Error().Err(verr).Msg("webhook signature verification errored")
			}
			metrics.IncWebhookRejected("signature")
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"received": false,
				"error":    "signature verification failed",
			})
			return
		}
	}

	resp := map[string]interface{}{"received": true}
	if err := s.webhookUC.Process(r.Context(), body); err != nil {
		s.log.Error().Err(err).Msg("webhook processing failed, acknowledged anyway")
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebhookTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"endpoint": "paypal-webhook",
	})
}

func webhookHeaders(r *http.Request) adapter.WebhookHeaders {
	return adapter.WebhookHeaders{
		TransmissionID:   r.Header.Get("Paypal-Transmission-Id"),
		TransmissionTime: r.Header.Get("Paypal-Transmission-Time"),
		TransmissionSig:  r.Header.Get("Paypal-Transmission-Sig"),
		CertURL:          r.Header.Get("Paypal-Cert-Url"),
		AuthAlgo:         r.Header.Get("Paypal-Auth-Algo"),
	}
}
