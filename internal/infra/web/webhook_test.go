//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// ---- minimal mocks for the handler layer ----

type mockWebhookUC struct {
	Calls       int
	LastBody    []byte
	ProcessFunc func(ctx context.Context, body []byte) error
}

func (m *mockWebhookUC) Process(ctx context.Context, body []byte) error {
	m.Calls++
	m.LastBody = append([]byte(nil), body...)
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, body)
	}
	return nil
}

type mockVerifier struct {
	Headers             adapter.WebhookHeaders
	VerifySignatureFunc func(ctx context.Context, hdr adapter.WebhookHeaders, rawEvent []byte) (bool, error)
}

func (m *mockVerifier) VerifySignature(ctx context.Context, hdr adapter.WebhookHeaders, rawEvent []byte) (bool, error) {
	m.Headers = hdr
	if m.VerifySignatureFunc != nil {
		return m.VerifySignatureFunc(ctx, hdr, rawEvent)
	}
	return true, nil
}

type mockUserUC struct {
	EnsureUserFunc func(ctx context.Context, profile model.TelegramProfile) (*model.User, error)
	FindByIDFunc   func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserUC) EnsureUser(ctx context.Context, profile model.TelegramProfile) (*model.User, error) {
	if m.EnsureUserFunc != nil {
		return m.EnsureUserFunc(ctx, profile)
	}
	return &model.User{ID: 1, TelegramID: profile.ID}, nil
}

func (m *mockUserUC) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return &model.User{ID: id, TelegramID: 777}, nil
}

type mockReplayGuard struct {
	FirstUseFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

func (m *mockReplayGuard) FirstUse(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.FirstUseFunc != nil {
		return m.FirstUseFunc(ctx, key, ttl)
	}
	return true, nil
}

func newWebhookServer(uc usecase.WebhookUseCase, verifier adapter.WebhookVerifier, production bool) *Server {
	sessions := NewSessionManager("test-secret", time.Hour)
	return NewServer(nil, uc, nil, &mockUserUC{}, sessions, &mockReplayGuard{}, verifier,
		"test-bot-token", 15*time.Minute, production, newTestLogger())
}

func postWebhook(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paypal", bytes.NewBufferString(body))
	req.Header.Set("Paypal-Transmission-Id", "tx-1")
	req.Header.Set("Paypal-Transmission-Time", "2026-01-02T03:04:05Z")
	req.Header.Set("Paypal-Transmission-Sig", "sig")
	req.Header.Set("Paypal-Cert-Url", "https://api.paypal.example/cert")
	req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)
	return rr
}

func TestWebhookHandler(t *testing.T) {
	eventBody := `{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP1"}}`

	t.Run("verified delivery -> 200 and dispatched", func(t *testing.T) {
		uc := &mockWebhookUC{}
		verifier := &mockVerifier{}
		srv := newWebhookServer(uc, verifier, true)

		rr := postWebhook(t, srv, eventBody)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if uc.Calls != 1 {
			t.Fatalf("expected one dispatch, got %d", uc.Calls)
		}
		if string(uc.LastBody) != eventBody {
			t.Error("handler must pass the raw body through unmodified")
		}
		if verifier.Headers.TransmissionID != "tx-1" || verifier.Headers.AuthAlgo != "SHA256withRSA" {
			t.Errorf("transmission headers not forwarded: %+v", verifier.Headers)
		}
		var resp map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp["received"] != true {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})

	t.Run("bad signature -> 401 and no dispatch", func(t *testing.T) {
		uc := &mockWebhookUC{}
		verifier := &mockVerifier{
			VerifySignatureFunc: func(ctx context.Context, hdr adapter.WebhookHeaders, rawEvent []byte) (bool, error) {
				return false, nil
			},
		}
		srv := newWebhookServer(uc, verifier, true)

		rr := postWebhook(t, srv, eventBody)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if uc.Calls != 0 {
			t.Fatalf("rejected delivery must not be dispatched, got %d calls", uc.Calls)
		}
	})

	t.Run("verifier error -> 401 and no dispatch", func(t *testing.T) {
		uc := &mockWebhookUC{}
		verifier := &mockVerifier{
			VerifySignatureFunc: func(ctx context.Context, hdr adapter.WebhookHeaders, rawEvent []byte) (bool, error) {
				return false, errors.New("verify endpoint unreachable")
			},
		}
		srv := newWebhookServer(uc, verifier, true)

		rr := postWebhook(t, srv, eventBody)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if uc.Calls != 0 {
			t.Fatal("verifier outage must fail closed")
		}
	})

	t.Run("unconfigured verifier in production -> 500", func(t *testing.T) {
		uc := &mockWebhookUC{}
		srv := newWebhookServer(uc, nil, true)

		rr := postWebhook(t, srv, eventBody)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
		if uc.Calls != 0 {
			t.Fatal("unverified delivery must not be dispatched in production")
		}
	})

	t.Run("unconfigured verifier in development -> insecure passthrough", func(t *testing.T) {
		uc := &mockWebhookUC{}
		srv := newWebhookServer(uc, nil, false)

		rr := postWebhook(t, srv, eventBody)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if uc.Calls != 1 {
			t.Fatalf("expected one dispatch, got %d", uc.Calls)
		}
	})

	t.Run("processing failure is still acknowledged with 200", func(t *testing.T) {
		uc := &mockWebhookUC{
			ProcessFunc: func(ctx context.Context, body []byte) error {
				return errors.New("database unavailable")
			},
		}
		srv := newWebhookServer(uc, &mockVerifier{}, true)

		rr := postWebhook(t, srv, eventBody)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 despite processing failure, got %d", rr.Code)
		}
		var resp map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if resp["received"] != true || resp["error"] == nil {
			t.Errorf("expected received=true with an error field, got %v", resp)
		}
	})

	t.Run("test endpoint reports ok", func(t *testing.T) {
		srv := newWebhookServer(&mockWebhookUC{}, &mockVerifier{}, true)
		req := httptest.NewRequest(http.MethodGet, "/webhooks/paypal/test", nil)
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var resp map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp["ok"] != true {
			t.Errorf("unexpected body: %s", rr.Body.String())
		}
	})
}

func TestSessionManagerRoundTrip(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)

	tok, err := m.Mint(42)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/courses/my", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	id, err := m.ParseFromRequest(req)
	if err != nil {
		t.Fatalf("ParseFromRequest failed: %v", err)
	}
	if id != 42 {
		t.Errorf("expected user 42, got %d", id)
	}

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := NewSessionManager("other-secret", time.Hour)
		forged, _ := other.Mint(42)
		req := httptest.NewRequest(http.MethodGet, "/courses/my", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		if _, err := m.ParseFromRequest(req); err == nil {
			t.Fatal("expected a forged token to be rejected")
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		short := NewSessionManager("test-secret", -time.Minute)
		expired, _ := short.Mint(42)
		req := httptest.NewRequest(http.MethodGet, "/courses/my", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		if _, err := m.ParseFromRequest(req); err == nil {
			t.Fatal("expected an expired token to be rejected")
		}
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/courses/my", nil)
		if _, err := m.ParseFromRequest(req); err == nil {
			t.Fatal("expected an error without an Authorization header")
		}
	})
}
