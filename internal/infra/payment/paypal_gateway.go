package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
)

var _ adapter.PaymentGateway = (*PayPalGateway)(nil)

// PayPalGateway implements order create/capture and webhook signature
// verification against the PayPal REST API.
type PayPalGateway struct {
	clientID  string
	secret    string
	baseURL   string
	webhookID string
	returnURL string
	cancelURL string
	client    *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalGateway(clientID, secret string, sandbox bool, webhookID, returnURL, cancelURL string) *PayPalGateway {
	baseURL := liveBaseURL
	if sandbox {
		baseURL = sandboxBaseURL
	}
	return &PayPalGateway{
		clientID:  clientID,
		secret:    secret,
		baseURL:   baseURL,
		webhookID: webhookID,
		returnURL: returnURL,
		cancelURL: cancelURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *PayPalGateway) Name() string { return "paypal" }

// WebhookID reports the configured webhook secret id; empty means signature
// verification is unconfigured.
func (g *PayPalGateway) WebhookID() string { return g.webhookID }

// token returns a cached OAuth access token, refreshing it via the
// client-credentials grant when close to expiry.
func (g *PayPalGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.accessToken != "" && time.Until(g.tokenExpiry) > time.Minute {
		return g.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal token request: %w", err)
	}
	req.SetBasicAuth(g.clientID, g.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := g.do(req, http.StatusOK, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("paypal token: empty access_token")
	}
	g.accessToken = out.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return g.accessToken, nil
}

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

func (g *PayPalGateway) CreateOrder(ctx context.Context, amount int64, currency, description, customID string) (*adapter.CreatedOrder, error) {
	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{{
			"custom_id":   customID,
			"description": description,
			"amount": orderAmount{
				CurrencyCode: strings.ToUpper(currency),
				Value:        model.FormatAmount(amount),
			},
		}},
		"application_context": map[string]string{
			"return_url": g.returnURL,
			"cancel_url": g.cancelURL,
		},
	}

	req, err := g.authorizedRequest(ctx, http.MethodPost, "/v2/checkout/orders", body)
	if err != nil {
		return nil, err
	}
	// Idempotency key: a retried create must not open a second order.
	req.Header.Set("PayPal-Request-Id", uuid.NewString())

	var out struct {
		ID    string `json:"id"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := g.do(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	created := &adapter.CreatedOrder{OrderID: out.ID}
	for _, l := range out.Links {
		if l.Rel == "approve" {
			created.ApproveURL = l.Href
			break
		}
	}
	if created.OrderID == "" || created.ApproveURL == "" {
		return nil, fmt.Errorf("paypal create order: missing id or approve link")
	}
	return created, nil
}

func (g *PayPalGateway) CaptureOrder(ctx context.Context, orderID string) (*adapter.CaptureResult, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	req, err := g.authorizedRequest(ctx, http.MethodPost, path, struct{}{})
	if err != nil {
		return nil, err
	}

	var out struct {
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string      `json:"id"`
					Amount orderAmount `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	if err := g.do(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	if len(out.PurchaseUnits) == 0 || len(out.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, fmt.Errorf("paypal capture order %s: no capture in response", orderID)
	}
	cap := out.PurchaseUnits[0].Payments.Captures[0]
	minor, err := model.ParseAmount(cap.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("paypal capture order %s: %w", orderID, err)
	}
	return &adapter.CaptureResult{
		CaptureID: cap.ID,
		Amount:    minor,
		Currency:  strings.ToUpper(cap.Amount.CurrencyCode),
	}, nil
}

func (g *PayPalGateway) authorizedRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	tok, err := g.token(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("paypal marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("paypal build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (g *PayPalGateway) do(req *http.Request, wantStatus int, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paypal read response: %w", err)
	}
	// PayPal returns 200 instead of 201 for idempotent replays.
	if resp.StatusCode != wantStatus && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("paypal %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, truncate(data, 512))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("paypal decode response: %w", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
