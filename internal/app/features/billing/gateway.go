// internal/app/features/billing/gateway.go
package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Order is the gateway's record of a payment to be collected.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway talks to the payment provider's REST API. Orders are created
// server side; the checkout widget runs in the browser and the result
// comes back to us as (orderID, paymentID, signature).
type Gateway struct {
	KeyID     string
	KeySecret string
	BaseURL   string // e.g. "https://api.razorpay.com/v1"
	Client    *http.Client
}

func NewGateway(keyID, keySecret, baseURL string) *Gateway {
	return &Gateway{
		KeyID:     keyID,
		KeySecret: keySecret,
		BaseURL:   baseURL,
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether gateway credentials are configured.
func (g *Gateway) Enabled() bool { return g.KeyID != "" && g.KeySecret != "" }

// CreateOrder registers a new order with the gateway. Each order gets a
// fresh uuid-based receipt so retries never collide.
func (g *Gateway) CreateOrder(ctx context.Context, amount int64, currency string) (Order, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  "rcpt_" + uuid.NewString(),
	})
	if err != nil {
		return Order{}, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.KeyID, g.KeySecret)

	resp, err := g.Client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Order{}, fmt.Errorf("create order: gateway returned %s", resp.Status)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("decode order response: %w", err)
	}
	return order, nil
}

// VerifySignature checks the checkout callback signature:
// hex(HMAC-SHA256(orderID + "|" + paymentID, keySecret)). The comparison
// is constant time.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
