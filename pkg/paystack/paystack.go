package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnreachable wraps transport failures and timeouts talking to the
// gateway. Callers must treat it as retryable and leave local state alone.
var ErrUnreachable = errors.New("paystack unreachable")

// Client talks to the Paystack REST API.
type Client struct {
	BaseURL       string
	SecretKey     string
	webhookSecret []byte
	client        *http.Client
}

func NewClient(baseURL, secretKey, webhookSecret string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:       baseURL,
		SecretKey:     secretKey,
		webhookSecret: []byte(webhookSecret),
		client:        &http.Client{Timeout: timeout},
	}
}

// VerifyData is the transaction object returned by the verify endpoint.
type VerifyData struct {
	Status  string  `json:"status"` // "success", "failed", "abandoned", ...
	Amount  float64 `json:"amount"` // minor units (kobo)
	Channel string  `json:"channel"`
	PaidAt  string  `json:"paid_at"`
}

type verifyResponse struct {
	Status  bool       `json:"status"`
	Message string     `json:"message"`
	Data    VerifyData `json:"data"`
}

// Verify calls GET /transaction/verify/:reference. Transport errors and
// timeouts come back wrapped in ErrUnreachable.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyData, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack verify %s: %d %s", reference, resp.StatusCode, string(body))
	}
	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("paystack verify %s: %v", reference, err)
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack verify %s: %s", reference, out.Message)
	}
	return &out.Data, nil
}

// WebhookEvent is the payload Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string  `json:"reference"`
		Amount    float64 `json:"amount"`
		Status    string  `json:"status"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
		Metadata json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// SignBody computes the hex HMAC-SHA512 of a raw webhook body.
func (c *Client) SignBody(body []byte) string {
	mac := hmac.New(sha512.New, c.webhookSecret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the x-paystack-signature header against the raw
// request body in constant time.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	return hmac.Equal([]byte(c.SignBody(body)), []byte(signature))
}
