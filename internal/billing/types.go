package billing

import (
	"errors"
	"time"
)

// Payment status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Payment records one checkout attempt for a project.
type Payment struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	AmountCents   int64     `json:"amount_cents"`
	Status        string    `json:"status"`
	Method        string    `json:"method,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	PreferenceID  string    `json:"preference_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	ErrNotFound      = errors.New("billing: not found")
	ErrNotConfigured = errors.New("billing: payment provider not configured")
	ErrFinalStatus   = errors.New("billing: payment already in a final status")
)

// ProviderConfig holds the MercadoPago credentials. An empty AccessToken
// means checkout is disabled.
type ProviderConfig struct {
	AccessToken string `json:"access_token"`
	PublicKey   string `json:"public_key"`
	WebhookURL  string `json:"webhook_url,omitempty"`
}

// Masked returns a copy safe to show in the admin panel; only the key tail
// survives.
func (c ProviderConfig) Masked() ProviderConfig {
	c.AccessToken = maskTail(c.AccessToken)
	return c
}

func maskTail(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
