package ledger

import (
	"errors"
	"time"
)

// Monetary amounts are in minor units (cents) and commission rates in basis
// points. No floats.
const (
	// DefaultCommissionRateBps is 25.00%.
	DefaultCommissionRateBps = 2500
	maxRateBps               = 10000
)

// Referral lifecycle. Transitions are monotonic forward; there is no
// reversal path.
const (
	StatusPending   = "pending"
	StatusConverted = "converted"
	StatusPaid      = "paid"
)

// Partner is the commission ledger entry for a user of role partner.
// TotalEarningsCents only ever grows, and only through Settle.
type Partner struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	ReferralCode       string    `json:"referral_code"`
	CommissionRateBps  int64     `json:"commission_rate_bps"`
	TotalEarningsCents int64     `json:"total_earnings_cents"`
	CreatedAt          time.Time `json:"created_at"`
}

// Referral links a partner to a client they referred, optionally tied to the
// project that came out of it. CommissionAmountCents is only meaningful once
// the status has left pending.
type Referral struct {
	ID                    string    `json:"id"`
	PartnerID             string    `json:"partner_id"`
	ClientID              string    `json:"client_id"`
	ProjectID             string    `json:"project_id,omitempty"`
	Status                string    `json:"status"`
	CommissionAmountCents int64     `json:"commission_amount_cents"`
	CreatedAt             time.Time `json:"created_at"`
}

// Stats is the aggregate partner report. It is recomputed from the referral
// set on every read, never stored.
type Stats struct {
	TotalEarningsCents int64 `json:"total_earnings_cents"`
	ActiveReferrals    int   `json:"active_referrals"`
	ClosedSales        int   `json:"closed_sales"`
	ConversionRate     int   `json:"conversion_rate"`
}

var (
	ErrNotFound         = errors.New("ledger: not found")
	ErrDuplicatePartner = errors.New("ledger: partner already exists for user")
	ErrAlreadySettled   = errors.New("ledger: referral already settled")
	ErrNotConverted     = errors.New("ledger: referral is not converted")
	ErrInvalidRate      = errors.New("ledger: commission rate out of range")
	ErrPartnerActive    = errors.New("ledger: partner has unpaid referrals")
)

// CommissionFor computes price × rate in basis points, rounding half up.
func CommissionFor(priceCents, rateBps int64) int64 {
	if priceCents <= 0 || rateBps <= 0 {
		return 0
	}
	return (priceCents*rateBps + maxRateBps/2) / maxRateBps
}
