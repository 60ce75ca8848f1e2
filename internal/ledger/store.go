package ledger

import "context"

// Store describes persistence operations for partners and referrals.
//
// Settle and MarkPaid are the only mutations of a referral's status and the
// only writers of partner earnings; both must be atomic with respect to the
// referral's own status transition so a second invocation can never
// double-add to TotalEarningsCents.
type Store interface {
	CreatePartner(ctx context.Context, p *Partner) error
	ListPartners(ctx context.Context) ([]*Partner, error)
	FindPartner(ctx context.Context, id string) (*Partner, error)
	FindPartnerByUser(ctx context.Context, userID string) (*Partner, error)
	FindPartnerByCode(ctx context.Context, code string) (*Partner, error)
	DeletePartner(ctx context.Context, id string) error

	CreateReferral(ctx context.Context, r *Referral) error
	FindReferral(ctx context.Context, id string) (*Referral, error)
	FindReferralByProject(ctx context.Context, projectID string) (*Referral, error)
	ListReferrals(ctx context.Context, partnerID string) ([]*Referral, error)

	// Settle moves a pending referral to converted, records amountCents on it
	// and adds the same amount to the partner's earnings, all in one unit.
	// A referral that already left pending yields ErrAlreadySettled.
	Settle(ctx context.Context, referralID string, amountCents int64) (*Referral, error)

	// MarkPaid moves a converted referral to paid.
	MarkPaid(ctx context.Context, referralID string) (*Referral, error)
}
