package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Settlement runs inside a single
// transaction so the status transition and the earnings increment commit or
// roll back together.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const (
	partnerColumns  = `id, user_id, referral_code, commission_rate_bps, total_earnings_cents, created_at`
	referralColumns = `id, partner_id, client_id, coalesce(project_id, ''), status, commission_amount_cents, created_at`
)

func (s *PGStore) CreatePartner(ctx context.Context, p *Partner) error {
	_, err := s.db.ExecContext(ctx,
		`insert into partners(id, user_id, referral_code, commission_rate_bps, total_earnings_cents) values($1,$2,$3,$4,$5)`,
		p.ID, p.UserID, p.ReferralCode, p.CommissionRateBps, p.TotalEarningsCents,
	)
	if isUniqueViolation(err) {
		return ErrDuplicatePartner
	}
	return err
}

func (s *PGStore) ListPartners(ctx context.Context) ([]*Partner, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+partnerColumns+` from partners order by created_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.UserID, &p.ReferralCode, &p.CommissionRateBps, &p.TotalEarningsCents, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PGStore) FindPartner(ctx context.Context, id string) (*Partner, error) {
	return scanPartner(s.db.QueryRowContext(ctx,
		`select `+partnerColumns+` from partners where id=$1`, id))
}

func (s *PGStore) FindPartnerByUser(ctx context.Context, userID string) (*Partner, error) {
	return scanPartner(s.db.QueryRowContext(ctx,
		`select `+partnerColumns+` from partners where user_id=$1`, userID))
}

func (s *PGStore) FindPartnerByCode(ctx context.Context, code string) (*Partner, error) {
	return scanPartner(s.db.QueryRowContext(ctx,
		`select `+partnerColumns+` from partners where referral_code=$1`, code))
}

func (s *PGStore) DeletePartner(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from partners where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func (s *PGStore) CreateReferral(ctx context.Context, r *Referral) error {
	var projectID any
	if r.ProjectID != "" {
		projectID = r.ProjectID
	}
	_, err := s.db.ExecContext(ctx,
		`insert into referrals(id, partner_id, client_id, project_id, status, commission_amount_cents) values($1,$2,$3,$4,$5,$6)`,
		r.ID, r.PartnerID, r.ClientID, projectID, r.Status, r.CommissionAmountCents,
	)
	return err
}

func (s *PGStore) FindReferral(ctx context.Context, id string) (*Referral, error) {
	return scanReferral(s.db.QueryRowContext(ctx,
		`select `+referralColumns+` from referrals where id=$1`, id))
}

func (s *PGStore) FindReferralByProject(ctx context.Context, projectID string) (*Referral, error) {
	return scanReferral(s.db.QueryRowContext(ctx,
		`select `+referralColumns+` from referrals where project_id=$1`, projectID))
}

func (s *PGStore) ListReferrals(ctx context.Context, partnerID string) ([]*Referral, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+referralColumns+` from referrals where partner_id=$1 order by created_at desc`, partnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Referral
	for rows.Next() {
		var r Referral
		if err := rows.Scan(&r.ID, &r.PartnerID, &r.ClientID, &r.ProjectID, &r.Status, &r.CommissionAmountCents, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PGStore) Settle(ctx context.Context, referralID string, amountCents int64) (*Referral, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Compare-and-swap: the update only matches while the referral is still
	// pending, so a concurrent second settlement finds zero rows.
	row := tx.QueryRowContext(ctx,
		`update referrals set status=$2, commission_amount_cents=$3 where id=$1 and status=$4 returning `+referralColumns,
		referralID, StatusConverted, amountCents, StatusPending)
	settled, err := scanReferral(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.settleMissReason(ctx, referralID)
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`update partners set total_earnings_cents = total_earnings_cents + $2 where id=$1`,
		settled.PartnerID, amountCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return settled, nil
}

func (s *PGStore) MarkPaid(ctx context.Context, referralID string) (*Referral, error) {
	row := s.db.QueryRowContext(ctx,
		`update referrals set status=$2 where id=$1 and status=$3 returning `+referralColumns,
		referralID, StatusPaid, StatusConverted)
	paid, err := scanReferral(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if _, findErr := s.FindReferral(ctx, referralID); findErr != nil {
				return nil, findErr
			}
			return nil, ErrNotConverted
		}
		return nil, err
	}
	return paid, nil
}

// settleMissReason distinguishes a missing referral from one that already
// settled, after the CAS update matched nothing.
func (s *PGStore) settleMissReason(ctx context.Context, referralID string) error {
	if _, err := s.FindReferral(ctx, referralID); err != nil {
		return err
	}
	return ErrAlreadySettled
}

func scanPartner(row *sql.Row) (*Partner, error) {
	var p Partner
	if err := row.Scan(&p.ID, &p.UserID, &p.ReferralCode, &p.CommissionRateBps, &p.TotalEarningsCents, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanReferral(row *sql.Row) (*Referral, error) {
	var r Referral
	if err := row.Scan(&r.ID, &r.PartnerID, &r.ClientID, &r.ProjectID, &r.Status, &r.CommissionAmountCents, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
