package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func referralRows(id, partnerID, status string, amount int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "partner_id", "client_id", "coalesce", "status", "commission_amount_cents", "created_at"}).
		AddRow(id, partnerID, "client-1", "", status, amount, time.Now().UTC())
}

func TestPGStoreSettleTransitionsAndCredits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("update referrals set status=").
		WithArgs("r1", StatusConverted, int64(100000), StatusPending).
		WillReturnRows(referralRows("r1", "p1", StatusConverted, 100000))
	mock.ExpectExec("update partners set total_earnings_cents").
		WithArgs("p1", int64(100000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	settled, err := store.Settle(context.Background(), "r1", 100000)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if settled.Status != StatusConverted || settled.CommissionAmountCents != 100000 {
		t.Fatalf("unexpected settled referral: %+v", settled)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreSettleSecondAttemptConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("update referrals set status=").
		WithArgs("r1", StatusConverted, int64(100000), StatusPending).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select (.+) from referrals where id=").
		WithArgs("r1").
		WillReturnRows(referralRows("r1", "p1", StatusConverted, 100000))
	mock.ExpectRollback()

	store := NewPGStore(db)
	if _, err := store.Settle(context.Background(), "r1", 100000); err != ErrAlreadySettled {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreSettleMissingReferral(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("update referrals set status=").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select (.+) from referrals where id=").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	store := NewPGStore(db)
	if _, err := store.Settle(context.Background(), "missing", 100000); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
