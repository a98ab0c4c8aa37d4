/**
 * @description
 * This file implements the data access layer for the fund-release engine.
 * It contains all the SQL queries for reading payment records by status,
 * advancing their status with conditional updates, and appending transition
 * ledger rows.
 *
 * @notes
 * - Status updates are conditional on the expected prior status
 *   (`WHERE transfer_status = expected`). When two invocations overlap, only
 *   one wins the update; the other observes a no-op and must not re-act.
 */
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/domain"
)

// Repository handles database operations for the fund-release engine.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListPaymentsByStatus fetches all payment records in the given status,
// oldest capture first.
func (r *Repository) ListPaymentsByStatus(ctx context.Context, status domain.TransferStatus) ([]domain.PaymentRecord, error) {
	query := `
        SELECT id, expert_id, stripe_account_id, country_code, amount, currency,
               captured_at, appointment_start, appointment_duration_minutes,
               transfer_status, stripe_transfer_id, stripe_payout_id
        FROM payment_records
        WHERE transfer_status = $1
        ORDER BY captured_at
    `
	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		var rec domain.PaymentRecord
		var durationMinutes int
		err := rows.Scan(
			&rec.ID, &rec.ExpertID, &rec.StripeAccountID, &rec.CountryCode,
			&rec.Amount, &rec.Currency, &rec.CapturedAt, &rec.AppointmentStart,
			&durationMinutes, &rec.TransferStatus, &rec.StripeTransferID, &rec.StripePayoutID,
		)
		if err != nil {
			return nil, err
		}
		rec.AppointmentDuration = time.Duration(durationMinutes) * time.Minute
		records = append(records, rec)
	}

	return records, rows.Err()
}

// MarkTransferCompleted advances a payment from pending to completed and
// stores the processor-assigned transfer id. Returns false when the record
// was no longer pending, meaning a concurrent invocation already advanced it.
func (r *Repository) MarkTransferCompleted(ctx context.Context, id uuid.UUID, stripeTransferID string) (bool, error) {
	query := `
        UPDATE payment_records
        SET transfer_status = 'completed',
            stripe_transfer_id = $2,
            updated_at = NOW()
        WHERE id = $1
          AND transfer_status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query, id, stripeTransferID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPaidOut advances a payment from completed to paid_out and stores the
// processor-assigned payout id.
func (r *Repository) MarkPaidOut(ctx context.Context, id uuid.UUID, stripePayoutID string) (bool, error) {
	query := `
        UPDATE payment_records
        SET transfer_status = 'paid_out',
            stripe_payout_id = $2,
            updated_at = NOW()
        WHERE id = $1
          AND transfer_status = 'completed'
    `
	tag, err := r.db.Exec(ctx, query, id, stripePayoutID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed moves a payment to failed with the processor's error detail,
// conditional on the expected prior status. Failed records are not retried
// automatically; an operator must reset them to pending.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, from domain.TransferStatus, reason string) (bool, error) {
	query := `
        UPDATE payment_records
        SET transfer_status = 'failed',
            failure_reason = $3,
            updated_at = NOW()
        WHERE id = $1
          AND transfer_status = $2
    `
	tag, err := r.db.Exec(ctx, query, id, string(from), reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// InsertTransition appends one row to the transition ledger.
func (r *Repository) InsertTransition(ctx context.Context, t domain.Transition) error {
	query := `
        INSERT INTO payment_transitions
            (id, payment_id, from_status, to_status, outcome, error_detail, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.db.Exec(ctx, query,
		t.ID, t.PaymentID, string(t.FromStatus), string(t.ToStatus),
		string(t.Outcome), t.ErrorDetail, t.OccurredAt,
	)
	return err
}

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
