/**
 * @description
 * This file defines the core domain models for the fund-release engine.
 * A PaymentRecord ties one captured customer payment to one scheduled
 * appointment with an expert, and tracks how far the money has travelled
 * towards the expert's bank account.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents),
 *   which avoids floating-point inaccuracies with financial data.
 * - The transfer status only ever moves forward: pending -> completed ->
 *   paid_out, or sideways to failed. Records are never deleted.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus is the lifecycle state of a captured payment on its way
// from the platform's pooled account to the expert's bank account.
type TransferStatus string

const (
	// StatusPending means the payment is captured but funds have not left
	// the platform account yet.
	StatusPending TransferStatus = "pending"
	// StatusCompleted means funds were transferred into the expert's
	// connected sub-account.
	StatusCompleted TransferStatus = "completed"
	// StatusPaidOut means funds left the sub-account for the expert's
	// external bank account.
	StatusPaidOut TransferStatus = "paid_out"
	// StatusFailed means the processor permanently rejected a transfer or
	// payout; the record needs manual operator intervention.
	StatusFailed TransferStatus = "failed"
)

// PaymentRecord represents one customer payment for one scheduled appointment.
// This struct maps directly to the `payment_records` table.
type PaymentRecord struct {
	ID                  uuid.UUID      `json:"id"`
	ExpertID            uuid.UUID      `json:"expert_id"`
	StripeAccountID     string         `json:"stripe_account_id"`
	CountryCode         string         `json:"country_code"`
	Amount              int64          `json:"amount"` // in cents
	Currency            string         `json:"currency"`
	CapturedAt          time.Time      `json:"captured_at"`
	AppointmentStart    time.Time      `json:"appointment_start"`
	AppointmentDuration time.Duration  `json:"appointment_duration"`
	TransferStatus      TransferStatus `json:"transfer_status"`
	StripeTransferID    *string        `json:"stripe_transfer_id,omitempty"`
	StripePayoutID      *string        `json:"stripe_payout_id,omitempty"`
	FailureReason       *string        `json:"failure_reason,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// AppointmentEnd is the scheduled end of the appointment this payment is for.
func (p PaymentRecord) AppointmentEnd() time.Time {
	return p.AppointmentStart.Add(p.AppointmentDuration)
}

// BatchSummary reports the outcome of one batch invocation. Partial
// per-record failures live here; they are not surfaced as top-level errors.
type BatchSummary struct {
	Attempted int         `json:"attempted"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	FailedIDs []uuid.UUID `json:"failed_ids,omitempty"`
}
