/**
 * @description
 * Audit model for payment status transitions. One row is appended per
 * transition attempt, including failed attempts; rows are never updated
 * or deleted.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransitionOutcome tells whether a recorded transition attempt succeeded.
type TransitionOutcome string

const (
	OutcomeSuccess TransitionOutcome = "success"
	OutcomeFailure TransitionOutcome = "failure"
)

// Transition is one immutable audit entry in the transition ledger.
type Transition struct {
	ID          uuid.UUID         `json:"id"`
	PaymentID   uuid.UUID         `json:"payment_id"`
	FromStatus  TransferStatus    `json:"from_status"`
	ToStatus    TransferStatus    `json:"to_status"`
	Outcome     TransitionOutcome `json:"outcome"`
	ErrorDetail *string           `json:"error_detail,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
