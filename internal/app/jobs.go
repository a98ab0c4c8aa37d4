/**
 * @description
 * Batch job implementations for the fund-release engine. Two independent
 * entry points advance payment records through their lifecycle:
 *
 *  - RunTransferBatch: pending -> completed (platform account to the
 *    expert's connected sub-account).
 *  - RunPayoutBatch: completed -> paid_out (sub-account to the expert's
 *    external bank account).
 *
 * The two batches never call each other; they communicate only through
 * persisted status, which makes the pipeline resumable after crashes and
 * safe to run from multiple processes.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/domain"
	"github.com/rodrigobarona/eleva-care-app-sub018/internal/metrics"
	"github.com/rodrigobarona/eleva-care-app-sub018/pkg/stripeclient"
)

// Repository defines the database operations needed by the batch jobs.
type Repository interface {
	ListPaymentsByStatus(ctx context.Context, status domain.TransferStatus) ([]domain.PaymentRecord, error)
	MarkTransferCompleted(ctx context.Context, id uuid.UUID, stripeTransferID string) (bool, error)
	MarkPaidOut(ctx context.Context, id uuid.UUID, stripePayoutID string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, from domain.TransferStatus, reason string) (bool, error)
}

// ProcessorClient defines the payment-processor operations the jobs perform.
type ProcessorClient interface {
	CreateTransfer(ctx context.Context, destinationAccountID string, amount int64, currency, idempotencyKey string) (*stripeclient.Transfer, error)
	CreatePayout(ctx context.Context, connectedAccountID string, amount int64, currency, idempotencyKey string) (*stripeclient.Payout, error)
	GetBalance(ctx context.Context, connectedAccountID string) (*stripeclient.Balance, error)
}

// TransitionRecorder is the append-only audit sink for state changes. It must
// never block or fail the calling batch.
type TransitionRecorder interface {
	Record(ctx context.Context, payment domain.PaymentRecord, from, to domain.TransferStatus, outcome domain.TransitionOutcome, errDetail string)
}

// Jobs contains the logic for both fund-release batches.
type Jobs struct {
	repo      Repository
	processor ProcessorClient
	evaluator *Evaluator
	ledger    TransitionRecorder
	logger    *slog.Logger
}

// NewJobs creates a new batch runner.
func NewJobs(repo Repository, processor ProcessorClient, evaluator *Evaluator, ledger TransitionRecorder, logger *slog.Logger) *Jobs {
	return &Jobs{
		repo:      repo,
		processor: processor,
		evaluator: evaluator,
		ledger:    ledger,
		logger:    logger,
	}
}

// transferIdempotencyKey derives the processor idempotency key for a
// payment's transfer. The key must be stable across runs so crash or overlap
// re-invocations cannot double-move funds.
func transferIdempotencyKey(id uuid.UUID) string {
	return "transfer-" + id.String()
}

// payoutIdempotencyKey derives the processor idempotency key for a payment's
// payout.
func payoutIdempotencyKey(id uuid.UUID) string {
	return "payout-" + id.String()
}

// processorFailureKind classifies a processor error per the retry taxonomy.
type processorFailureKind int

const (
	failureTransient processorFailureKind = iota
	failureAccountNotReady
	failurePermanent
)

func classifyProcessorError(err error) processorFailureKind {
	var apiErr *stripeclient.APIError
	if !errors.As(err, &apiErr) {
		// Network-level failures (timeouts, connection resets) are ambiguous:
		// the call may or may not have landed. The idempotency key makes a
		// retry on the next run safe either way.
		return failureTransient
	}
	if apiErr.AccountNotReady() {
		return failureAccountNotReady
	}
	if apiErr.Transient() {
		return failureTransient
	}
	return failurePermanent
}

// RunTransferBatch advances every eligible pending payment to completed by
// creating a transfer at the processor. One record's failure never aborts the
// batch; only a store-level failure does.
func (j *Jobs) RunTransferBatch(ctx context.Context, now time.Time) (domain.BatchSummary, error) {
	metrics.BatchRuns.WithLabelValues("transfer").Inc()

	var summary domain.BatchSummary
	pending, err := j.repo.ListPaymentsByStatus(ctx, domain.StatusPending)
	if err != nil {
		return summary, fmt.Errorf("failed to list pending payments: %w", err)
	}

	for _, rec := range pending {
		result := j.evaluator.Evaluate(rec, now)
		if !result.Eligible() {
			j.logger.Debug("payment not yet eligible for transfer",
				"payment_id", rec.ID,
				"aging_ok", result.PaymentAgingOK,
				"delivery_ok", result.ServiceDeliveryOK,
				"earliest_eligible_at", result.EarliestEligibleAt,
			)
			continue
		}

		summary.Attempted++
		transfer, transferErr := j.processor.CreateTransfer(ctx, rec.StripeAccountID, rec.Amount, rec.Currency, transferIdempotencyKey(rec.ID))
		if transferErr != nil {
			switch classifyProcessorError(transferErr) {
			case failureAccountNotReady:
				summary.Skipped++
				metrics.RecordsProcessed.WithLabelValues("transfer", "skipped").Inc()
				j.logger.Info("destination account cannot receive funds yet; will retry next run",
					"payment_id", rec.ID, "stripe_account_id", rec.StripeAccountID, "error", transferErr)
			case failureTransient:
				summary.Skipped++
				metrics.RecordsProcessed.WithLabelValues("transfer", "skipped").Inc()
				j.logger.Warn("transient processor error; will retry next run",
					"payment_id", rec.ID, "error", transferErr)
			case failurePermanent:
				if failErr := j.failRecord(ctx, rec, domain.StatusPending, transferErr); failErr != nil {
					return summary, failErr
				}
				summary.Failed++
				summary.FailedIDs = append(summary.FailedIDs, rec.ID)
				metrics.RecordsProcessed.WithLabelValues("transfer", "failed").Inc()
			}
			continue
		}

		matched, storeErr := j.repo.MarkTransferCompleted(ctx, rec.ID, transfer.ID)
		if storeErr != nil {
			// The transfer succeeded at the processor but the status write did
			// not land. Abort before issuing further processor calls; the next
			// run converges through the idempotency key without double-transferring.
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, rec.ID)
			metrics.RecordsProcessed.WithLabelValues("transfer", "failed").Inc()
			j.logger.Error("transfer created but status write failed",
				"payment_id", rec.ID, "stripe_transfer_id", transfer.ID, "error", storeErr)
			return summary, fmt.Errorf("failed to persist completed status for payment %s: %w", rec.ID, storeErr)
		}
		if !matched {
			summary.Skipped++
			metrics.RecordsProcessed.WithLabelValues("transfer", "skipped").Inc()
			j.logger.Info("payment already advanced by a concurrent run", "payment_id", rec.ID)
			continue
		}

		summary.Succeeded++
		metrics.RecordsProcessed.WithLabelValues("transfer", "succeeded").Inc()
		j.ledger.Record(ctx, rec, domain.StatusPending, domain.StatusCompleted, domain.OutcomeSuccess, "")
		j.logger.Info("transfer created",
			"payment_id", rec.ID,
			"stripe_transfer_id", transfer.ID,
			"amount", rec.Amount,
			"currency", rec.Currency,
		)
	}

	return summary, nil
}

// RunPayoutBatch advances completed payments to paid_out by creating a payout
// from the expert's sub-account. The service-delivery gate is re-verified
// before money leaves the sub-account, guarding against clock skew or races
// with the transfer batch.
func (j *Jobs) RunPayoutBatch(ctx context.Context, now time.Time) (domain.BatchSummary, error) {
	metrics.BatchRuns.WithLabelValues("payout").Inc()

	var summary domain.BatchSummary
	completed, err := j.repo.ListPaymentsByStatus(ctx, domain.StatusCompleted)
	if err != nil {
		return summary, fmt.Errorf("failed to list completed payments: %w", err)
	}

	for _, rec := range completed {
		if !j.evaluator.ServiceDelivered(rec, now) {
			j.logger.Warn("completed payment has not cleared the complaint window; skipping payout",
				"payment_id", rec.ID, "appointment_end", rec.AppointmentEnd())
			continue
		}

		summary.Attempted++

		balance, balanceErr := j.processor.GetBalance(ctx, rec.StripeAccountID)
		if balanceErr != nil {
			summary.Skipped++
			metrics.RecordsProcessed.WithLabelValues("payout", "skipped").Inc()
			j.logger.Warn("failed to read connected account balance; will retry next run",
				"payment_id", rec.ID, "stripe_account_id", rec.StripeAccountID, "error", balanceErr)
			continue
		}
		if available := balance.AvailableFor(rec.Currency); available < rec.Amount {
			// Transfer settlement at the processor can lag; retry next run.
			summary.Skipped++
			metrics.RecordsProcessed.WithLabelValues("payout", "skipped").Inc()
			j.logger.Info("connected account balance not yet sufficient for payout",
				"payment_id", rec.ID, "available", available, "required", rec.Amount)
			continue
		}

		payout, payoutErr := j.processor.CreatePayout(ctx, rec.StripeAccountID, rec.Amount, rec.Currency, payoutIdempotencyKey(rec.ID))
		if payoutErr != nil {
			switch classifyProcessorError(payoutErr) {
			case failureAccountNotReady:
				summary.Skipped++
				metrics.RecordsProcessed.WithLabelValues("payout", "skipped").Inc()
				j.logger.Info("connected account cannot pay out yet; will retry next run",
					"payment_id", rec.ID, "stripe_account_id", rec.StripeAccountID, "error", payoutErr)
			case failureTransient:
				summary.Skipped++
				metrics.RecordsProcessed.WithLabelValues("payout", "skipped").Inc()
				j.logger.Warn("transient processor error; will retry next run",
					"payment_id", rec.ID, "error", payoutErr)
			case failurePermanent:
				if failErr := j.failRecord(ctx, rec, domain.StatusCompleted, payoutErr); failErr != nil {
					return summary, failErr
				}
				summary.Failed++
				summary.FailedIDs = append(summary.FailedIDs, rec.ID)
				metrics.RecordsProcessed.WithLabelValues("payout", "failed").Inc()
			}
			continue
		}

		matched, storeErr := j.repo.MarkPaidOut(ctx, rec.ID, payout.ID)
		if storeErr != nil {
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, rec.ID)
			metrics.RecordsProcessed.WithLabelValues("payout", "failed").Inc()
			j.logger.Error("payout created but status write failed",
				"payment_id", rec.ID, "stripe_payout_id", payout.ID, "error", storeErr)
			return summary, fmt.Errorf("failed to persist paid_out status for payment %s: %w", rec.ID, storeErr)
		}
		if !matched {
			summary.Skipped++
			metrics.RecordsProcessed.WithLabelValues("payout", "skipped").Inc()
			j.logger.Info("payment already advanced by a concurrent run", "payment_id", rec.ID)
			continue
		}

		summary.Succeeded++
		metrics.RecordsProcessed.WithLabelValues("payout", "succeeded").Inc()
		j.ledger.Record(ctx, rec, domain.StatusCompleted, domain.StatusPaidOut, domain.OutcomeSuccess, "")
		j.logger.Info("payout created",
			"payment_id", rec.ID,
			"stripe_payout_id", payout.ID,
			"amount", rec.Amount,
			"currency", rec.Currency,
		)
	}

	return summary, nil
}

// failRecord moves a payment to failed after a permanent processor error and
// appends a ledger entry. A store failure here aborts the batch: without
// durable status the engine cannot safely keep issuing processor calls.
func (j *Jobs) failRecord(ctx context.Context, rec domain.PaymentRecord, from domain.TransferStatus, cause error) error {
	matched, err := j.repo.MarkFailed(ctx, rec.ID, from, cause.Error())
	if err != nil {
		return fmt.Errorf("failed to persist failed status for payment %s: %w", rec.ID, err)
	}
	if !matched {
		j.logger.Info("payment status changed concurrently; leaving record as-is", "payment_id", rec.ID)
		return nil
	}
	j.ledger.Record(ctx, rec, from, domain.StatusFailed, domain.OutcomeFailure, cause.Error())
	j.logger.Error("payment moved to failed; manual intervention required",
		"payment_id", rec.ID, "prior_status", from, "error", cause)
	return nil
}

// ProcessTransferBatch is the cron entry point for the transfer batch.
func (j *Jobs) ProcessTransferBatch() {
	j.logger.Info("starting transfer batch")
	ctx := context.Background()

	summary, err := j.RunTransferBatch(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("transfer batch aborted", "error", err,
			"attempted", summary.Attempted, "succeeded", summary.Succeeded,
			"failed", summary.Failed, "skipped", summary.Skipped)
		return
	}
	j.logger.Info("transfer batch finished",
		"attempted", summary.Attempted, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "skipped", summary.Skipped)
}

// ProcessPayoutBatch is the cron entry point for the payout batch.
func (j *Jobs) ProcessPayoutBatch() {
	j.logger.Info("starting payout batch")
	ctx := context.Background()

	summary, err := j.RunPayoutBatch(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("payout batch aborted", "error", err,
			"attempted", summary.Attempted, "succeeded", summary.Succeeded,
			"failed", summary.Failed, "skipped", summary.Skipped)
		return
	}
	j.logger.Info("payout batch finished",
		"attempted", summary.Attempted, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "skipped", summary.Skipped)
}
