/**
 * @description
 * Transition ledger: append-only audit trail of every payment status change,
 * plus a fire-and-forget alert event published to RabbitMQ for operational
 * dashboards. Recording is best-effort by contract — a ledger failure is
 * logged and never blocks or rolls back the status change that triggered it.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/domain"
)

// transitionExchange is the topic exchange transition events are published to.
const transitionExchange = "fund_release.events"

// publishTimeout bounds the fire-and-forget publish of a transition event.
const publishTimeout = 5 * time.Second

// TransitionStore persists ledger rows.
type TransitionStore interface {
	InsertTransition(ctx context.Context, t domain.Transition) error
}

// Publisher publishes transition events for alerting.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Ledger records state-transition attempts.
type Ledger struct {
	store  TransitionStore
	events Publisher
	logger *slog.Logger
}

// NewLedger creates a new transition ledger. events may be nil, in which case
// no alert events are published.
func NewLedger(store TransitionStore, events Publisher, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		events: events,
		logger: logger,
	}
}

// Record appends one transition row and publishes a matching alert event.
// Both halves are best-effort: failures are logged locally and swallowed.
func (l *Ledger) Record(ctx context.Context, payment domain.PaymentRecord, from, to domain.TransferStatus, outcome domain.TransitionOutcome, errDetail string) {
	t := domain.Transition{
		ID:         uuid.New(),
		PaymentID:  payment.ID,
		FromStatus: from,
		ToStatus:   to,
		Outcome:    outcome,
		OccurredAt: time.Now().UTC(),
	}
	if errDetail != "" {
		t.ErrorDetail = &errDetail
	}

	if err := l.store.InsertTransition(ctx, t); err != nil {
		l.logger.Error("failed to append transition record",
			"payment_id", payment.ID, "from", from, "to", to, "error", err)
	}

	if l.events == nil {
		return
	}

	// Detach from the caller's context: the batch must not wait on the broker.
	pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	go func() {
		defer cancel()
		routingKey := "payment.transition." + string(to)
		if err := l.events.Publish(pubCtx, transitionExchange, routingKey, t); err != nil {
			l.logger.Warn("failed to publish transition event",
				"payment_id", payment.ID, "routing_key", routingKey, "error", err)
		}
	}()
}
