/**
 * @description
 * Eligibility evaluation for releasing captured funds. Two independent gates
 * must both hold before a transfer may be created:
 *
 *  1. Payment aging: the processor's country-specific holding period has
 *     elapsed since the payment was captured.
 *  2. Service delivery: the appointment ended at least 24 hours ago, giving
 *     the customer a fixed complaint window before money moves.
 *
 * The evaluator is pure: the current time is passed in explicitly.
 */
package app

import (
	"time"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/domain"
)

// complaintWindow is the hold after the scheduled appointment end. The
// platform cannot cancel or reschedule appointments unilaterally, so it
// assumes the service was delivered as scheduled and gives the customer this
// window to complain before funds are released.
const complaintWindow = 24 * time.Hour

const day = 24 * time.Hour

// EligibilityResult reports both gates plus the earliest instant at which a
// record becomes (or became) eligible.
type EligibilityResult struct {
	PaymentAgingOK     bool
	ServiceDeliveryOK  bool
	EarliestEligibleAt time.Time
}

// Eligible is true when both gates hold. There is no override.
func (r EligibilityResult) Eligible() bool {
	return r.PaymentAgingOK && r.ServiceDeliveryOK
}

// Evaluator computes fund-release eligibility for payment records.
type Evaluator struct {
	policy *DelayPolicy
}

// NewEvaluator creates an evaluator backed by the given delay policy.
func NewEvaluator(policy *DelayPolicy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Evaluate computes both gates for a record at the given instant. Because the
// aging clock starts at capture time, advance-booked appointments can release
// funds as soon as the complaint window closes instead of waiting the full
// statutory delay from the appointment date.
func (e *Evaluator) Evaluate(rec domain.PaymentRecord, now time.Time) EligibilityResult {
	delay := time.Duration(e.policy.MinimumDelayDays(rec.CountryCode)) * day
	agingDeadline := rec.CapturedAt.Add(delay)
	deliveryDeadline := rec.AppointmentEnd().Add(complaintWindow)

	earliest := agingDeadline
	if deliveryDeadline.After(earliest) {
		earliest = deliveryDeadline
	}

	return EligibilityResult{
		PaymentAgingOK:     !now.Before(agingDeadline),
		ServiceDeliveryOK:  !now.Before(deliveryDeadline),
		EarliestEligibleAt: earliest,
	}
}

// ServiceDelivered reports whether the complaint window has elapsed at the
// given instant. An appointment that has not yet ended is never delivered.
func (e *Evaluator) ServiceDelivered(rec domain.PaymentRecord, now time.Time) bool {
	return !now.Before(rec.AppointmentEnd().Add(complaintWindow))
}

// RemainingWaitDays reports the effective wait, in whole days, still owed
// after the appointment ends. Aging accrued between capture and appointment
// end counts toward the statutory delay; the complaint window keeps the
// result at a floor of one day no matter how much aging has accrued.
func (e *Evaluator) RemainingWaitDays(rec domain.PaymentRecord) int {
	delayDays := e.policy.MinimumDelayDays(rec.CountryCode)
	aged := int(rec.AppointmentEnd().Sub(rec.CapturedAt) / day)
	if aged < 0 {
		aged = 0
	}
	remaining := delayDays - aged
	if remaining < 1 {
		remaining = 1
	}
	return remaining
}
