package app

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/domain"
)

func testPayment(country string, capturedAt, appointmentStart time.Time, duration time.Duration) domain.PaymentRecord {
	return domain.PaymentRecord{
		ID:                  uuid.New(),
		ExpertID:            uuid.New(),
		StripeAccountID:     "acct_test",
		CountryCode:         country,
		Amount:              8500,
		Currency:            "eur",
		CapturedAt:          capturedAt,
		AppointmentStart:    appointmentStart,
		AppointmentDuration: duration,
		TransferStatus:      domain.StatusPending,
	}
}

func TestEvaluate_AgingSatisfiedButInsideComplaintWindow(t *testing.T) {
	// US (2-day delay), captured 10 days before a 1-hour appointment,
	// evaluated 2 hours after the appointment ended.
	evaluator := NewEvaluator(NewDelayPolicy())
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	rec := testPayment("US", start.AddDate(0, 0, -10), start, time.Hour)
	now := rec.AppointmentEnd().Add(2 * time.Hour)

	result := evaluator.Evaluate(rec, now)
	if !result.PaymentAgingOK {
		t.Error("expected payment-aging gate to hold after 10 days")
	}
	if result.ServiceDeliveryOK {
		t.Error("expected service-delivery gate to fail 2 hours after appointment end")
	}
	if result.Eligible() {
		t.Error("expected record not eligible inside the complaint window")
	}
}

func TestEvaluate_SameDayCaptureStillAging(t *testing.T) {
	// PT (7-day delay), captured the same day as the appointment, evaluated
	// 25 hours after the appointment ended: delivery holds, aging does not.
	evaluator := NewEvaluator(NewDelayPolicy())
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	rec := testPayment("PT", start.Add(-2*time.Hour), start, time.Hour)
	now := rec.AppointmentEnd().Add(25 * time.Hour)

	result := evaluator.Evaluate(rec, now)
	if result.PaymentAgingOK {
		t.Error("expected payment-aging gate to fail 28 hours after capture with a 7-day delay")
	}
	if !result.ServiceDeliveryOK {
		t.Error("expected service-delivery gate to hold 25 hours after appointment end")
	}
	if result.Eligible() {
		t.Error("expected record not eligible before the holding period elapses")
	}
}

func TestEvaluate_AdvanceBookingReleasesAfterComplaintWindow(t *testing.T) {
	// PT, captured 10 days before the appointment: the aging clock has long
	// run out, so the record is eligible 25 hours after the appointment ends.
	evaluator := NewEvaluator(NewDelayPolicy())
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	rec := testPayment("PT", start.AddDate(0, 0, -10), start, time.Hour)
	now := rec.AppointmentEnd().Add(25 * time.Hour)

	result := evaluator.Evaluate(rec, now)
	if !result.Eligible() {
		t.Fatalf("expected record eligible, got aging=%t delivery=%t",
			result.PaymentAgingOK, result.ServiceDeliveryOK)
	}
	if got := evaluator.RemainingWaitDays(rec); got != 1 {
		t.Errorf("expected effective remaining wait of 1 day, got %d", got)
	}
}

func TestEvaluate_FutureAppointmentNeverDelivered(t *testing.T) {
	evaluator := NewEvaluator(NewDelayPolicy())
	now := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	rec := testPayment("US", now.AddDate(0, 0, -30), now.Add(48*time.Hour), time.Hour)

	result := evaluator.Evaluate(rec, now)
	if result.ServiceDeliveryOK {
		t.Error("service-delivery gate must be false before the appointment happens")
	}
	if evaluator.ServiceDelivered(rec, now) {
		t.Error("ServiceDelivered must be false before the appointment happens")
	}
}

func TestEvaluate_UnknownCountryUsesConservativeDefault(t *testing.T) {
	evaluator := NewEvaluator(NewDelayPolicy())
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	rec := testPayment("??", start.Add(-time.Hour), start, time.Hour)

	// 3 days after capture: enough for a US record, not for the 7-day default.
	result := evaluator.Evaluate(rec, rec.CapturedAt.AddDate(0, 0, 3))
	if result.PaymentAgingOK {
		t.Error("unknown country must age against the strictest known delay")
	}
}

func TestEvaluate_EarliestEligibleInstant(t *testing.T) {
	evaluator := NewEvaluator(NewDelayPolicy())
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	rec := testPayment("PT", start.AddDate(0, 0, -10), start, time.Hour)

	earliest := evaluator.Evaluate(rec, start).EarliestEligibleAt

	if at := evaluator.Evaluate(rec, earliest); !at.Eligible() {
		t.Error("record must be eligible exactly at its earliest eligible instant")
	}
	if before := evaluator.Evaluate(rec, earliest.Add(-time.Second)); before.Eligible() {
		t.Error("record must not be eligible before its earliest eligible instant")
	}
}

func TestEvaluate_GatesAreMonotonic(t *testing.T) {
	evaluator := NewEvaluator(NewDelayPolicy())
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	rec := testPayment("PT", start.AddDate(0, 0, -10), start, time.Hour)

	eligibleAt := evaluator.Evaluate(rec, start).EarliestEligibleAt
	for _, offset := range []time.Duration{0, time.Minute, time.Hour, 24 * time.Hour, 365 * 24 * time.Hour} {
		result := evaluator.Evaluate(rec, eligibleAt.Add(offset))
		if !result.Eligible() {
			t.Fatalf("gates un-satisfied at eligible instant + %s", offset)
		}
	}
}

func TestRemainingWaitDays_FloorOfOneDay(t *testing.T) {
	evaluator := NewEvaluator(NewDelayPolicy())
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		country        string
		capturedBefore time.Duration
		want           int
	}{
		{name: "capture long before appointment floors at one day", country: "PT", capturedBefore: 30 * 24 * time.Hour, want: 1},
		{name: "same-day capture owes the full delay", country: "PT", capturedBefore: 2 * time.Hour, want: 7},
		{name: "partial aging reduces the wait", country: "PT", capturedBefore: 4*24*time.Hour + time.Hour, want: 3},
		{name: "short-delay country floors at one day", country: "US", capturedBefore: 5 * 24 * time.Hour, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testPayment(tt.country, start.Add(-tt.capturedBefore), start, time.Hour)
			if got := evaluator.RemainingWaitDays(rec); got != tt.want {
				t.Fatalf("RemainingWaitDays = %d, want %d", got, tt.want)
			}
			if got := evaluator.RemainingWaitDays(rec); got < 1 {
				t.Fatalf("effective wait %d fell below the one-day floor", got)
			}
		})
	}
}
