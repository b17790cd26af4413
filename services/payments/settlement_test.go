package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"trailbound/models"
)

func settleableBooking(id string) models.Booking {
	b := dueDepositBooking(id)
	b.Status = models.BookingCompleted
	b.PaymentStatus = models.PaymentSucceeded
	b.FinalPaymentStatus = models.FinalPaymentPaid
	b.FinalServiceFeeCents = 1350
	b.UpfrontPaymentIntentID = "pi_upfront_" + id
	b.FinalPaymentIntentID = "pi_final_" + id
	return b
}

func TestSettlementTransfersSnapshotSplit(t *testing.T) {
	env := newTestEnv()
	g := testGuide("g1")
	// Current config differs from snapshot; settlement must ignore it.
	g.FeeConfig.UsesCustomFees = true
	g.FeeConfig.CustomGuideFeePct = floatPtr(15)
	env.guides.guides["g1"] = g
	b := settleableBooking("b1")
	env.bookings.bookings[b.ID] = b

	result, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
	if err != nil {
		t.Fatalf("SettleCompletedBooking: %v", err)
	}

	// Post-discount 18000 minus 5% snapshot guide fee.
	if result.AmountCents != 17100 {
		t.Errorf("transfer amount = %d, want 17100", result.AmountCents)
	}
	if result.TransferID != "tr_test" {
		t.Errorf("transfer id = %q, want tr_test", result.TransferID)
	}

	if len(env.gateway.transferCalls) != 1 {
		t.Fatalf("transfers = %d, want 1", len(env.gateway.transferCalls))
	}
	call := env.gateway.transferCalls[0]
	if call.Destination != "acct_g1" {
		t.Errorf("destination = %q, want acct_g1", call.Destination)
	}
	if call.SourceTransaction != "pi_upfront_b1" {
		t.Errorf("source transaction = %q, want the upfront charge", call.SourceTransaction)
	}
	if call.TransferGroup != b.Reference {
		t.Errorf("transfer group = %q, want %q", call.TransferGroup, b.Reference)
	}

	stored, _ := env.bookings.GetByID(context.Background(), "b1")
	if stored.TransferStatus != models.TransferSucceeded {
		t.Errorf("transfer status = %s, want succeeded", stored.TransferStatus)
	}
	if stored.TransferCents != 17100 || stored.TransferID != "tr_test" {
		t.Errorf("stored transfer = %d/%q", stored.TransferCents, stored.TransferID)
	}
	if stored.SettledAt == nil {
		t.Error("settled timestamp not set")
	}

	var payout bool
	for _, n := range env.notifier.sent {
		if n.target == "guide" && n.template == models.TemplatePayoutSent {
			payout = true
		}
	}
	if !payout {
		t.Error("guide should be notified of the payout")
	}
}

func TestSettlementSkipsFullPaymentBooking(t *testing.T) {
	env := newTestEnv()
	env.guides.guides["g1"] = testGuide("g1")

	// Full lifecycle: the destination charge already paid the guide, so the
	// completed tour must not trigger a second payout.
	booking := seedBooking(env, false, time.Now().AddDate(0, 0, 60))
	if _, err := env.svc.CreateUpfrontCharge(context.Background(), booking.ID); err != nil {
		t.Fatalf("CreateUpfrontCharge: %v", err)
	}
	stored, _ := env.bookings.GetByID(context.Background(), booking.ID)
	stored.PaymentStatus = models.PaymentSucceeded
	stored.Status = models.BookingCompleted
	stored.UpfrontPaymentIntentID = "pi_upfront"
	if err := env.bookings.Save(context.Background(), stored); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := env.svc.SettleCompletedBooking(context.Background(), booking.ID)
	if !HasCode(err, CodeLegacyBooking) {
		t.Fatalf("got %v, want legacyBookingNoActionNeeded", err)
	}
	if len(env.gateway.transferCalls) != 0 {
		t.Error("guide was paid by the destination charge; no transfer may be issued")
	}

	after, _ := env.bookings.GetByID(context.Background(), booking.ID)
	if after.TransferStatus != models.TransferNotStarted || after.SettledAt != nil {
		t.Errorf("booking mutated: transfer status %s, settled at %v", after.TransferStatus, after.SettledAt)
	}
}

func TestSettlementIsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.guides.guides["g1"] = testGuide("g1")
	b := settleableBooking("b1")
	env.bookings.bookings[b.ID] = b

	if _, err := env.svc.SettleCompletedBooking(context.Background(), "b1"); err != nil {
		t.Fatalf("first settlement: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
		if !HasCode(err, CodeAlreadySettled) {
			t.Fatalf("retry %d: got %v, want alreadySettled", i, err)
		}
	}
	if len(env.gateway.transferCalls) != 1 {
		t.Errorf("transfers = %d, want exactly 1", len(env.gateway.transferCalls))
	}
}

func TestSettlementGuards(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*models.Booking)
		wantCode string
	}{
		{"legacy booking", func(b *models.Booking) { b.EscrowEnabled = false }, CodeLegacyBooking},
		{"tour not completed", func(b *models.Booking) { b.Status = models.BookingConfirmed }, CodeTourNotCompleted},
		{"already settled", func(b *models.Booking) { b.TransferStatus = models.TransferSucceeded }, CodeAlreadySettled},
		{"payment not confirmed", func(b *models.Booking) { b.PaymentStatus = models.PaymentProcessing }, CodePaymentNotConfirmed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env := newTestEnv()
			env.guides.guides["g1"] = testGuide("g1")
			b := settleableBooking("b1")
			c.mutate(&b)
			env.bookings.bookings[b.ID] = b

			_, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
			if !HasCode(err, c.wantCode) {
				t.Errorf("got %v, want %s", err, c.wantCode)
			}
			if len(env.gateway.transferCalls) != 0 {
				t.Error("guard must reject before any transfer")
			}
		})
	}
}

func TestSettlementUnknownBooking(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.SettleCompletedBooking(context.Background(), "missing")
	if !HasCode(err, CodeNotFound) {
		t.Errorf("got %v, want notFound", err)
	}
}

func TestSettlementLegacyBookingUnchanged(t *testing.T) {
	env := newTestEnv()
	env.guides.guides["g1"] = testGuide("g1")
	b := settleableBooking("b1")
	b.EscrowEnabled = false
	env.bookings.bookings[b.ID] = b

	_, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
	if !HasCode(err, CodeLegacyBooking) {
		t.Fatalf("got %v, want legacyBookingNoActionNeeded", err)
	}
	stored, _ := env.bookings.GetByID(context.Background(), "b1")
	if stored.TransferStatus != b.TransferStatus || stored.SettledAt != nil {
		t.Error("legacy booking must not be mutated")
	}
}

func TestSettlementGuideNotPayable(t *testing.T) {
	env := newTestEnv()
	g := testGuide("g1")
	g.StripeAccountID = ""
	env.guides.guides["g1"] = g
	b := settleableBooking("b1")
	env.bookings.bookings[b.ID] = b

	_, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
	if !HasCode(err, CodeGuideNotPayable) {
		t.Errorf("got %v, want guideNotPayable", err)
	}
}

func TestSettlementGuideAccountNotReady(t *testing.T) {
	env := newTestEnv()
	env.guides.guides["g1"] = testGuide("g1")
	env.gateway.accountStatus = AccountStatus{ChargesEnabled: false}
	b := settleableBooking("b1")
	env.bookings.bookings[b.ID] = b

	_, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
	if !HasCode(err, CodeGuideAccountNotReady) {
		t.Errorf("got %v, want guideAccountNotReady", err)
	}
	if len(env.gateway.transferCalls) != 0 {
		t.Error("no transfer may be attempted for a non-ready account")
	}
}

func TestSettlementTransferFailure(t *testing.T) {
	env := newTestEnv()
	env.guides.guides["g1"] = testGuide("g1")
	b := settleableBooking("b1")
	env.bookings.bookings[b.ID] = b
	env.gateway.transferErr = errors.New("insufficient platform balance")

	_, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
	if err == nil {
		t.Fatal("expected transfer failure to surface")
	}
	stored, _ := env.bookings.GetByID(context.Background(), "b1")
	if stored.TransferStatus != models.TransferFailed {
		t.Errorf("transfer status = %s, want failed", stored.TransferStatus)
	}
	if stored.SettledAt != nil {
		t.Error("failed settlement must not record a settled timestamp")
	}
}

func TestSettlementConsistencyCheckFlagsMismatch(t *testing.T) {
	env := newTestEnv()
	env.guides.guides["g1"] = testGuide("g1")
	b := settleableBooking("b1")
	env.bookings.bookings[b.ID] = b
	// Captured totals disagree with the stored split.
	env.gateway.captured["pi_upfront_b1"] = 6500
	env.gateway.captured["pi_final_b1"] = 10000 // should be 14850

	result, err := env.svc.SettleCompletedBooking(context.Background(), "b1")
	if err != nil {
		t.Fatalf("SettleCompletedBooking: %v", err)
	}
	// Settlement proceeds on the stored amounts.
	if result.AmountCents != 17100 {
		t.Errorf("transfer amount = %d, want 17100", result.AmountCents)
	}

	var flagged bool
	for _, n := range env.notifier.sent {
		if n.target == "ops" && strings.Contains(n.text, "consistency") {
			flagged = true
		}
	}
	if !flagged {
		t.Error("mismatch should be reported to ops")
	}
}

func TestSettlementConsistencyCheckQuietWhenTotalsMatch(t *testing.T) {
	env := newTestEnv()
	env.guides.guides["g1"] = testGuide("g1")
	b := settleableBooking("b1")
	env.bookings.bookings[b.ID] = b
	// 18000 post-discount + 2000 upfront fee + 1350 final fee.
	env.gateway.captured["pi_upfront_b1"] = 6500
	env.gateway.captured["pi_final_b1"] = 14850

	if _, err := env.svc.SettleCompletedBooking(context.Background(), "b1"); err != nil {
		t.Fatalf("SettleCompletedBooking: %v", err)
	}
	for _, n := range env.notifier.sent {
		if n.target == "ops" {
			t.Errorf("unexpected ops message: %s", n.text)
		}
	}
}
