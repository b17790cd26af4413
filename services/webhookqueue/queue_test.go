package webhookqueue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"trailbound/models"
	"trailbound/services/payments"

	"go.uber.org/zap"
)

type fakeEventRepo struct {
	events  map[string]models.WebhookEvent
	nextID  int
	saveErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]models.WebhookEvent)}
}

func (f *fakeEventRepo) Enqueue(ctx context.Context, event models.WebhookEvent) (string, error) {
	if event.ProviderEventID != "" {
		for _, e := range f.events {
			if e.ProviderEventID == event.ProviderEventID {
				return e.ID, nil
			}
		}
	}
	f.nextID++
	event.ID = fmt.Sprintf("evt_%d", f.nextID)
	event.ProcessingStatus = models.WebhookPending
	if event.MaxRetries == 0 {
		event.MaxRetries = models.DefaultWebhookMaxRetries
	}
	event.NextRetryAt = time.Now()
	f.events[event.ID] = event
	return event.ID, nil
}

func (f *fakeEventRepo) GetByProviderEventID(ctx context.Context, providerEventID string) (*models.WebhookEvent, error) {
	for _, e := range f.events {
		if e.ProviderEventID == providerEventID {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) Due(ctx context.Context, now time.Time) ([]models.WebhookEvent, error) {
	var due []models.WebhookEvent
	for _, e := range f.events {
		if e.ProcessingStatus == models.WebhookPending && !e.NextRetryAt.After(now) {
			due = append(due, e)
		}
	}
	return due, nil
}

func (f *fakeEventRepo) Save(ctx context.Context, event *models.WebhookEvent) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.events[event.ID] = *event
	return nil
}

type fakeBookingRepo struct {
	bookings map[string]models.Booking
}

func (f *fakeBookingRepo) Create(ctx context.Context, b models.Booking) (string, error) {
	f.bookings[b.ID] = b
	return b.ID, nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := b
	return &cp, nil
}

func (f *fakeBookingRepo) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	for _, b := range f.bookings {
		if b.Reference == reference {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) Save(ctx context.Context, b *models.Booking) error {
	f.bookings[b.ID] = *b
	return nil
}

func (f *fakeBookingRepo) DueFinalPayments(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ListByHiker(ctx context.Context, hikerID string) ([]models.Booking, error) {
	return nil, nil
}

type fakeGuideRepo struct {
	guides map[string]models.Guide
}

func (f *fakeGuideRepo) Create(ctx context.Context, g models.Guide) (string, error) { return g.ID, nil }

func (f *fakeGuideRepo) GetByID(ctx context.Context, id string) (*models.Guide, error) {
	g, ok := f.guides[id]
	if !ok {
		return nil, nil
	}
	cp := g
	return &cp, nil
}

func (f *fakeGuideRepo) GetByEmail(ctx context.Context, email string) (*models.Guide, error) {
	return nil, nil
}

func (f *fakeGuideRepo) Save(ctx context.Context, g *models.Guide) error {
	f.guides[g.ID] = *g
	return nil
}

func (f *fakeGuideRepo) SetAccountCapabilities(ctx context.Context, accountID string, charges, payouts bool) error {
	for id, g := range f.guides {
		if g.StripeAccountID == accountID {
			g.ChargesEnabled = charges
			g.PayoutsEnabled = payouts
			f.guides[id] = g
			return nil
		}
	}
	return errors.New("no guide with that connected account")
}

type fakeGateway struct {
	saved    *payments.SavedPaymentMethod
	savedErr error
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (f *fakeGateway) ChargeOffSession(ctx context.Context, p payments.OffSessionChargeParams) (*payments.ChargeOutcome, error) {
	return nil, errors.New("not used")
}

func (f *fakeGateway) CreateTransfer(ctx context.Context, p payments.TransferParams) (*payments.TransferResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeGateway) AccountStatus(ctx context.Context, accountID string) (*payments.AccountStatus, error) {
	return &payments.AccountStatus{}, nil
}

func (f *fakeGateway) CapturedAmount(ctx context.Context, paymentIntentID string) (int64, error) {
	return 0, nil
}

func (f *fakeGateway) SavedPaymentMethod(ctx context.Context, paymentIntentID string) (*payments.SavedPaymentMethod, error) {
	if f.savedErr != nil {
		return nil, f.savedErr
	}
	if f.saved == nil {
		return &payments.SavedPaymentMethod{}, nil
	}
	return f.saved, nil
}

type fakeDispatcher struct {
	opsMessages []string
	hikerMails  []string
}

func (f *fakeDispatcher) HikerEmail(ctx context.Context, hikerID, template string, data map[string]string) {
	f.hikerMails = append(f.hikerMails, template)
}

func (f *fakeDispatcher) GuideEmail(ctx context.Context, guideID, template string, data map[string]string) {
}

func (f *fakeDispatcher) OpsMessage(ctx context.Context, text string) {
	f.opsMessages = append(f.opsMessages, text)
}

type queueEnv struct {
	svc      *QueueService
	events   *fakeEventRepo
	bookings *fakeBookingRepo
	guides   *fakeGuideRepo
	gateway  *fakeGateway
	notifier *fakeDispatcher
}

func newQueueEnv() *queueEnv {
	env := &queueEnv{
		events:   newFakeEventRepo(),
		bookings: &fakeBookingRepo{bookings: make(map[string]models.Booking)},
		guides:   &fakeGuideRepo{guides: make(map[string]models.Guide)},
		gateway:  &fakeGateway{},
		notifier: &fakeDispatcher{},
	}
	env.svc = &QueueService{
		Events:   env.events,
		Bookings: env.bookings,
		Guides:   env.guides,
		Gateway:  env.gateway,
		Notifier: env.notifier,
		Logger:   zap.NewNop(),
	}
	return env
}

func TestEnqueueDeduplicatesProviderEvents(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()

	first, err := env.svc.Enqueue(ctx, EventCheckoutCompleted, "evt_stripe_1", "{}")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	again, err := env.svc.Enqueue(ctx, EventCheckoutCompleted, "evt_stripe_1", "{}")
	if err != nil {
		t.Fatalf("Enqueue redelivery: %v", err)
	}
	if first != again {
		t.Errorf("redelivery created a new event: %s vs %s", first, again)
	}
	if len(env.events.events) != 1 {
		t.Errorf("stored events = %d, want 1", len(env.events.events))
	}
}

func TestProcessDueCheckoutCompleted(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()
	env.bookings.bookings["b1"] = models.Booking{
		ID:              "b1",
		Reference:       "TB-AAAAAA",
		HikerID:         "h1",
		TourName:        "Alpine Ridge Traverse",
		Currency:        "eur",
		TotalPriceCents: 20000,
		PaymentType:     models.PaymentTypeFull,
		PaymentStatus:   models.PaymentProcessing,
		Status:          models.BookingPending,
	}

	payload := `{"data":{"object":{"id":"cs_1","client_reference_id":"b1","payment_intent":"pi_1","customer":"cus_1"}}}`
	if _, err := env.svc.Enqueue(ctx, EventCheckoutCompleted, "evt_1", payload); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	result, err := env.svc.ProcessDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if result.Processed != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 1 processed", result)
	}

	b := env.bookings.bookings["b1"]
	if b.PaymentStatus != models.PaymentSucceeded || b.Status != models.BookingConfirmed {
		t.Errorf("booking state = %s/%s, want succeeded/confirmed", b.PaymentStatus, b.Status)
	}
	if b.UpfrontPaymentIntentID != "pi_1" || b.StripeCustomerID != "cus_1" {
		t.Errorf("charge refs = %q/%q", b.UpfrontPaymentIntentID, b.StripeCustomerID)
	}
	if len(env.notifier.hikerMails) != 1 || env.notifier.hikerMails[0] != models.TemplateBookingConfirmed {
		t.Errorf("hiker mails = %v, want booking confirmation", env.notifier.hikerMails)
	}
}

func TestProcessDueDepositCapturesSavedMethod(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()
	env.bookings.bookings["b1"] = models.Booking{
		ID:          "b1",
		HikerID:     "h1",
		PaymentType: models.PaymentTypeDeposit,
	}
	env.gateway.saved = &payments.SavedPaymentMethod{CustomerID: "cus_real", PaymentMethodID: "pm_1"}

	payload := `{"data":{"object":{"id":"cs_1","client_reference_id":"b1","payment_intent":"pi_1","customer":"cus_1"}}}`
	if _, err := env.svc.Enqueue(ctx, EventCheckoutCompleted, "evt_1", payload); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := env.svc.ProcessDue(ctx, time.Now()); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	b := env.bookings.bookings["b1"]
	if b.SavedPaymentMethodID != "pm_1" {
		t.Errorf("saved payment method = %q, want pm_1", b.SavedPaymentMethodID)
	}
	if b.StripeCustomerID != "cus_real" {
		t.Errorf("customer = %q, want the one attached to the payment method", b.StripeCustomerID)
	}
}

func TestProcessDuePaymentIntentFailed(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()
	env.bookings.bookings["b1"] = models.Booking{
		ID:                 "b1",
		FinalPaymentStatus: models.FinalPaymentProcessing,
	}
	env.bookings.bookings["b2"] = models.Booking{
		ID:                 "b2",
		FinalPaymentStatus: models.FinalPaymentPaid,
	}

	for i, id := range []string{"b1", "b2"} {
		payload := fmt.Sprintf(`{"data":{"object":{"id":"pi_%d","metadata":{"booking_id":"%s"}}}}`, i, id)
		if _, err := env.svc.Enqueue(ctx, EventPaymentIntentFailed, fmt.Sprintf("evt_%d", i), payload); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if _, err := env.svc.ProcessDue(ctx, time.Now()); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	if got := env.bookings.bookings["b1"].FinalPaymentStatus; got != models.FinalPaymentFailed {
		t.Errorf("in-flight booking = %s, want failed", got)
	}
	// Already-paid bookings are untouched by late decline events.
	if got := env.bookings.bookings["b2"].FinalPaymentStatus; got != models.FinalPaymentPaid {
		t.Errorf("paid booking = %s, want paid", got)
	}
}

func TestProcessDueAccountUpdated(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()
	env.guides.guides["g1"] = models.Guide{ID: "g1", StripeAccountID: "acct_g1"}

	payload := `{"data":{"object":{"id":"acct_g1","charges_enabled":true,"payouts_enabled":true}}}`
	if _, err := env.svc.Enqueue(ctx, EventAccountUpdated, "evt_1", payload); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := env.svc.ProcessDue(ctx, time.Now()); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	g := env.guides.guides["g1"]
	if !g.ChargesEnabled || !g.PayoutsEnabled {
		t.Errorf("capabilities = %v/%v, want both enabled", g.ChargesEnabled, g.PayoutsEnabled)
	}
}

func TestProcessDueUnknownTypeCompletes(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()

	id, err := env.svc.Enqueue(ctx, "customer.created", "evt_1", "{}")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	result, err := env.svc.ProcessDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("result = %+v, want 1 processed", result)
	}
	if env.events.events[id].ProcessingStatus != models.WebhookCompleted {
		t.Errorf("status = %s, want completed", env.events.events[id].ProcessingStatus)
	}
}

func TestRescheduleBacksOffExponentially(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()

	// Booking missing, so the checkout handler fails every time.
	payload := `{"data":{"object":{"id":"cs_1","client_reference_id":"missing"}}}`
	id, err := env.svc.Enqueue(ctx, EventCheckoutCompleted, "evt_1", payload)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	now := time.Now()

	wantBackoff := []time.Duration{2 * time.Minute, 4 * time.Minute}
	for attempt, backoff := range wantBackoff {
		result, err := env.svc.ProcessDue(ctx, now)
		if err != nil {
			t.Fatalf("ProcessDue attempt %d: %v", attempt+1, err)
		}
		if result.Failed != 1 {
			t.Fatalf("attempt %d result = %+v, want 1 failed", attempt+1, result)
		}

		e := env.events.events[id]
		if e.ProcessingStatus != models.WebhookPending {
			t.Fatalf("attempt %d status = %s, want pending", attempt+1, e.ProcessingStatus)
		}
		if e.RetryCount != attempt+1 {
			t.Errorf("attempt %d retry count = %d, want %d", attempt+1, e.RetryCount, attempt+1)
		}
		if got := e.NextRetryAt.Sub(now); got != backoff {
			t.Errorf("attempt %d backoff = %v, want %v", attempt+1, got, backoff)
		}
		if e.LastError == "" {
			t.Error("failure cause should be recorded")
		}

		// Jump past the backoff for the next attempt.
		now = e.NextRetryAt
	}
}

func TestRescheduleFailsPermanentlyAfterMaxRetries(t *testing.T) {
	env := newQueueEnv()
	ctx := context.Background()

	payload := `{"data":{"object":{"id":"cs_1","client_reference_id":"missing"}}}`
	id, err := env.svc.Enqueue(ctx, EventCheckoutCompleted, "evt_1", payload)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	now := time.Now()

	for attempt := 0; attempt < models.DefaultWebhookMaxRetries; attempt++ {
		if _, err := env.svc.ProcessDue(ctx, now); err != nil {
			t.Fatalf("ProcessDue attempt %d: %v", attempt+1, err)
		}
		now = env.events.events[id].NextRetryAt.Add(time.Second)
	}

	e := env.events.events[id]
	if e.ProcessingStatus != models.WebhookFailed {
		t.Fatalf("status after %d attempts = %s, want failed", models.DefaultWebhookMaxRetries, e.ProcessingStatus)
	}
	if e.RetryCount != models.DefaultWebhookMaxRetries {
		t.Errorf("retry count = %d, want %d", e.RetryCount, models.DefaultWebhookMaxRetries)
	}

	var flagged bool
	for _, msg := range env.notifier.opsMessages {
		if strings.Contains(msg, "permanently failed") {
			flagged = true
		}
	}
	if !flagged {
		t.Error("permanent failure should be reported to ops")
	}

	// Failed events never come back.
	result, err := env.svc.ProcessDue(ctx, now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if result.Processed != 0 || result.Failed != 0 {
		t.Errorf("failed event was re-selected: %+v", result)
	}
}
