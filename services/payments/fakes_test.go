package payments

import (
	"context"
	"time"

	"trailbound/models"

	"go.uber.org/zap"
)

type fakeBookingRepo struct {
	bookings map[string]models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]models.Booking)}
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
	var due []models.Booking
	for _, b := range f.bookings {
		if b.PaymentType != models.PaymentTypeDeposit {
			continue
		}
		if b.FinalPaymentDueDate.After(cutoff) {
			continue
		}
		if b.FinalPaymentStatus != models.FinalPaymentPending && b.FinalPaymentStatus != models.FinalPaymentFailed {
			continue
		}
		due = append(due, b)
	}
	return due, nil
}

func (f *fakeBookingRepo) ListByHiker(ctx context.Context, hikerID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if b.HikerID == hikerID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeGuideRepo struct {
	guides map[string]models.Guide
}

func newFakeGuideRepo() *fakeGuideRepo {
	return &fakeGuideRepo{guides: make(map[string]models.Guide)}
}

func (f *fakeGuideRepo) Create(ctx context.Context, g models.Guide) (string, error) {
	f.guides[g.ID] = g
	return g.ID, nil
}

func (f *fakeGuideRepo) GetByID(ctx context.Context, id string) (*models.Guide, error) {
	g, ok := f.guides[id]
	if !ok {
		return nil, nil
	}
	cp := g
	return &cp, nil
}

func (f *fakeGuideRepo) GetByEmail(ctx context.Context, email string) (*models.Guide, error) {
	for _, g := range f.guides {
		if g.Email == email {
			cp := g
			return &cp, nil
		}
	}
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
	return nil
}

type fakePlatformRepo struct {
	settings *models.PlatformSettings
}

func (f *fakePlatformRepo) Get(ctx context.Context) (*models.PlatformSettings, error) {
	return f.settings, nil
}

func (f *fakePlatformRepo) Save(ctx context.Context, s models.PlatformSettings) error {
	f.settings = &s
	return nil
}

type fakeGateway struct {
	accountStatus AccountStatus
	accountErr    error

	checkoutSession *CheckoutSession
	checkoutErr     error
	checkoutCalls   []CheckoutParams

	chargeOutcome *ChargeOutcome
	chargeErr     error
	chargeCalls   []OffSessionChargeParams

	transferResult *TransferResult
	transferErr    error
	transferCalls  []TransferParams

	captured map[string]int64
	saved    *SavedPaymentMethod
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		accountStatus:   AccountStatus{ChargesEnabled: true, PayoutsEnabled: true},
		checkoutSession: &CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"},
		chargeOutcome:   &ChargeOutcome{PaymentIntentID: "pi_final", Status: "succeeded"},
		transferResult:  &TransferResult{TransferID: "tr_test"},
		captured:        make(map[string]int64),
	}
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	f.checkoutCalls = append(f.checkoutCalls, p)
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.checkoutSession, nil
}

func (f *fakeGateway) ChargeOffSession(ctx context.Context, p OffSessionChargeParams) (*ChargeOutcome, error) {
	f.chargeCalls = append(f.chargeCalls, p)
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.chargeOutcome, nil
}

func (f *fakeGateway) CreateTransfer(ctx context.Context, p TransferParams) (*TransferResult, error) {
	f.transferCalls = append(f.transferCalls, p)
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return f.transferResult, nil
}

func (f *fakeGateway) AccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	st := f.accountStatus
	return &st, nil
}

func (f *fakeGateway) CapturedAmount(ctx context.Context, paymentIntentID string) (int64, error) {
	return f.captured[paymentIntentID], nil
}

func (f *fakeGateway) SavedPaymentMethod(ctx context.Context, paymentIntentID string) (*SavedPaymentMethod, error) {
	if f.saved == nil {
		return &SavedPaymentMethod{}, nil
	}
	return f.saved, nil
}

type recordedNotification struct {
	target   string
	id       string
	template string
	text     string
}

type fakeDispatcher struct {
	sent []recordedNotification
}

func (f *fakeDispatcher) HikerEmail(ctx context.Context, hikerID, template string, data map[string]string) {
	f.sent = append(f.sent, recordedNotification{target: "hiker", id: hikerID, template: template})
}

func (f *fakeDispatcher) GuideEmail(ctx context.Context, guideID, template string, data map[string]string) {
	f.sent = append(f.sent, recordedNotification{target: "guide", id: guideID, template: template})
}

func (f *fakeDispatcher) OpsMessage(ctx context.Context, text string) {
	f.sent = append(f.sent, recordedNotification{target: "ops", text: text})
}

type testEnv struct {
	svc      *DefaultPaymentService
	bookings *fakeBookingRepo
	guides   *fakeGuideRepo
	platform *fakePlatformRepo
	gateway  *fakeGateway
	notifier *fakeDispatcher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		bookings: newFakeBookingRepo(),
		guides:   newFakeGuideRepo(),
		platform: &fakePlatformRepo{},
		gateway:  newFakeGateway(),
		notifier: &fakeDispatcher{},
	}
	env.svc = &DefaultPaymentService{
		Bookings:   env.bookings,
		Guides:     env.guides,
		Platform:   env.platform,
		Gateway:    env.gateway,
		Notifier:   env.notifier,
		Logger:     zap.NewNop(),
		SuccessURL: "https://app.example/success",
		CancelURL:  "https://app.example/cancel",
	}
	return env
}

func floatPtr(v float64) *float64 { return &v }

func testGuide(id string) models.Guide {
	return models.Guide{
		ID:              id,
		Name:            "Alex Trail",
		Email:           id + "@example.com",
		StripeAccountID: "acct_" + id,
		FeeConfig: models.GuideFeeConfig{
			DepositType:      models.DepositTypePercentage,
			DepositPct:       25,
			FinalPaymentDays: 14,
		},
	}
}
