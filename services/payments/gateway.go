package payments

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/account"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/transfer"
)

// CheckoutParams describes one hosted-checkout session. Amounts are minor units.
type CheckoutParams struct {
	AmountCents         int64
	Currency            string
	ProductName         string
	ApplicationFeeCents int64  // platform cut deducted at charge time (full payments only)
	Destination         string // connected account for destination charges (full payments only)
	SavePaymentMethod   bool   // request setup_future_usage for the later final charge
	ClientReference     string
	SuccessURL          string
	CancelURL           string
	Metadata            map[string]string
}

// CheckoutSession is the redirect target for the hiker.
type CheckoutSession struct {
	ID  string
	URL string
}

// OffSessionChargeParams describes a charge against a saved payment method.
type OffSessionChargeParams struct {
	AmountCents     int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Metadata        map[string]string
}

// ChargeOutcome reports a completed off-session charge.
type ChargeOutcome struct {
	PaymentIntentID string
	Status          string
}

// TransferParams describes one destination transfer to a connected account.
type TransferParams struct {
	AmountCents       int64
	Currency          string
	Destination       string
	SourceTransaction string // links the transfer to the original charge
	TransferGroup     string
	Metadata          map[string]string
}

// TransferResult reports the created transfer. Pending is set when the
// provider reports asynchronous settlement.
type TransferResult struct {
	TransferID string
	Pending    bool
}

// AccountStatus is the live capability state of a connected account.
type AccountStatus struct {
	ChargesEnabled bool
	PayoutsEnabled bool
}

// SavedPaymentMethod identifies the reusable payment method captured by an
// upfront deposit charge.
type SavedPaymentMethod struct {
	CustomerID      string
	PaymentMethodID string
}

// PaymentGateway abstracts the payment provider so the orchestration logic can
// be exercised against a fake.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	ChargeOffSession(ctx context.Context, params OffSessionChargeParams) (*ChargeOutcome, error)
	CreateTransfer(ctx context.Context, params TransferParams) (*TransferResult, error)
	AccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
	CapturedAmount(ctx context.Context, paymentIntentID string) (int64, error)
	SavedPaymentMethod(ctx context.Context, paymentIntentID string) (*SavedPaymentMethod, error)
}

// StripeGateway is the production PaymentGateway. The API key is set globally
// in main (stripe.Key), matching the stripe-go client model.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(p.ClientReference),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
	}

	piData := &stripe.CheckoutSessionPaymentIntentDataParams{}
	piData.Metadata = p.Metadata
	if p.Destination != "" {
		piData.ApplicationFeeAmount = stripe.Int64(p.ApplicationFeeCents)
		piData.TransferData = &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(p.Destination),
		}
	}
	if p.SavePaymentMethod {
		piData.SetupFutureUsage = stripe.String("off_session")
	}
	params.PaymentIntentData = piData
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) ChargeOffSession(ctx context.Context, p OffSessionChargeParams) (*ChargeOutcome, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.AmountCents),
		Currency:      stripe.String(p.Currency),
		Customer:      stripe.String(p.CustomerID),
		PaymentMethod: stripe.String(p.PaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &ChargeOutcome{PaymentIntentID: pi.ID, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) CreateTransfer(ctx context.Context, p TransferParams) (*TransferResult, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(p.AmountCents),
		Currency:    stripe.String(p.Currency),
		Destination: stripe.String(p.Destination),
	}
	if p.SourceTransaction != "" {
		params.SourceTransaction = stripe.String(p.SourceTransaction)
	}
	if p.TransferGroup != "" {
		params.TransferGroup = stripe.String(p.TransferGroup)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	tr, err := transfer.New(params)
	if err != nil {
		return nil, err
	}
	return &TransferResult{TransferID: tr.ID}, nil
}

// AccountStatus checks the connected account live; capability flags are never
// served from a cache here because payability must be current at charge time.
func (g *StripeGateway) AccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return nil, err
	}
	return &AccountStatus{
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}, nil
}

func (g *StripeGateway) CapturedAmount(ctx context.Context, paymentIntentID string) (int64, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(paymentIntentID, params)
	if err != nil {
		return 0, err
	}
	return pi.AmountReceived, nil
}

func (g *StripeGateway) SavedPaymentMethod(ctx context.Context, paymentIntentID string) (*SavedPaymentMethod, error) {
	params := &stripe.PaymentIntentParams{}
	params.AddExpand("payment_method")
	params.Context = ctx
	pi, err := paymentintent.Get(paymentIntentID, params)
	if err != nil {
		return nil, err
	}
	saved := &SavedPaymentMethod{}
	if pi.Customer != nil {
		saved.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		saved.PaymentMethodID = pi.PaymentMethod.ID
	}
	return saved, nil
}

// ChargeFailureKind classifies provider charge errors into the two outcomes
// the final-payment sweep distinguishes.
type ChargeFailureKind int

const (
	// ChargeFailureRequiresAction covers declines and authentication
	// challenges the hiker can resolve themselves.
	ChargeFailureRequiresAction ChargeFailureKind = iota
	// ChargeFailureHard covers everything else; needs operator attention.
	ChargeFailureHard
)

// ClassifyChargeError maps a provider error to a failure kind.
func ClassifyChargeError(err error) ChargeFailureKind {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Code {
		case stripe.ErrorCodeCardDeclined,
			stripe.ErrorCodeExpiredCard,
			stripe.ErrorCodeIncorrectCVC,
			stripe.ErrorCodeAuthenticationRequired:
			return ChargeFailureRequiresAction
		}
	}
	return ChargeFailureHard
}
