package models

import "time"

// Payment lifecycle enums. All monetary fields on Booking are minor units (cents).
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "full"
	PaymentTypeDeposit PaymentType = "deposit"
)

type PaymentStatus string

const (
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
)

type FinalPaymentStatus string

const (
	FinalPaymentPending        FinalPaymentStatus = "pending"
	FinalPaymentProcessing     FinalPaymentStatus = "processing"
	FinalPaymentPaid           FinalPaymentStatus = "paid"
	FinalPaymentFailed         FinalPaymentStatus = "failed"
	FinalPaymentRequiresAction FinalPaymentStatus = "requires_action"
)

type TransferStatus string

const (
	TransferNotStarted TransferStatus = "not_started"
	TransferPending    TransferStatus = "pending"
	TransferSucceeded  TransferStatus = "succeeded"
	TransferFailed     TransferStatus = "failed"
	TransferReversed   TransferStatus = "reversed"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is one hiker's reservation of one tour slot.
type Booking struct {
	ID        string `bson:"id" json:"id"`
	Reference string `bson:"reference" json:"reference"` // human-readable code, e.g. TB-4F7K2A
	TourID    string `bson:"tour_id" json:"tour_id"`
	TourName  string `bson:"tour_name" json:"tour_name"`
	GuideID   string `bson:"guide_id" json:"guide_id"`
	HikerID   string `bson:"hiker_id" json:"hiker_id"`

	SlotDate     time.Time `bson:"slot_date" json:"slot_date"`
	Participants int       `bson:"participants" json:"participants"`

	Currency        string        `bson:"currency" json:"currency"`
	SubtotalCents   int64         `bson:"subtotal_cents" json:"subtotal_cents"`
	DiscountCents   int64         `bson:"discount_cents" json:"discount_cents"`
	ServiceFeeCents int64         `bson:"service_fee_cents" json:"service_fee_cents"` // hiker fee, fixed at charge time on the pre-discount subtotal
	TotalPriceCents int64         `bson:"total_price_cents" json:"total_price_cents"` // amount the hiker was charged upfront
	PaymentType     PaymentType   `bson:"payment_type" json:"payment_type"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"payment_status"`
	Status          BookingStatus `bson:"status" json:"status"`

	DepositCents         int64              `bson:"deposit_cents,omitempty" json:"deposit_cents,omitempty"`
	FinalPaymentCents    int64              `bson:"final_payment_cents,omitempty" json:"final_payment_cents,omitempty"`
	FinalServiceFeeCents int64              `bson:"final_service_fee_cents,omitempty" json:"final_service_fee_cents,omitempty"`
	FinalPaymentDueDate  time.Time          `bson:"final_payment_due_date,omitempty" json:"final_payment_due_date,omitempty"`
	FinalPaymentStatus   FinalPaymentStatus `bson:"final_payment_status,omitempty" json:"final_payment_status,omitempty"`

	CheckoutSessionID      string `bson:"checkout_session_id,omitempty" json:"-"`
	UpfrontPaymentIntentID string `bson:"upfront_payment_intent_id,omitempty" json:"-"`
	FinalPaymentIntentID   string `bson:"final_payment_intent_id,omitempty" json:"-"`
	StripeCustomerID       string `bson:"stripe_customer_id,omitempty" json:"-"`
	SavedPaymentMethodID   string `bson:"saved_payment_method_id,omitempty" json:"-"`

	// Fee percentages in effect when the hiker was charged. Settlement recomputes
	// the split from these, never from the guide's current configuration.
	GuideFeePctSnapshot float64 `bson:"guide_fee_pct_snapshot" json:"guide_fee_pct_snapshot"`
	HikerFeePctSnapshot float64 `bson:"hiker_fee_pct_snapshot" json:"hiker_fee_pct_snapshot"`

	// Escrow is off for bookings whose guide was paid at charge time: full
	// payments (destination charges) and pre-escrow legacy bookings. The
	// settler skips them; only deposit bookings hold funds for settlement.
	EscrowEnabled  bool           `bson:"escrow_enabled" json:"escrow_enabled"`
	TransferStatus TransferStatus `bson:"transfer_status" json:"transfer_status"`
	TransferCents  int64          `bson:"transfer_cents,omitempty" json:"transfer_cents,omitempty"`
	TransferID     string         `bson:"transfer_id,omitempty" json:"transfer_id,omitempty"`
	SettledAt      *time.Time     `bson:"settled_at,omitempty" json:"settled_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
