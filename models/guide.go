package models

import "time"

type DepositType string

const (
	DepositTypePercentage DepositType = "percentage"
	DepositTypeFixed      DepositType = "fixed"
)

// Guide owns tours, fee overrides and the connected payout account.
type Guide struct {
	ID           string `bson:"id" json:"id"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash" json:"-"`

	// Stripe-related
	StripeAccountID string `bson:"stripe_account_id,omitempty" json:"stripe_account_id,omitempty"`
	ChargesEnabled  bool   `bson:"charges_enabled" json:"charges_enabled"` // last synced from account.updated
	PayoutsEnabled  bool   `bson:"payouts_enabled" json:"payouts_enabled"`

	FeeConfig GuideFeeConfig `bson:"fee_config" json:"fee_config"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GuideFeeConfig is the per-guide override of platform fee defaults plus the
// guide's deposit policy. Nil percentages fall back to platform defaults.
type GuideFeeConfig struct {
	UsesCustomFees    bool     `bson:"uses_custom_fees" json:"uses_custom_fees"`
	CustomGuideFeePct *float64 `bson:"custom_guide_fee_pct,omitempty" json:"custom_guide_fee_pct,omitempty"`
	CustomHikerFeePct *float64 `bson:"custom_hiker_fee_pct,omitempty" json:"custom_hiker_fee_pct,omitempty"`

	DepositType       DepositType `bson:"deposit_type,omitempty" json:"deposit_type,omitempty"`
	DepositPct        float64     `bson:"deposit_pct,omitempty" json:"deposit_pct,omitempty"`
	DepositFixedCents int64       `bson:"deposit_fixed_cents,omitempty" json:"deposit_fixed_cents,omitempty"`
	FinalPaymentDays  int         `bson:"final_payment_days,omitempty" json:"final_payment_days,omitempty"`
}

// Hiker is the paying side of the marketplace.
type Hiker struct {
	ID           string    `bson:"id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
