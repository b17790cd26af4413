package models

// PriceBreakdown is the derived split for one booking. All amounts are minor
// units (cents). Identities, for every booking regardless of payment type:
//
//	PostDiscountCents   = SubtotalCents - DiscountCents
//	TransferCents       = PostDiscountCents - GuideFeeCents
//	PlatformRevenueCents = GuideFeeCents + HikerServiceFeeCents
//	TotalChargedCents   = PostDiscountCents + HikerServiceFeeCents
type PriceBreakdown struct {
	SubtotalCents        int64 `json:"subtotal_cents"`
	DiscountCents        int64 `json:"discount_cents"`
	PostDiscountCents    int64 `json:"post_discount_cents"`
	GuideFeeCents        int64 `json:"guide_fee_cents"`
	HikerServiceFeeCents int64 `json:"hiker_service_fee_cents"`
	TransferCents        int64 `json:"transfer_cents"`
	PlatformRevenueCents int64 `json:"platform_revenue_cents"`
	TotalChargedCents    int64 `json:"total_charged_cents"`
}

// SweepResult summarizes one run of the final-payment sweep.
type SweepResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SettlementResult reports the outcome of settling one completed booking.
type SettlementResult struct {
	BookingID   string         `json:"booking_id"`
	TransferID  string         `json:"transfer_id"`
	AmountCents int64          `json:"amount_cents"`
	Status      TransferStatus `json:"status"`
}

// CheckoutInfo is returned to the hiker to complete payment.
type CheckoutInfo struct {
	BookingID   string `json:"booking_id"`
	Reference   string `json:"reference"`
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}
