package payments

import (
	"math"

	"trailbound/models"
)

// PercentOf computes round(amount × pct / 100) in minor units, rounding
// half-up. All fee arithmetic in the system goes through this so the rounding
// rule lives in exactly one place.
func PercentOf(amountCents int64, pct float64) int64 {
	return int64(math.Floor(float64(amountCents)*pct/100 + 0.5))
}

// ComputeSplit computes the full split for a booking. Amounts are minor units.
//
// The hiker service fee is computed on the PRE-discount subtotal while the
// guide fee is computed on the post-discount amount. The asymmetry is a
// business rule: platform revenue is unaffected by guide-granted discounts.
func ComputeSplit(subtotalCents, discountCents int64, fees ResolvedFees) (models.PriceBreakdown, error) {
	if subtotalCents < 0 || discountCents < 0 {
		return models.PriceBreakdown{}, NewPaymentError(CodeInvalidAmounts, "subtotal and discount must be non-negative")
	}
	if discountCents > subtotalCents {
		return models.PriceBreakdown{}, NewPaymentError(CodeInvalidAmounts, "discount exceeds subtotal")
	}

	postDiscount := subtotalCents - discountCents
	guideFee := PercentOf(postDiscount, fees.GuideFeePct)
	hikerFee := PercentOf(subtotalCents, fees.HikerFeePct)

	return models.PriceBreakdown{
		SubtotalCents:        subtotalCents,
		DiscountCents:        discountCents,
		PostDiscountCents:    postDiscount,
		GuideFeeCents:        guideFee,
		HikerServiceFeeCents: hikerFee,
		TransferCents:        postDiscount - guideFee,
		PlatformRevenueCents: guideFee + hikerFee,
		TotalChargedCents:    postDiscount + hikerFee,
	}, nil
}

// DepositAmount computes the upfront deposit in minor units from the guide's
// deposit policy, clamped to the post-discount amount.
func DepositAmount(cfg models.GuideFeeConfig, postDiscountCents int64) int64 {
	var deposit int64
	switch cfg.DepositType {
	case models.DepositTypeFixed:
		deposit = cfg.DepositFixedCents
	case models.DepositTypePercentage:
		deposit = PercentOf(postDiscountCents, cfg.DepositPct)
	default:
		deposit = 0
	}
	if deposit > postDiscountCents {
		deposit = postDiscountCents
	}
	if deposit < 0 {
		deposit = 0
	}
	return deposit
}
