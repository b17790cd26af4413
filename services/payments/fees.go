package payments

import "trailbound/models"

// Builtin fallbacks used when neither the guide nor the platform settings
// carry a value.
const (
	DefaultGuideFeePct = 5.0
	DefaultHikerFeePct = 10.0
)

// ResolvedFees are the effective percentages for one booking.
type ResolvedFees struct {
	GuideFeePct float64
	HikerFeePct float64
}

// ResolveFees resolves the effective fee percentages from the guide's
// configuration and the platform defaults. Guides with custom fees win;
// otherwise platform defaults apply; missing values fall back to the builtin
// constants. Pure function, no error conditions.
func ResolveFees(cfg models.GuideFeeConfig, platform *models.PlatformSettings) ResolvedFees {
	if cfg.UsesCustomFees {
		return ResolvedFees{
			GuideFeePct: pctOrDefault(cfg.CustomGuideFeePct, DefaultGuideFeePct),
			HikerFeePct: pctOrDefault(cfg.CustomHikerFeePct, DefaultHikerFeePct),
		}
	}
	if platform == nil {
		return ResolvedFees{GuideFeePct: DefaultGuideFeePct, HikerFeePct: DefaultHikerFeePct}
	}
	return ResolvedFees{
		GuideFeePct: pctOrDefault(platform.DefaultGuideFeePct, DefaultGuideFeePct),
		HikerFeePct: pctOrDefault(platform.DefaultHikerFeePct, DefaultHikerFeePct),
	}
}

func pctOrDefault(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
