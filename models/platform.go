package models

import "time"

// PlatformSettingsID is the fixed id of the single settings document.
const PlatformSettingsID = "platform_settings"

// PlatformSettings is the global fallback fee configuration. Mutated only by
// platform operators; the fee resolver reads it as the second lookup level.
type PlatformSettings struct {
	ID                 string    `bson:"id" json:"id"`
	DefaultGuideFeePct *float64  `bson:"default_guide_fee_pct,omitempty" json:"default_guide_fee_pct,omitempty"`
	DefaultHikerFeePct *float64  `bson:"default_hiker_fee_pct,omitempty" json:"default_hiker_fee_pct,omitempty"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}
