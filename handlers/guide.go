package handlers

import (
	"net/http"

	guideRepo "trailbound/database/repository/guide"
	"trailbound/models"
	"trailbound/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GuideHandler exposes the guide's fee and deposit policy configuration.
type GuideHandler struct {
	Guides guideRepo.GuideRepository
	Logger *zap.Logger
}

func NewGuideHandler(guides guideRepo.GuideRepository, logger *zap.Logger) *GuideHandler {
	return &GuideHandler{Guides: guides, Logger: logger}
}

// GetFeeConfig returns the guide's fee configuration.
func (h *GuideHandler) GetFeeConfig(c *gin.Context) {
	guide, err := h.Guides.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load guide", err.Error())
		return
	}
	if guide == nil {
		utils.JSONError(c, http.StatusNotFound, "Guide not found", "")
		return
	}
	c.JSON(http.StatusOK, guide.FeeConfig)
}

// UpdateFeeConfig replaces the guide's fee configuration. Only the guide
// themselves may change it; pricing components treat it as read-only.
func (h *GuideHandler) UpdateFeeConfig(c *gin.Context) {
	guideID := c.Param("id")
	if c.GetString("callerID") != guideID {
		utils.JSONError(c, http.StatusForbidden, "Cannot modify another guide's fees", "")
		return
	}

	var cfg models.GuideFeeConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid fee configuration", err.Error())
		return
	}
	if err := validateFeeConfig(cfg); err != "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid fee configuration", err)
		return
	}

	guide, err := h.Guides.GetByID(c.Request.Context(), guideID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load guide", err.Error())
		return
	}
	if guide == nil {
		utils.JSONError(c, http.StatusNotFound, "Guide not found", "")
		return
	}

	guide.FeeConfig = cfg
	if err := h.Guides.Save(c.Request.Context(), guide); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to save fee configuration", err.Error())
		return
	}

	h.Logger.Info("guide fee configuration updated", zap.String("guide", guideID))
	c.JSON(http.StatusOK, guide.FeeConfig)
}

func validateFeeConfig(cfg models.GuideFeeConfig) string {
	if cfg.CustomGuideFeePct != nil && (*cfg.CustomGuideFeePct < 0 || *cfg.CustomGuideFeePct > 100) {
		return "guide fee percentage must be between 0 and 100"
	}
	if cfg.CustomHikerFeePct != nil && (*cfg.CustomHikerFeePct < 0 || *cfg.CustomHikerFeePct > 100) {
		return "hiker fee percentage must be between 0 and 100"
	}
	switch cfg.DepositType {
	case "", models.DepositTypePercentage, models.DepositTypeFixed:
	default:
		return "deposit type must be percentage or fixed"
	}
	if cfg.DepositPct < 0 || cfg.DepositPct > 100 {
		return "deposit percentage must be between 0 and 100"
	}
	if cfg.DepositFixedCents < 0 {
		return "fixed deposit cannot be negative"
	}
	if cfg.FinalPaymentDays < 0 {
		return "final payment days cannot be negative"
	}
	return ""
}
