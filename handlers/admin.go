package handlers

import (
	"net/http"

	platformRepo "trailbound/database/repository/platform"
	"trailbound/models"
	"trailbound/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler exposes the platform-wide default fee settings.
type AdminHandler struct {
	Platform platformRepo.PlatformSettingsRepository
	Logger   *zap.Logger
}

func NewAdminHandler(platform platformRepo.PlatformSettingsRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Platform: platform, Logger: logger}
}

// GetPlatformSettings returns the global settings document.
func (h *AdminHandler) GetPlatformSettings(c *gin.Context) {
	settings, err := h.Platform.Get(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load platform settings", err.Error())
		return
	}
	if settings == nil {
		settings = &models.PlatformSettings{ID: models.PlatformSettingsID}
	}
	c.JSON(http.StatusOK, settings)
}

// UpdatePlatformSettings replaces the global default fee percentages.
func (h *AdminHandler) UpdatePlatformSettings(c *gin.Context) {
	var settings models.PlatformSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid platform settings", err.Error())
		return
	}
	if settings.DefaultGuideFeePct != nil && (*settings.DefaultGuideFeePct < 0 || *settings.DefaultGuideFeePct > 100) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid platform settings", "guide fee percentage must be between 0 and 100")
		return
	}
	if settings.DefaultHikerFeePct != nil && (*settings.DefaultHikerFeePct < 0 || *settings.DefaultHikerFeePct > 100) {
		utils.JSONError(c, http.StatusBadRequest, "Invalid platform settings", "hiker fee percentage must be between 0 and 100")
		return
	}

	if err := h.Platform.Save(c.Request.Context(), settings); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to save platform settings", err.Error())
		return
	}

	h.Logger.Info("platform fee defaults updated")
	c.JSON(http.StatusOK, settings)
}
