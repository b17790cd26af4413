package handlers

import (
	"io"
	"net/http"

	"trailbound/config"
	"trailbound/services/webhookqueue"
	"trailbound/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// WebhookHandler receives provider webhooks, verifies their signature and
// enqueues them. Processing happens asynchronously in the queue sweep so the
// provider gets a fast 200 regardless of downstream state.
type WebhookHandler struct {
	QueueSvc *webhookqueue.QueueService
	Logger   *zap.Logger
}

func NewWebhookHandler(queueSvc *webhookqueue.QueueService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{QueueSvc: queueSvc, Logger: logger}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Could not read webhook body", err.Error())
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), config.AppConfig.StripeWebhookSecret)
	if err != nil {
		h.Logger.Warn("webhook signature verification failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook signature", "")
		return
	}

	id, err := h.QueueSvc.Enqueue(c.Request.Context(), string(event.Type), event.ID, string(payload))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to queue webhook event", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"queued": id})
}
